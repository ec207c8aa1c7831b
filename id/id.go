// Package id defines prefixed, K-sortable identifiers for courier entities.
//
// IDs have the form "prefix_suffix" where the suffix is a ULID. They sort
// by creation time, which keeps log lines and trace attributes for the
// same engine in submission order.
package id

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Prefix identifies the entity type encoded in an ID.
type Prefix string

// Prefix constants for courier entity types.
const (
	PrefixSubmission Prefix = "sub"
	PrefixEngine     Prefix = "eng"
)

// ID is a prefix-qualified ULID.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	prefix Prefix
	inner  ulid.ULID
	valid  bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is empty or contains an underscore (programming error).
func New(prefix Prefix) ID {
	if err := validPrefix(prefix); err != nil {
		panic(err.Error())
	}
	return ID{prefix: prefix, inner: ulid.Make(), valid: true}
}

// Parse parses an ID string such as "sub_01hq3xk5w8r2t6y0zj9v4c7b1n".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	prefix, suffix, ok := strings.Cut(s, "_")
	if !ok {
		return Nil, fmt.Errorf("id: parse %q: missing prefix separator", s)
	}
	if err := validPrefix(Prefix(prefix)); err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	u, err := ulid.ParseStrict(strings.ToUpper(suffix))
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{prefix: Prefix(prefix), inner: u, valid: true}, nil
}

// ParseWithPrefix parses an ID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.prefix != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.prefix)
	}
	return parsed, nil
}

func validPrefix(p Prefix) error {
	if p == "" || strings.Contains(string(p), "_") {
		return fmt.Errorf("id: invalid prefix %q", p)
	}
	return nil
}

// NewSubmissionID generates a new submission ID.
func NewSubmissionID() ID { return New(PrefixSubmission) }

// NewEngineID generates a new engine instance ID.
func NewEngineID() ID { return New(PrefixEngine) }

// String returns the "prefix_suffix" form, or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return string(i.prefix) + "_" + strings.ToLower(i.inner.String())
}

// Prefix returns the prefix of the ID.
func (i ID) Prefix() Prefix { return i.prefix }

// IsNil reports whether the ID is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// Compare orders IDs by creation time, then by random suffix.
func (i ID) Compare(other ID) int { return i.inner.Compare(other.inner) }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
