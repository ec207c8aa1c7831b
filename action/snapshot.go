package action

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/courier"
)

// snapshotVersion is written into every encoded snapshot.
const snapshotVersion = 1

// Snapshot is the serializable state of an action. Hooks and the work
// function are not part of it; they come from the Registry on restore.
type Snapshot struct {
	Version           int           `json:"v"`
	Name              string        `json:"name"`
	Key               string        `json:"key,omitempty"`
	Payload           []byte        `json:"payload,omitempty"`
	RetryCount        int           `json:"retry_count"`
	RetryLimit        int           `json:"retry_limit"`
	RunIfUnsubscribed bool          `json:"run_if_unsubscribed"`
	Timeout           time.Duration `json:"timeout,omitempty"`
}

// Snapshot captures the current state of a. The routing key recorded is
// the assigned key, so a restored action returns to the same worker.
func (a *Action) Snapshot() Snapshot {
	key := a.key
	if key == "" {
		key = a.opts.Key
	}
	return Snapshot{
		Version:           snapshotVersion,
		Name:              a.name,
		Key:               key,
		Payload:           a.payload,
		RetryCount:        a.retryCount,
		RetryLimit:        a.RetryLimit(),
		RunIfUnsubscribed: a.opts.RunIfUnsubscribed,
		Timeout:           a.opts.Timeout,
	}
}

// Codec turns snapshots into the bytes held by a durable store.
type Codec interface {
	Encode(s Snapshot) ([]byte, error)
	Decode(data []byte) (Snapshot, error)
}

// JSONCodec encodes snapshots as JSON.
type JSONCodec struct{}

// Encode implements Codec.
func (JSONCodec) Encode(s Snapshot) ([]byte, error) {
	if s.Name == "" {
		return nil, courier.ErrNotRestorable
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("courier/action: encode snapshot: %w", err)
	}
	return data, nil
}

// Decode implements Codec.
func (JSONCodec) Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", courier.ErrCorruptRecord, err)
	}
	if s.Name == "" {
		return Snapshot{}, fmt.Errorf("%w: missing action name", courier.ErrCorruptRecord)
	}
	if s.Version > snapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported version %d", courier.ErrCorruptRecord, s.Version)
	}
	return s, nil
}
