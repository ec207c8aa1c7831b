package action

import "errors"

// Decision is the outcome of a retry policy: either retry, or fail with an
// error that may differ from the one that triggered the decision.
type Decision struct {
	retry bool
	err   error
}

// Retry returns a decision to run the action again.
func Retry() Decision { return Decision{retry: true} }

// Fail returns a terminal decision delivering err to the submitter.
func Fail(err error) Decision { return Decision{err: err} }

// ShouldRetry reports whether the action runs again.
func (d Decision) ShouldRetry() bool { return d.retry }

// Err returns the terminal error of a Fail decision.
func (d Decision) Err() error { return d.err }

// RetryPolicy decides what happens after a failed attempt.
type RetryPolicy func(a *Action, err error) Decision

// Bounded retries until the action has used RetryLimit attempts. Errors
// marked Permanent fail immediately with the wrapped error.
func Bounded(a *Action, err error) Decision {
	var p *permanentError
	if errors.As(err, &p) {
		return Fail(p.err)
	}
	if a.RetryCount()+1 < a.RetryLimit() {
		return Retry()
	}
	return Fail(err)
}

// RetryIf retries errors accepted by match, within the action's limit.
// Other errors fail at once.
func RetryIf(match func(error) bool) RetryPolicy {
	return func(a *Action, err error) Decision {
		if !match(err) {
			return Fail(err)
		}
		return Bounded(a, err)
	}
}

// Permanent marks err as not worth retrying under the Bounded policy.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }
