package action

import "time"

// Options configures an action.
type Options struct {
	// Key is the preferred routing key. Empty defers to the engine's key
	// selector.
	Key string

	// Persistent records the action in the durable store until it reaches
	// a terminal outcome. It is fixed at construction.
	Persistent bool

	// RetryLimit is the maximum number of execution attempts. Zero uses the
	// engine default.
	RetryLimit int

	// RunIfUnsubscribed keeps the action running after its submitter
	// cancels.
	RunIfUnsubscribed bool

	// Timeout bounds each attempt. Zero means no timeout.
	Timeout time.Duration

	Prepare     Hook
	PreRetry    Hook
	RetryPolicy RetryPolicy
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns options for a non-persistent action that keeps
// running when its submitter cancels.
func DefaultOptions() Options {
	return Options{RunIfUnsubscribed: true}
}

// WithKey sets the preferred routing key.
func WithKey(key string) Option {
	return func(o *Options) { o.Key = key }
}

// Persistent marks the action as durable.
func Persistent() Option {
	return func(o *Options) { o.Persistent = true }
}

// WithRetryLimit sets the maximum number of execution attempts.
func WithRetryLimit(n int) Option {
	return func(o *Options) { o.RetryLimit = n }
}

// WithRunIfUnsubscribed controls whether the action keeps running after
// its submitter cancels.
func WithRunIfUnsubscribed(run bool) Option {
	return func(o *Options) { o.RunIfUnsubscribed = run }
}

// WithTimeout bounds each execution attempt.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithPrepare sets the preparation hook, run once before the first attempt.
func WithPrepare(h Hook) Option {
	return func(o *Options) { o.Prepare = h }
}

// WithPreRetry sets the hook run before every retry.
func WithPreRetry(h Hook) Option {
	return func(o *Options) { o.PreRetry = h }
}

// WithRetryPolicy replaces the default bounded retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Options) { o.RetryPolicy = p }
}
