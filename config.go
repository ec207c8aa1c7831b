package courier

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds configuration for the engine.
type Config struct {
	// SlotPoolSize is the number of idle execution slots kept for reuse.
	SlotPoolSize int `env:"COURIER_SLOT_POOL_SIZE" envDefault:"10"`

	// PauseMin is the first sleep of the pause gate.
	PauseMin time.Duration `env:"COURIER_PAUSE_MIN" envDefault:"100ms"`

	// PauseMax caps the pause gate backoff.
	PauseMax time.Duration `env:"COURIER_PAUSE_MAX" envDefault:"3s"`

	// AsyncConcurrency limits how many actions submitted under AsyncKey may
	// run at once. Zero means unbounded.
	AsyncConcurrency int `env:"COURIER_ASYNC_CONCURRENCY" envDefault:"0"`

	// DefaultRetryLimit is the attempt limit given to actions that do not
	// set one.
	DefaultRetryLimit int `env:"COURIER_DEFAULT_RETRY_LIMIT" envDefault:"1"`

	// ShutdownTimeout is the maximum time Stop waits for workers to drain
	// when the caller's context carries no deadline.
	ShutdownTimeout time.Duration `env:"COURIER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// DeferRestore holds restored actions until the engine is told to
	// resume them.
	DeferRestore bool `env:"COURIER_DEFER_RESTORE" envDefault:"false"`

	// LogLevel is used by command-line tools that build their own logger.
	LogLevel string `env:"COURIER_LOG_LEVEL" envDefault:"info"`
}

// DefaultRetryLimit gives each action a single attempt.
const DefaultRetryLimit = 1

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SlotPoolSize:      10,
		PauseMin:          100 * time.Millisecond,
		PauseMax:          3 * time.Second,
		AsyncConcurrency:  0,
		DefaultRetryLimit: DefaultRetryLimit,
		ShutdownTimeout:   30 * time.Second,
		LogLevel:          "info",
	}
}

// LoadConfig reads a Config from COURIER_* environment variables. Unset
// variables keep their defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("courier: load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether the configuration can drive an engine.
func (c Config) Validate() error {
	switch {
	case c.SlotPoolSize < 0:
		return fmt.Errorf("%w: slot pool size %d", ErrInvalidConfig, c.SlotPoolSize)
	case c.PauseMin <= 0:
		return fmt.Errorf("%w: pause min must be positive", ErrInvalidConfig)
	case c.PauseMax < c.PauseMin:
		return fmt.Errorf("%w: pause max %s below pause min %s", ErrInvalidConfig, c.PauseMax, c.PauseMin)
	case c.AsyncConcurrency < 0:
		return fmt.Errorf("%w: async concurrency %d", ErrInvalidConfig, c.AsyncConcurrency)
	case c.DefaultRetryLimit < 1:
		return fmt.Errorf("%w: default retry limit %d", ErrInvalidConfig, c.DefaultRetryLimit)
	}
	return nil
}
