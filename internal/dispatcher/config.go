package dispatcher

import "time"

// Config controls pool sizing and the retry policy.
type Config struct {
	// Workers bounds the number of concurrently running tasks.
	Workers int

	// QueueSize bounds the FIFO of submitted-but-not-running tasks.
	QueueSize int

	// PollBudget caps how many outcomes a single PollCompleted call
	// returns, so a flooding stream cannot starve a render tick.
	PollBudget int

	// MaxRetries bounds transparent retries for read operations that
	// fail with a transient error.
	MaxRetries int

	// RetryInterval is the initial backoff interval; it grows
	// exponentially between attempts.
	RetryInterval time.Duration

	// Retryable reports whether an error is transient. Nil disables
	// retries entirely.
	Retryable func(error) bool

	// PendingPerSlot bounds buffered outcomes per slot between ticks.
	// When a stream outpaces the render loop, the oldest pushes are
	// discarded first.
	PendingPerSlot int
}

// DefaultConfig returns a configuration suitable for an interactive
// session.
func DefaultConfig() Config {
	return Config{
		Workers:        8,
		QueueSize:      64,
		PollBudget:     256,
		MaxRetries:     3,
		RetryInterval:  50 * time.Millisecond,
		PendingPerSlot: 1024,
	}
}

// Option configures a Dispatcher.
type Option func(*Config)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithQueueSize sets the submission queue bound.
func WithQueueSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.QueueSize = n
		}
	}
}

// WithPollBudget sets the per-tick outcome drain cap.
func WithPollBudget(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.PollBudget = n
		}
	}
}

// WithRetry sets the transient-error retry policy for reads.
func WithRetry(maxRetries int, interval time.Duration, retryable func(error) bool) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		if interval > 0 {
			c.RetryInterval = interval
		}
		c.Retryable = retryable
	}
}
