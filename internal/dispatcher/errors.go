package dispatcher

import "errors"

// Dispatcher errors.
var (
	// ErrNotRunning indicates the dispatcher has not been started.
	ErrNotRunning = errors.New("dispatcher: not running")

	// ErrAlreadyRunning indicates Start was called twice.
	ErrAlreadyRunning = errors.New("dispatcher: already running")

	// ErrQueueFull indicates the submission queue overflowed.
	ErrQueueFull = errors.New("dispatcher: task queue full")

	// ErrStreamClosed indicates a streaming task's underlying source
	// ended without an explicit cancel. Streams never complete on
	// their own; the owner must resubmit.
	ErrStreamClosed = errors.New("dispatcher: stream closed by peer")
)
