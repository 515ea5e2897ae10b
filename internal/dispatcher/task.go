package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Slot identifies a logical purpose line. Only one task per slot is
// authoritative at any time.
type Slot string

// Well-known slots. Components may define their own; these are the
// ones the stock UI uses.
const (
	SlotExplorerScan  Slot = "explorer.scan"
	SlotExplorerKey   Slot = "explorer.key"
	SlotConsoleExec   Slot = "console.exec"
	SlotConsoleStream Slot = "console.stream"
)

// Epoch is a monotonic per-slot version counter. Epochs are never
// reused; a result whose epoch does not match the slot's current
// epoch is stale and must be dropped.
type Epoch uint64

// Kind classifies an operation for the retry policy. Only read-only,
// idempotent operations are eligible for transparent retry.
type Kind int

const (
	// KindRead is a one-shot, idempotent read.
	KindRead Kind = iota
	// KindWrite is a one-shot command that may mutate backend state.
	// Writes are never silently retried.
	KindWrite
	// KindStream is an open-ended push sequence (subscribe, monitor).
	KindStream
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Status is the terminal disposition of an outcome.
type Status int

const (
	// StatusCompleted is a one-shot task's single successful result.
	StatusCompleted Status = iota
	// StatusPush is one message of a streaming task. A stream emits
	// any number of pushes under a single epoch.
	StatusPush
	// StatusFailed carries the originating error. Failures are
	// reported exactly once per task.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusPush:
		return "push"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Operation is a one-shot unit of work. It must honor ctx: the
// dispatcher cancels ctx when the task is superseded, and a canceled
// operation's result is dropped silently.
type Operation func(ctx context.Context) (any, error)

// StreamOperation is an open-ended unit of work. It calls push for
// every message and returns only when the stream ends or ctx is
// canceled. Pushes after supersession are dropped by epoch mismatch.
type StreamOperation func(ctx context.Context, push func(any)) error

// Outcome is a finished (or pushed) result handed to the render loop.
type Outcome struct {
	TaskID  uuid.UUID
	Slot    Slot
	Epoch   Epoch
	Kind    Kind
	Status  Status
	Value   any
	Err     error
	Latency time.Duration
}

// task is the dispatcher-internal unit of work. Owned exclusively by
// the dispatcher until a terminal state, then surfaced as Outcomes.
type task struct {
	id        uuid.UUID
	slot      Slot
	epoch     Epoch
	kind      Kind
	op        Operation
	stream    StreamOperation
	ctx       context.Context
	cancel    context.CancelFunc
	submitted time.Time
}
