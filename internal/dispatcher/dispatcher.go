package dispatcher

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Dispatcher executes tasks against the backend on a bounded worker
// pool and buffers their outcomes per slot until the render loop
// drains them.
type Dispatcher struct {
	mu    sync.Mutex // protects slots and queue lifecycle
	slots map[Slot]*slotState

	queue   chan *task
	running atomic.Bool
	wg      sync.WaitGroup

	baseCtx    context.Context
	baseCancel context.CancelFunc

	config Config

	// Stats
	submitted    atomic.Uint64
	completed    atomic.Uint64
	failed       atomic.Uint64
	cancelled    atomic.Uint64
	pushes       atomic.Uint64
	droppedStale atomic.Uint64
	droppedFull  atomic.Uint64
}

// slotState tracks the authoritative epoch for a slot and the
// outcomes waiting to be drained, in delivery order.
type slotState struct {
	epoch   Epoch
	cancel  context.CancelFunc
	pending []Outcome
}

// New creates a dispatcher with the given options applied over
// DefaultConfig.
func New(opts ...Option) *Dispatcher {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Dispatcher{
		slots:  make(map[Slot]*slotState),
		config: config,
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return ErrAlreadyRunning
	}
	d.queue = make(chan *task, d.config.QueueSize)
	d.baseCtx, d.baseCancel = context.WithCancel(context.Background())
	d.running.Store(true)

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return nil
}

// Stop cancels every pending task and waits for the workers to drain,
// or until ctx expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running.Swap(false) {
		d.mu.Unlock()
		return ErrNotRunning
	}
	d.baseCancel()
	for _, s := range d.slots {
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the worker pool is live.
func (d *Dispatcher) IsRunning() bool {
	return d.running.Load()
}

// Submit enqueues a one-shot operation on the given slot, superseding
// and cancelling any task the slot currently holds. It returns the
// new authoritative epoch.
func (d *Dispatcher) Submit(slot Slot, kind Kind, op Operation) Epoch {
	return d.enqueue(&task{slot: slot, kind: kind, op: op})
}

// SubmitStream enqueues an open-ended streaming operation on the
// given slot. Every push is delivered as a separate outcome under the
// returned epoch until the slot is cancelled or resubmitted.
func (d *Dispatcher) SubmitStream(slot Slot, op StreamOperation) Epoch {
	return d.enqueue(&task{slot: slot, kind: KindStream, stream: op})
}

func (d *Dispatcher) enqueue(t *task) Epoch {
	d.mu.Lock()
	s := d.slot(t.slot)
	if s.cancel != nil {
		s.cancel()
	}
	s.epoch++
	s.pending = s.pending[:0] // stale by definition
	t.id = uuid.New()
	t.epoch = s.epoch
	t.submitted = time.Now()
	base := d.baseCtx
	if base == nil {
		base = context.Background()
	}
	t.ctx, t.cancel = context.WithCancel(base)
	s.cancel = t.cancel
	epoch := s.epoch
	running := d.running.Load()
	queue := d.queue
	d.mu.Unlock()

	d.submitted.Add(1)
	if !running {
		d.deliver(Outcome{TaskID: t.id, Slot: t.slot, Epoch: t.epoch, Kind: t.kind, Status: StatusFailed, Err: ErrNotRunning})
		return epoch
	}
	select {
	case queue <- t:
	default:
		// Queue full. With one live task per slot this only happens
		// when slots outnumber the queue bound; report it rather
		// than block the caller, which is the render loop.
		d.droppedFull.Add(1)
		d.deliver(Outcome{TaskID: t.id, Slot: t.slot, Epoch: t.epoch, Kind: t.kind, Status: StatusFailed, Err: ErrQueueFull})
	}
	return epoch
}

// Cancel marks the slot's pending task for cancellation and bumps the
// epoch so that any in-flight result is dropped on arrival. Cancelled
// tasks report no outcome.
func (d *Dispatcher) Cancel(slot Slot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.slots[slot]
	if !ok {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.epoch++
	s.pending = s.pending[:0]
}

// CurrentEpoch returns the slot's authoritative epoch.
func (d *Dispatcher) CurrentEpoch(slot Slot) Epoch {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.slots[slot]; ok {
		return s.epoch
	}
	return 0
}

// PollCompleted drains buffered outcomes. It never blocks, returns at
// most PollBudget outcomes, and preserves delivery order within each
// slot. Stale outcomes have already been discarded at delivery time.
func (d *Dispatcher) PollCompleted() []Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]Slot, 0, len(d.slots))
	for name, s := range d.slots {
		if len(s.pending) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	budget := d.config.PollBudget
	var out []Outcome
	for _, name := range names {
		s := d.slots[name]
		n := len(s.pending)
		if n > budget-len(out) {
			n = budget - len(out)
		}
		out = append(out, s.pending[:n]...)
		s.pending = append(s.pending[:0], s.pending[n:]...)
		if len(out) >= budget {
			break
		}
	}
	return out
}

// deliver buffers an outcome for its slot, dropping it if the slot
// has moved on to a newer epoch. This check closes the race where
// cancellation lands after a result is already in flight.
func (d *Dispatcher) deliver(o Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.slot(o.Slot)
	if o.Epoch != s.epoch {
		d.droppedStale.Add(1)
		return
	}
	if len(s.pending) >= d.config.PendingPerSlot {
		// Keep the newest; a flooding stream should not pin memory.
		copy(s.pending, s.pending[1:])
		s.pending = s.pending[:len(s.pending)-1]
	}
	s.pending = append(s.pending, o)
}

// slot returns the state for a slot, creating it on first use.
// Callers must hold d.mu.
func (d *Dispatcher) slot(name Slot) *slotState {
	s, ok := d.slots[name]
	if !ok {
		s = &slotState{}
		d.slots[name] = s
	}
	return s
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case t := <-d.queue:
			d.run(t)
		case <-d.baseCtx.Done():
			return
		}
	}
}

func (d *Dispatcher) run(t *task) {
	defer t.cancel()

	if t.ctx.Err() != nil {
		// Superseded while queued: abandon without reporting.
		d.cancelled.Add(1)
		return
	}

	if t.kind == KindStream {
		d.runStream(t)
		return
	}

	value, err := d.runOnce(t)
	latency := time.Since(t.submitted)

	if t.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		d.cancelled.Add(1)
		return
	}
	if err != nil {
		d.failed.Add(1)
		d.deliver(Outcome{TaskID: t.id, Slot: t.slot, Epoch: t.epoch, Kind: t.kind, Status: StatusFailed, Err: err, Latency: latency})
		return
	}
	d.completed.Add(1)
	d.deliver(Outcome{TaskID: t.id, Slot: t.slot, Epoch: t.epoch, Kind: t.kind, Status: StatusCompleted, Value: value, Latency: latency})
}

// runOnce executes a one-shot operation, retrying transient failures
// of read-only operations with exponential backoff. Writes get
// exactly one attempt.
func (d *Dispatcher) runOnce(t *task) (any, error) {
	if t.kind != KindRead || d.config.Retryable == nil || d.config.MaxRetries <= 0 {
		return t.op(t.ctx)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.config.RetryInterval
	var value any
	err := backoff.Retry(func() error {
		v, opErr := t.op(t.ctx)
		if opErr == nil {
			value = v
			return nil
		}
		if errors.Is(opErr, context.Canceled) || !d.config.Retryable(opErr) {
			return backoff.Permanent(opErr)
		}
		return opErr
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(d.config.MaxRetries)), t.ctx))
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (d *Dispatcher) runStream(t *task) {
	push := func(v any) {
		d.pushes.Add(1)
		d.deliver(Outcome{TaskID: t.id, Slot: t.slot, Epoch: t.epoch, Kind: t.kind, Status: StatusPush, Value: v, Latency: time.Since(t.submitted)})
	}
	err := t.stream(t.ctx, push)

	if t.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		// Explicit cancel: silent, no outcome.
		d.cancelled.Add(1)
		return
	}
	if err == nil {
		// Streams do not complete on their own; the peer closed it.
		err = ErrStreamClosed
	}
	d.failed.Add(1)
	d.deliver(Outcome{TaskID: t.id, Slot: t.slot, Epoch: t.epoch, Kind: t.kind, Status: StatusFailed, Err: err, Latency: time.Since(t.submitted)})
}

// Stats is a point-in-time snapshot of dispatcher counters.
type Stats struct {
	Submitted    uint64
	Completed    uint64
	Failed       uint64
	Cancelled    uint64
	Pushes       uint64
	DroppedStale uint64
	DroppedFull  uint64
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted:    d.submitted.Load(),
		Completed:    d.completed.Load(),
		Failed:       d.failed.Load(),
		Cancelled:    d.cancelled.Load(),
		Pushes:       d.pushes.Load(),
		DroppedStale: d.droppedStale.Load(),
		DroppedFull:  d.droppedFull.Load(),
	}
}
