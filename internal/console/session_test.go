package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/honhimW/ratisui/internal/backend"
	"github.com/honhimW/ratisui/internal/dispatcher"
)

type fakeConsoleBackend struct {
	reply   any
	err     error
	flaky   int32 // fail this many calls with a transient error first
	calls   int32
	pushes  []string
	closeAt bool // return nil after pushes (peer closed)
}

func (f *fakeConsoleBackend) Execute(_ context.Context, args ...any) (any, error) {
	if atomic.AddInt32(&f.calls, 1) <= atomic.LoadInt32(&f.flaky) {
		return nil, io.EOF
	}
	return f.reply, f.err
}

func (f *fakeConsoleBackend) Subscribe(ctx context.Context, push func(backend.PushMessage), channels ...string) error {
	for _, p := range f.pushes {
		push(backend.PushMessage{Channel: channels[0], Payload: p})
	}
	if f.closeAt {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeConsoleBackend) PSubscribe(ctx context.Context, push func(backend.PushMessage), patterns ...string) error {
	for _, p := range f.pushes {
		push(backend.PushMessage{Pattern: patterns[0], Channel: "ch", Payload: p})
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeConsoleBackend) Monitor(ctx context.Context, push func(string)) error {
	for _, p := range f.pushes {
		push(p)
	}
	<-ctx.Done()
	return ctx.Err()
}

func newTestSession(t *testing.T, fb *fakeConsoleBackend, opts ...dispatcher.Option) (*Session, *dispatcher.Dispatcher) {
	t.Helper()
	d := dispatcher.New(opts...)
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})
	return NewSession(d, fb, 10), d
}

func drainSlot(t *testing.T, d *dispatcher.Dispatcher, slot dispatcher.Slot, n int) []dispatcher.Outcome {
	t.Helper()
	var outs []dispatcher.Outcome
	deadline := time.Now().Add(5 * time.Second)
	for len(outs) < n {
		if time.Now().After(deadline) {
			t.Fatalf("got %d outcomes on %s, want %d", len(outs), slot, n)
		}
		for _, o := range d.PollCompleted() {
			if o.Slot == slot {
				outs = append(outs, o)
			}
		}
		time.Sleep(time.Millisecond)
	}
	return outs
}

func TestSubmitLineExecutesCommand(t *testing.T) {
	fb := &fakeConsoleBackend{reply: "PONG"}
	s, d := newTestSession(t, fb)

	sub, err := s.SubmitLine("PING")
	if err != nil {
		t.Fatalf("SubmitLine: %v", err)
	}
	if sub.Slot != dispatcher.SlotConsoleExec || sub.Streaming {
		t.Errorf("Submission = %+v", sub)
	}

	out := drainSlot(t, d, dispatcher.SlotConsoleExec, 1)[0]
	res := s.ApplyExec(out)
	if res == nil || !res.Success {
		t.Fatalf("ApplyExec = %+v", res)
	}
	if len(res.Lines) != 1 || res.Lines[0] != "PONG" {
		t.Errorf("Lines = %v", res.Lines)
	}
	if s.LastResult() != res {
		t.Error("LastResult not updated")
	}
}

func TestSubmitLineUnknownCommandPassesThrough(t *testing.T) {
	fb := &fakeConsoleBackend{err: errors.New("ERR unknown command 'FROB'")}
	s, d := newTestSession(t, fb)

	if _, err := s.SubmitLine("FROB a b"); err != nil {
		t.Fatalf("unknown command rejected locally: %v", err)
	}
	out := drainSlot(t, d, dispatcher.SlotConsoleExec, 1)[0]
	res := s.ApplyExec(out)
	if res.Success || res.Err == nil {
		t.Errorf("ApplyExec = %+v, want failure from backend", res)
	}
}

func TestSubmitLineLocalCommands(t *testing.T) {
	fb := &fakeConsoleBackend{}
	s, _ := newTestSession(t, fb)
	sub, err := s.SubmitLine("clear")
	if err != nil || sub.Local != LocalClear {
		t.Errorf("clear = %+v %v", sub, err)
	}
	sub, err = s.SubmitLine("exit")
	if err != nil || sub.Local != LocalExit {
		t.Errorf("exit = %+v %v", sub, err)
	}
	if calls := atomic.LoadInt32(&fb.calls); calls != 0 {
		t.Errorf("local commands reached backend: %d", calls)
	}
}

func TestSubmitLineEmptyIsNoop(t *testing.T) {
	s, _ := newTestSession(t, &fakeConsoleBackend{})
	sub, err := s.SubmitLine("   ")
	if err != nil || sub != (Submission{}) {
		t.Errorf("empty line = %+v %v", sub, err)
	}
	if s.History().Len() != 0 {
		t.Error("empty line entered history")
	}
}

func TestSubmitLineRecordsHistory(t *testing.T) {
	s, _ := newTestSession(t, &fakeConsoleBackend{})
	_, _ = s.SubmitLine("GET a")
	_, _ = s.SubmitLine("GET a")
	_, _ = s.SubmitLine("GET b")
	if s.History().Len() != 2 {
		t.Errorf("history = %v", s.History().Entries())
	}
}

func TestSubscribeStreamsPushes(t *testing.T) {
	fb := &fakeConsoleBackend{pushes: []string{"m1", "m2"}}
	s, d := newTestSession(t, fb)

	sub, err := s.SubmitLine("SUBSCRIBE news")
	if err != nil {
		t.Fatalf("SubmitLine: %v", err)
	}
	if !sub.Streaming || sub.Slot != dispatcher.SlotConsoleStream {
		t.Fatalf("Submission = %+v", sub)
	}

	outs := drainSlot(t, d, dispatcher.SlotConsoleStream, 2)
	for i, out := range outs {
		if out.Epoch != sub.Epoch {
			t.Errorf("push %d epoch = %d, want %d", i, out.Epoch, sub.Epoch)
		}
		line, err := s.ApplyStream(out)
		if err != nil {
			t.Fatalf("ApplyStream: %v", err)
		}
		if !strings.HasPrefix(line, "news: ") {
			t.Errorf("line = %q", line)
		}
	}
	if live, cmd := s.Streaming(); !live || cmd != "SUBSCRIBE news" {
		t.Errorf("Streaming = %v %q", live, cmd)
	}
	s.CancelStream()
	if live, _ := s.Streaming(); live {
		t.Error("stream still live after cancel")
	}
}

func TestPeerClosedStreamFailsOnce(t *testing.T) {
	fb := &fakeConsoleBackend{closeAt: true}
	s, d := newTestSession(t, fb)

	if _, err := s.SubmitLine("SUBSCRIBE gone"); err != nil {
		t.Fatalf("SubmitLine: %v", err)
	}
	out := drainSlot(t, d, dispatcher.SlotConsoleStream, 1)[0]
	if out.Status != dispatcher.StatusFailed {
		t.Fatalf("Status = %v, want failed", out.Status)
	}
	if _, err := s.ApplyStream(out); err == nil {
		t.Error("ApplyStream should surface stream loss")
	}
	if live, _ := s.Streaming(); live {
		t.Error("session should leave streaming state after failure")
	}
}

func TestNewStreamSupersedesOld(t *testing.T) {
	fb := &fakeConsoleBackend{pushes: []string{"x"}}
	s, _ := newTestSession(t, fb)

	first, _ := s.SubmitLine("SUBSCRIBE a")
	second, _ := s.SubmitLine("SUBSCRIBE b")
	if second.Epoch <= first.Epoch {
		t.Errorf("epochs: %d then %d", first.Epoch, second.Epoch)
	}
	stale := dispatcher.Outcome{
		Slot:   dispatcher.SlotConsoleStream,
		Epoch:  first.Epoch,
		Status: dispatcher.StatusPush,
		Value:  "old",
	}
	if line, _ := s.ApplyStream(stale); line != "" {
		t.Errorf("stale push applied: %q", line)
	}
}

func TestReadCommandRetriesTransientError(t *testing.T) {
	fb := &fakeConsoleBackend{reply: "v", flaky: 2}
	s, d := newTestSession(t, fb,
		dispatcher.WithRetry(3, time.Millisecond, backend.IsTransient))

	if _, err := s.SubmitLine("GET k"); err != nil {
		t.Fatalf("SubmitLine: %v", err)
	}
	out := drainSlot(t, d, dispatcher.SlotConsoleExec, 1)[0]
	if out.Status != dispatcher.StatusCompleted {
		t.Fatalf("Status = %v (%v), want completed after retries", out.Status, out.Err)
	}
	if atomic.LoadInt32(&fb.calls) != 3 {
		t.Errorf("calls = %d, want 3", fb.calls)
	}
}

func TestWriteCommandNeverRetried(t *testing.T) {
	fb := &fakeConsoleBackend{reply: "OK", flaky: 1}
	s, d := newTestSession(t, fb,
		dispatcher.WithRetry(3, time.Millisecond, backend.IsTransient))

	if _, err := s.SubmitLine("SET k v"); err != nil {
		t.Fatalf("SubmitLine: %v", err)
	}
	out := drainSlot(t, d, dispatcher.SlotConsoleExec, 1)[0]
	if out.Status != dispatcher.StatusFailed {
		t.Fatalf("Status = %v, want failed without retry", out.Status)
	}
	if atomic.LoadInt32(&fb.calls) != 1 {
		t.Errorf("calls = %d, want 1", fb.calls)
	}
}

func TestSubmitLineDecodesWrappedArgs(t *testing.T) {
	s, d := newTestSession(t, &fakeConsoleBackend{reply: "OK"})
	if _, err := s.SubmitLine("SET k base64#aGVsbG8=#"); err != nil {
		t.Fatalf("SubmitLine: %v", err)
	}
	drainSlot(t, d, dispatcher.SlotConsoleExec, 1)
}

func TestSubmitLineBadQuoteIsLocalError(t *testing.T) {
	s, _ := newTestSession(t, &fakeConsoleBackend{})
	if _, err := s.SubmitLine(`GET "oops`); !errors.Is(err, ErrUnterminatedQuote) {
		t.Errorf("err = %v", err)
	}
}
