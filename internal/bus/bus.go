package bus

import (
	"bytes"
	"time"

	"github.com/honhimW/ratisui/internal/console"
	"github.com/honhimW/ratisui/internal/decode"
	"github.com/honhimW/ratisui/internal/dispatcher"
	"github.com/honhimW/ratisui/internal/explorer"
)

// maxConsoleLines bounds the console scrollback.
const maxConsoleLines = 2000

// ConsoleFrame is the per-tick console view.
type ConsoleFrame struct {
	History   []string
	Lines     []string
	Streaming bool
	StreamCmd string
}

// Frame is everything the UI needs to draw one tick.
type Frame struct {
	Explorer explorer.Snapshot
	Decoded  *decode.Result
	Console  ConsoleFrame
	Toasts   []Toast
}

// Bus owns the tick-time application of outcomes and the transient
// state around it. Methods must be called from the render loop
// goroutine; the events channel is the only concurrency-safe entry.
type Bus struct {
	d       *dispatcher.Dispatcher
	scanner *explorer.Scanner
	session *console.Session
	chain   *decode.Chain

	consoleLines []string
	toasts       []Toast
	events       chan Event

	decoded    *decode.Result
	decodedKey string
	decodedRaw []byte

	now func() time.Time
}

// New wires the bus to the components whose outcomes it applies.
func New(d *dispatcher.Dispatcher, scanner *explorer.Scanner, session *console.Session, chain *decode.Chain) *Bus {
	return &Bus{
		d:       d,
		scanner: scanner,
		session: session,
		chain:   chain,
		events:  make(chan Event, 8),
		now:     time.Now,
	}
}

// Tick drains completed outcomes, applies them, and returns the
// frame to render. It never blocks.
func (b *Bus) Tick() Frame {
	for _, out := range b.d.PollCompleted() {
		b.apply(out)
	}
	b.pruneToasts()

	snap := b.scanner.Snapshot()
	b.decodeCurrent(snap.Current)

	streaming, streamCmd := b.session.Streaming()
	return Frame{
		Explorer: snap,
		Decoded:  b.decoded,
		Console: ConsoleFrame{
			History:   b.session.History().Entries(),
			Lines:     b.consoleLines,
			Streaming: streaming,
			StreamCmd: streamCmd,
		},
		Toasts: b.toasts,
	}
}

func (b *Bus) apply(out dispatcher.Outcome) {
	switch out.Slot {
	case dispatcher.SlotExplorerScan:
		if _, err := b.scanner.ApplyScan(out); err != nil {
			b.PublishToast(ToastError, "scan", err.Error())
		}
	case dispatcher.SlotExplorerKey:
		if err := b.scanner.ApplyKey(out); err != nil {
			b.PublishToast(ToastError, "key", err.Error())
		}
	case dispatcher.SlotConsoleExec:
		if res := b.session.ApplyExec(out); res != nil {
			b.appendConsole(res.Lines...)
			b.appendConsole("took " + res.Latency)
		}
	case dispatcher.SlotConsoleStream:
		line, err := b.session.ApplyStream(out)
		if err != nil {
			b.PublishToast(ToastWarn, "stream", err.Error())
			b.appendConsole("(stream closed) " + err.Error())
			return
		}
		if line != "" {
			b.appendConsole(line)
		}
	}
}

// decodeCurrent runs the decoder chain over the selected key's raw
// value, once per value. Reloading a key whose bytes changed
// recomputes the decode; same key, same bytes is a no-op. A hex
// fallback raises an informational toast so the operator knows the
// bytes resisted every decoder.
func (b *Bus) decodeCurrent(view *explorer.KeyView) {
	if view == nil || view.Raw == nil {
		b.decoded = nil
		b.decodedKey = ""
		b.decodedRaw = nil
		return
	}
	if view.Key == b.decodedKey && bytes.Equal(view.Raw, b.decodedRaw) {
		return
	}
	res := b.chain.Decode(view.Raw)
	b.decoded = &res
	b.decodedKey = view.Key
	b.decodedRaw = append([]byte(nil), view.Raw...)
	if res.Fallback {
		b.PublishToast(ToastInfo, "decode", "value rendered as hex: no decoder matched")
	}
}

func (b *Bus) appendConsole(lines ...string) {
	b.consoleLines = append(b.consoleLines, lines...)
	if n := len(b.consoleLines); n > maxConsoleLines {
		b.consoleLines = b.consoleLines[n-maxConsoleLines:]
	}
}

// ClearConsole drops the scrollback, for the local clear command.
func (b *Bus) ClearConsole() {
	b.consoleLines = nil
}

// PublishToast queues a transient notification.
func (b *Bus) PublishToast(kind ToastKind, title, text string) {
	b.toasts = append(b.toasts, Toast{
		Kind:    kind,
		Title:   title,
		Text:    text,
		Expires: b.now().Add(ToastTTL),
	})
}

func (b *Bus) pruneToasts() {
	now := b.now()
	kept := b.toasts[:0]
	for _, t := range b.toasts {
		if t.Expires.After(now) {
			kept = append(kept, t)
		}
	}
	b.toasts = kept
}

// Publish sends an application event. Drops the event rather than
// blocking when the channel is full.
func (b *Bus) Publish(e Event) {
	select {
	case b.events <- e:
	default:
	}
}

// Events exposes the application event stream.
func (b *Bus) Events() <-chan Event { return b.events }
