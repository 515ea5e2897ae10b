package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/honhimW/ratisui/internal/backend"
	"github.com/honhimW/ratisui/internal/dispatcher"
)

// Backend is the slice of the connection manager the console needs.
// *backend.Client satisfies it.
type Backend interface {
	Execute(ctx context.Context, args ...any) (any, error)
	Subscribe(ctx context.Context, push func(backend.PushMessage), channels ...string) error
	PSubscribe(ctx context.Context, push func(backend.PushMessage), patterns ...string) error
	Monitor(ctx context.Context, push func(string)) error
}

// LocalAction is a command handled without touching the backend.
type LocalAction int

const (
	LocalNone LocalAction = iota
	LocalClear
	LocalExit
)

// Submission describes what SubmitLine did with a line.
type Submission struct {
	Local     LocalAction
	Slot      dispatcher.Slot
	Epoch     dispatcher.Epoch
	Streaming bool
}

// CommandResult is one finished exec-slot command.
type CommandResult struct {
	Success bool
	Latency string
	Lines   []string
	Err     error
}

// Session parses, executes and histories interactive commands for
// one connected data source. Methods must be called from the render
// loop goroutine.
type Session struct {
	d       *dispatcher.Dispatcher
	client  Backend
	history *History

	execEpoch   dispatcher.Epoch
	streamEpoch dispatcher.Epoch
	streaming   bool
	streamCmd   string

	last *CommandResult
}

// NewSession wires a session to its dispatcher and backend.
func NewSession(d *dispatcher.Dispatcher, client Backend, historySize int) *Session {
	return &Session{
		d:       d,
		client:  client,
		history: NewHistory(historySize),
	}
}

// History exposes the session's command history.
func (s *Session) History() *History { return s.history }

// SubmitLine parses and dispatches one command line. Unknown
// commands pass through to the backend; clear and exit stay local.
// Streaming commands supersede any stream already open.
func (s *Session) SubmitLine(line string) (Submission, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Submission{}, nil
	}
	s.history.Append(trimmed)

	args, err := SplitArgs(trimmed)
	if err != nil {
		return Submission{}, err
	}

	switch strings.ToLower(args[0]) {
	case "clear":
		return Submission{Local: LocalClear}, nil
	case "exit", "quit":
		return Submission{Local: LocalExit}, nil
	case "subscribe":
		if len(args) < 2 {
			return Submission{}, fmt.Errorf("console: subscribe needs at least one channel")
		}
		return s.submitStream(trimmed, s.subscribeOp(args[1:])), nil
	case "psubscribe":
		if len(args) < 2 {
			return Submission{}, fmt.Errorf("console: psubscribe needs at least one pattern")
		}
		return s.submitStream(trimmed, s.psubscribeOp(args[1:])), nil
	case "monitor":
		return s.submitStream(trimmed, s.monitorOp()), nil
	}

	cmd := make([]any, len(args))
	for i, a := range args {
		cmd[i] = DecodeArg(a)
	}
	kind := dispatcher.KindWrite
	if readOnly[strings.ToUpper(args[0])] {
		kind = dispatcher.KindRead
	}
	client := s.client
	s.execEpoch = s.d.Submit(dispatcher.SlotConsoleExec, kind,
		func(ctx context.Context) (any, error) {
			return client.Execute(ctx, cmd...)
		})
	return Submission{Slot: dispatcher.SlotConsoleExec, Epoch: s.execEpoch}, nil
}

// readOnly marks commands safe to retry transparently on transient
// connection errors. Anything not listed is treated as a write and
// fails once.
var readOnly = map[string]bool{
	"DBSIZE": true, "DUMP": true, "ECHO": true, "EXISTS": true,
	"GET": true, "GETRANGE": true, "HEXISTS": true, "HGET": true,
	"HGETALL": true, "HKEYS": true, "HLEN": true, "HMGET": true,
	"HVALS": true, "INFO": true, "KEYS": true, "LINDEX": true,
	"LLEN": true, "LRANGE": true, "MEMORY": true, "MGET": true,
	"OBJECT": true, "PING": true, "PTTL": true, "RANDOMKEY": true,
	"SCAN": true, "SCARD": true, "SISMEMBER": true, "SMEMBERS": true,
	"STRLEN": true, "TTL": true, "TYPE": true, "XLEN": true,
	"XRANGE": true, "XREVRANGE": true, "ZCARD": true, "ZCOUNT": true,
	"ZRANGE": true, "ZRANK": true, "ZSCORE": true,
}

func (s *Session) submitStream(cmd string, op dispatcher.StreamOperation) Submission {
	s.streamEpoch = s.d.SubmitStream(dispatcher.SlotConsoleStream, op)
	s.streaming = true
	s.streamCmd = cmd
	return Submission{
		Slot:      dispatcher.SlotConsoleStream,
		Epoch:     s.streamEpoch,
		Streaming: true,
	}
}

func (s *Session) subscribeOp(channels []string) dispatcher.StreamOperation {
	client := s.client
	return func(ctx context.Context, push func(any)) error {
		return client.Subscribe(ctx, func(m backend.PushMessage) {
			push(formatPush(m))
		}, channels...)
	}
}

func (s *Session) psubscribeOp(patterns []string) dispatcher.StreamOperation {
	client := s.client
	return func(ctx context.Context, push func(any)) error {
		return client.PSubscribe(ctx, func(m backend.PushMessage) {
			push(formatPush(m))
		}, patterns...)
	}
}

func (s *Session) monitorOp() dispatcher.StreamOperation {
	client := s.client
	return func(ctx context.Context, push func(any)) error {
		return client.Monitor(ctx, func(line string) {
			push(line)
		})
	}
}

func formatPush(m backend.PushMessage) string {
	if m.Pattern != "" {
		return m.Pattern + " " + m.Channel + ": " + m.Payload
	}
	return m.Channel + ": " + m.Payload
}

// CancelStream closes the live stream, if any. The dispatcher's
// epoch bump guarantees buffered pushes are dropped unseen.
func (s *Session) CancelStream() {
	if !s.streaming {
		return
	}
	s.d.Cancel(dispatcher.SlotConsoleStream)
	s.streaming = false
	s.streamCmd = ""
}

// Streaming reports whether a stream slot is live, and which command
// opened it.
func (s *Session) Streaming() (bool, string) { return s.streaming, s.streamCmd }

// ApplyExec turns a completed exec outcome into a CommandResult.
// Stale epochs return nil.
func (s *Session) ApplyExec(out dispatcher.Outcome) *CommandResult {
	if out.Slot != dispatcher.SlotConsoleExec || out.Epoch != s.execEpoch {
		return nil
	}
	res := &CommandResult{Latency: out.Latency.String()}
	if out.Status == dispatcher.StatusFailed {
		res.Err = out.Err
		res.Lines = []string{"(error) " + out.Err.Error()}
	} else {
		res.Success = true
		res.Lines = backend.RenderLines(out.Value)
	}
	s.last = res
	return res
}

// ApplyStream turns a stream outcome into display lines. A failed
// stream (peer closed, connection lost) ends the session's streaming
// state; resuming requires an explicit resubmission.
func (s *Session) ApplyStream(out dispatcher.Outcome) (string, error) {
	if out.Slot != dispatcher.SlotConsoleStream || out.Epoch != s.streamEpoch {
		return "", nil
	}
	if out.Status == dispatcher.StatusFailed {
		s.streaming = false
		s.streamCmd = ""
		return "", fmt.Errorf("console: stream: %w", out.Err)
	}
	line, _ := out.Value.(string)
	return line, nil
}

// LastResult returns the most recent exec result, if any.
func (s *Session) LastResult() *CommandResult { return s.last }
