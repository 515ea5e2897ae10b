package backend

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
)

// Backend errors.
var (
	// ErrNotConnected indicates no data source is open.
	ErrNotConnected = errors.New("backend: not connected")

	// ErrSubscriptionClosed indicates the server closed a push stream.
	ErrSubscriptionClosed = errors.New("backend: subscription closed by server")
)

// ErrorKind partitions backend failures for the caller's policy:
// connection errors are transient and reads may be retried; protocol
// errors are operation-fatal and reported once.
type ErrorKind int

const (
	// ErrorKindNone means no error.
	ErrorKindNone ErrorKind = iota
	// ErrorKindConnection is a transport-level failure.
	ErrorKindConnection
	// ErrorKindProtocol is a server-reported command failure.
	ErrorKindProtocol
)

// Classify maps an error to its kind. Cancellation is neither.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindNone
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorKindConnection
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrorKindConnection
	}
	msg := err.Error()
	for _, hint := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no route to host",
		"client is closed",
	} {
		if strings.Contains(msg, hint) {
			return ErrorKindConnection
		}
	}
	return ErrorKindProtocol
}

// IsTransient reports whether err warrants a bounded retry of a
// read-only operation.
func IsTransient(err error) bool {
	return Classify(err) == ErrorKindConnection
}
