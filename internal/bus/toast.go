package bus

import "time"

// ToastTTL is how long a notification stays visible.
const ToastTTL = 4 * time.Second

// ToastKind grades a notification.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastWarn
	ToastError
)

func (k ToastKind) String() string {
	switch k {
	case ToastInfo:
		return "info"
	case ToastWarn:
		return "warn"
	case ToastError:
		return "error"
	default:
		return "unknown"
	}
}

// Toast is one transient notification.
type Toast struct {
	Kind    ToastKind
	Title   string
	Text    string
	Expires time.Time
}

// Event is a coarse application-level signal routed outside the
// normal outcome flow.
type Event int

const (
	EventExit Event = iota
	EventRestart
	EventClientChanged
)
