// Package console parses and executes interactive commands.
//
// Lines are tokenized with shell-style quoting, then dispatched:
// most commands run as a one-shot task on the exec slot, while
// subscribe, psubscribe and monitor open a long-lived stream on the
// stream slot that only ends when superseded, cancelled or the
// connection drops. Unknown commands are passed through to the
// backend untouched, which is authoritative on validity.
//
// clear and exit are handled locally and never reach the backend.
package console
