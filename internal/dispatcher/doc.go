// Package dispatcher owns the bounded pool of workers that execute
// backend operations on behalf of the UI components.
//
// Work is organized into slots: a slot is a logical purpose line
// ("explorer scan", "console exec", ...) that holds at most one
// authoritative task at a time. Every submission to a slot increments
// that slot's epoch and cancels whatever was pending before it, so a
// result is only ever applied if it still carries the slot's current
// epoch when it is drained. The render loop drains completed outcomes
// once per tick via PollCompleted, which never blocks.
package dispatcher
