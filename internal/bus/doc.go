// Package bus applies completed task outcomes to UI-visible state,
// once per render tick.
//
// Tick drains the dispatcher's outcome queue (bounded per call) and
// routes each outcome to its slot's owner. Stale epochs were already
// dropped at delivery; the owners double-check before applying, so a
// superseded result can never overwrite newer state. Tick also
// produces the per-tick snapshots the UI renders from and maintains
// the transient toast queue.
//
// Nothing in this package blocks. The render loop calls Tick and
// renders; all I/O stays on dispatcher workers.
package bus
