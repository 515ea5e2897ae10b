// Package explorer enumerates the keyspace incrementally and keeps
// the result in a prefix tree.
//
// A scan walks the backend with SCAN batches submitted through the
// dispatcher, one batch in flight at a time: batch N+1 is only
// submitted after batch N's keys have been merged into the tree.
// Changing the server-side pattern restarts the scan under a new
// epoch; changing the client-side filter only changes a read-only
// view over the tree already built.
//
// The tree is owned exclusively by the Scanner. The render loop
// reads immutable snapshots taken once per tick.
package explorer
