// Package backend is the connection manager for the Redis data
// source. It hides the standalone-versus-cluster distinction behind a
// single client, classifies errors for the dispatcher's retry policy,
// and exposes the streaming commands (SUBSCRIBE, PSUBSCRIBE, MONITOR)
// as cancellable push loops.
package backend
