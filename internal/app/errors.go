package app

import "errors"

var (
	// ErrQuit is returned by Run when the user exits normally.
	ErrQuit = errors.New("app: quit")

	// ErrNoScreen reports Run called before a screen was attached.
	ErrNoScreen = errors.New("app: no screen attached")
)
