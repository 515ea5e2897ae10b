// Package tui draws the per-tick frame onto a tcell screen.
//
// Rendering is pure: Render takes the frame the bus produced plus
// the widget state the app owns, and paints. It holds no references
// into component state and performs no I/O besides the screen.
package tui
