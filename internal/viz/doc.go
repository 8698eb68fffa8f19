// Package viz provides terminal-based visualization for the particle engine.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live viewer that steps an engine.Context and plots telemetry
//   - [Canvas]: Braille-based pixel canvas for high-fidelity rendering
//   - [DrawFrame]: paints bodies, springs and constraints of a frame
//   - Theme selection with 4 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	B/C/S - Drop a body, spring cluster or soft body
//	E     - Toggle the center emitter
//	[ ]   - Shrink/grow the scene
//	T     - Cycle color themes
//	R     - Toggle GIF recording
//	?     - Show help overlay
//
// Mouse clicks on the canvas drop a body (left) or a cluster (right).
package viz
