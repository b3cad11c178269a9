// Package viz renders a running particle experiment in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one experiment, stepping it at 60 Hz
//   - [Picker]: preset menu and parameter editor in front of a [Model]
//   - [Canvas]: braille sub-pixel canvas with per-cell color
//   - Theme selection with 5 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	N     - Single step while paused
//	S     - Spawn a burst of particles
//	R     - Rebuild the experiment from its config
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// # Recording
//
// Frames captured while recording are written as an animated GIF to the
// current directory when recording stops or the view quits.
package viz
