// Package viz provides the interactive terminal view of a running lattice.
//
// [Model] is a Bubble Tea program that advances the simulation one sweep per
// frame and draws the spins next to a magnetisation history chart.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to the initial lattice and seed
//	Tab   - Select beta or h
//	Up/K  - Increase the selected parameter
//	Down/J- Decrease the selected parameter
//	[ ]   - Step back and forth through recent sweeps
//	T     - Cycle colour themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// Changing a parameter rebuilds the driver on the current lattice, so the
// system relaxes from where it is rather than from the initial state.
package viz
