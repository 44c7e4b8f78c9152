// Package viz renders the particle cloud in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [RunInteractive]: preset menu, setup screen, then the live view
//   - [Model]: live view driving a driver.Driver at a fixed frame rate
//   - [Canvas]: braille pixel canvas with per-cell color
//   - [Camera]: orbiting perspective projection and its inverse for clicks
//
// # Key Bindings
//
//	Space   - Pause/Resume simulation
//	I/Click - Impulse at the planet
//	C       - Toggle collisions
//	O       - Toggle planet orbit
//	WASD    - Rotate camera
//	↑↓ ←→   - Select and adjust parameters
//	R       - Reset the cloud
//	G       - Toggle GIF recording
//	?       - Show help overlay
//
// The live view starts paused; space starts the clock.
package viz
