// Package particle holds the particle buffers and the per-particle kernels
// that advance a dust cloud around a planet.
//
// The buffers live in a [Store]: three index-aligned arrays of position,
// velocity and color. Kernels implement [Kernel] and are applied to a single
// index at a time, so a dispatcher can fan them out over any number of lanes:
//
//   - [InitKernel]: seeds a hollow spherical shell of particles
//   - [ImpulseKernel]: radial push away from an impact point
//   - [GravityKernel]: integration, planet collision, speed clamp, damping
//   - [CollisionKernel]: all-pairs overlap correction
//   - [MovementKernel]: pass-through extension point
//
// # Concurrency
//
// Every kernel except [CollisionKernel] writes only the index it was given.
// CollisionKernel also writes the partner index and is therefore a
// best-effort correction when run on more than one lane: results are not
// bit-identical across runs, only the overlap shrinks over repeated ticks.
package particle
