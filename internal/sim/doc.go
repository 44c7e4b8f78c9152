// Package sim drives the particle kernels over a compute backend.
//
// A [Simulator] owns the particle store and exposes the operations a frame
// driver needs:
//
//   - Initialize: allocate N particles and run the init kernel once
//   - Tick: one integration step, optionally preceded by collision passes
//   - ApplyImpulse: one-shot radial push from an impact point
//   - Positions / Colors: read access for renderers
//
// # Example
//
//	s := sim.New(compute.GetBackend())
//	_ = s.Initialize(2000, sim.DefaultInitConfig())
//	p := particle.DefaultParams()
//	_ = s.Tick(&p)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Kernels run in parallel inside a
// call, but calls themselves must be serialized by the driver.
package sim
