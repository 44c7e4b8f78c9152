package particle

// Kernel is one data-parallel computation applied to a single particle.
// Apply must only be called with 0 <= i < s.Len() and must not assume any
// ordering relative to other indices of the same dispatch.
type Kernel interface {
	Name() string
	Apply(s *Store, p *Params, i int)
}

var (
	_ Kernel = InitKernel{}
	_ Kernel = ImpulseKernel{}
	_ Kernel = GravityKernel{}
	_ Kernel = CollisionKernel{}
	_ Kernel = MovementKernel{}
)
