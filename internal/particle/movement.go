package particle

// MovementKernel is the slot for position-only integration that runs apart
// from GravityKernel. It currently leaves the particle untouched.
type MovementKernel struct{}

func (MovementKernel) Name() string { return "movement" }

func (MovementKernel) Apply(*Store, *Params, int) {}
