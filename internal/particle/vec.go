package particle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Normalize returns the unit vector colinear to v. The zero vector
// normalizes to the zero vector instead of NaN.
func Normalize(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Vec{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// Reflect mirrors v about the surface normal n: v - 2·dot(v,n)·n.
func Reflect(v, n r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(2*r3.Dot(v, n), n))
}

// IsFinite reports whether no component of v is NaN or Inf.
func IsFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
