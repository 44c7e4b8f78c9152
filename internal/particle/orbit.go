package particle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OrbitCenter is the planet center at time t when it circles the origin in
// the XZ plane at twice its size.
func OrbitCenter(planetSize, t float64) r3.Vec {
	r := planetSize * 2
	return r3.Vec{X: r * math.Sin(t), Z: r * math.Cos(t)}
}
