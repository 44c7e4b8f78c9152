package particle

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Store owns the particle buffers. Particle i lives at index i of every
// buffer; the buffers are allocated once and never resized.
type Store struct {
	pos []r3.Vec
	vel []r3.Vec
	col []r3.Vec
}

func NewStore(n int) (*Store, error) {
	if n <= 0 {
		return nil, ErrInvalidCount
	}
	return &Store{
		pos: make([]r3.Vec, n),
		vel: make([]r3.Vec, n),
		col: make([]r3.Vec, n),
	}, nil
}

func (s *Store) Len() int { return len(s.pos) }

// Positions returns the live position buffer. Callers must not write to it.
func (s *Store) Positions() []r3.Vec { return s.pos }

// Colors returns the live color buffer. Callers must not write to it.
func (s *Store) Colors() []r3.Vec { return s.col }

// Buffers exposes position, velocity and color for compute backends that
// move whole buffers at once. Nothing outside a backend may use it.
func (s *Store) Buffers() (pos, vel, col []r3.Vec) { return s.pos, s.vel, s.col }

// Speed returns the velocity magnitude of particle i.
func (s *Store) Speed(i int) float64 { return r3.Norm(s.vel[i]) }

// Place overwrites the position and velocity of particle i. It exists for
// scripted scenarios; kernels never call it.
func (s *Store) Place(i int, pos, vel r3.Vec) {
	s.pos[i] = pos
	s.vel[i] = vel
}

// Finite reports whether every position and velocity is free of NaN/Inf.
func (s *Store) Finite() bool {
	for i := range s.pos {
		if !IsFinite(s.pos[i]) || !IsFinite(s.vel[i]) {
			return false
		}
	}
	return true
}
