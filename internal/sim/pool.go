package sim

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// SnapshotPool recycles position buffers handed to renderers and streams
// that must outlive a single tick.
type SnapshotPool struct {
	pool sync.Pool
	size int
}

func NewSnapshotPool(size int) *SnapshotPool {
	return &SnapshotPool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]r3.Vec, size)
			},
		},
	}
}

func (p *SnapshotPool) Get() []r3.Vec {
	return p.pool.Get().([]r3.Vec)
}

func (p *SnapshotPool) Put(s []r3.Vec) {
	if len(s) == p.size {
		clear(s)
		p.pool.Put(s)
	}
}

func (p *SnapshotPool) GetAndCopy(src []r3.Vec) []r3.Vec {
	dst := p.Get()
	copy(dst, src)
	return dst
}
