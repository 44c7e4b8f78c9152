package compute

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest index range worth handing to its own goroutine.
const minChunk = 64

type CPUBackend struct {
	workers int
}

func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string { return fmt.Sprintf("cpu (%d lanes)", c.workers) }
func (c *CPUBackend) Lanes() int   { return c.workers }

func (c *CPUBackend) Dispatch(n int, fn func(i int)) error {
	if n <= 0 {
		return nil
	}
	if n < 2*minChunk || c.workers == 1 {
		return runChunk(0, n, fn)
	}

	workers := c.workers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			return runChunk(start, end, fn)
		})
	}
	return g.Wait()
}

// SerialBackend runs every index on the calling goroutine in ascending order.
type SerialBackend struct{}

func NewSerialBackend() *SerialBackend { return &SerialBackend{} }

func (SerialBackend) Name() string { return "serial" }
func (SerialBackend) Lanes() int   { return 1 }

func (SerialBackend) Dispatch(n int, fn func(i int)) error {
	return runChunk(0, n, fn)
}
