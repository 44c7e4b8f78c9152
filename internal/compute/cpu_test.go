package compute

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestDispatchVisitsEveryIndexOnce(t *testing.T) {
	backends := []Backend{
		NewSerialBackend(),
		NewCPUBackend(1),
		NewCPUBackend(4),
		NewCPUBackend(0),
	}
	sizes := []int{0, 1, 63, 128, 129, 1000, 4099}

	for _, b := range backends {
		for _, n := range sizes {
			hits := make([]int32, n)
			err := b.Dispatch(n, func(i int) {
				atomic.AddInt32(&hits[i], 1)
			})
			if err != nil {
				t.Fatalf("%s: dispatch(%d) failed: %v", b.Name(), n, err)
			}
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("%s: n=%d index %d visited %d times", b.Name(), n, i, h)
				}
			}
		}
	}
}

func TestDispatchIsBarrier(t *testing.T) {
	b := NewCPUBackend(8)
	n := 10000
	var done int64

	if err := b.Dispatch(n, func(i int) { atomic.AddInt64(&done, 1) }); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if got := atomic.LoadInt64(&done); got != int64(n) {
		t.Errorf("dispatch returned with %d of %d units finished", got, n)
	}
}

func TestSerialOrder(t *testing.T) {
	var order []int
	if err := NewSerialBackend().Dispatch(5, func(i int) { order = append(order, i) }); err != nil {
		t.Fatal(err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("serial order broken: %v", order)
		}
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	for _, b := range []Backend{NewSerialBackend(), NewCPUBackend(4)} {
		err := b.Dispatch(1000, func(i int) {
			if i == 777 {
				panic("boom")
			}
		})
		if !errors.Is(err, ErrKernelPanic) {
			t.Errorf("%s: expected ErrKernelPanic, got %v", b.Name(), err)
		}
	}
}

func TestAutoSelectBackend(t *testing.T) {
	if b := AutoSelectBackend(1); b.Lanes() != 1 || b.Name() != "serial" {
		t.Errorf("expected serial backend, got %s", b.Name())
	}
	if b := AutoSelectBackend(3); b.Lanes() != 3 {
		t.Errorf("expected 3 lanes, got %d", b.Lanes())
	}
	if GetBackend() == nil {
		t.Error("no default backend")
	}
}

func BenchmarkDispatchCPU(b *testing.B) {
	backend := NewCPUBackend(0)
	data := make([]float64, 100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = backend.Dispatch(len(data), func(j int) { data[j] += 1 })
	}
}

func TestSelectBackend(t *testing.T) {
	tests := []struct {
		name  string
		lanes int
	}{
		{"", 3},
		{"cpu", 3},
		{"serial", 1},
	}
	for _, tt := range tests {
		b, err := SelectBackend(tt.name, 3)
		if err != nil {
			t.Fatalf("SelectBackend(%q): %v", tt.name, err)
		}
		if b.Lanes() != tt.lanes {
			t.Errorf("SelectBackend(%q): %d lanes, want %d", tt.name, b.Lanes(), tt.lanes)
		}
	}

	if _, err := SelectBackend("cuda", 0); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}
