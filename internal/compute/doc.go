// Package compute provides the execution lanes that kernels are dispatched on.
//
// A [Backend] runs one unit of work per index and returns only after every
// unit has finished. That return is the only synchronization point between
// kernel phases:
//
//   - CPU: chunks the index range across runtime.NumCPU() goroutines
//   - Serial: a single lane in index order, for reproducible runs
//
// # Usage
//
//	backend := compute.GetBackend()
//	err := backend.Dispatch(n, func(i int) { kernel.Apply(store, params, i) })
package compute
