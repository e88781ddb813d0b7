// Package cluster fans a search across processes. Rank 0 hosts a
// websocket hub; the other ranks dial it. The Collective primitives
// follow MPI semantics: every rank calls the same operations in the
// same order, and each call completes on all ranks or fails on all.
package cluster

// Collective is the message-passing runtime the coordinator consumes.
// Any returned error is terminal for the search: optimality needs
// exhaustive coverage, so partial progress is worthless.
type Collective interface {
	Rank() int
	Size() int
	// AllReduceMin returns the minimum of every rank's v.
	AllReduceMin(v int64) (int64, error)
	// AllReduceMax returns the maximum of every rank's v.
	AllReduceMax(v int64) (int64, error)
	// AllReduceSum returns the sum of every rank's v.
	AllReduceSum(v int64) (int64, error)
	// Broadcast distributes root's vals to every rank. All ranks must
	// pass slices of the same length.
	Broadcast(root int, vals []int64) ([]int64, error)
	Barrier() error
	Close() error
}

// Single is the degenerate single-process collective: every operation
// is a local no-op.
type Single struct{}

func (Single) Rank() int { return 0 }

func (Single) Size() int { return 1 }

func (Single) AllReduceMin(v int64) (int64, error) { return v, nil }

func (Single) AllReduceMax(v int64) (int64, error) { return v, nil }

func (Single) AllReduceSum(v int64) (int64, error) { return v, nil }

func (Single) Broadcast(root int, vals []int64) ([]int64, error) { return vals, nil }

func (Single) Barrier() error { return nil }

func (Single) Close() error { return nil }
