package gemmbench

import (
	"fmt"
	"math"
	"sync"
)

// MemoryPool hands out device buffers and enforces an optional byte budget.
// It tracks live and peak usage so a run can report its footprint.
type MemoryPool struct {
	mu         sync.Mutex
	limit      int64
	allocated  map[*Matrix]int64
	totalAlloc int64
	peakAlloc  int64
}

// NewMemoryPool creates a pool that refuses allocations beyond limit bytes.
// A limit of zero or less disables the budget.
func NewMemoryPool(limit int64) *MemoryPool {
	return &MemoryPool{
		limit:     limit,
		allocated: make(map[*Matrix]int64),
	}
}

// Allocate returns a zeroed rows×cols matrix of the given element type.
//
// Example:
//
//	c, err := pool.Allocate(2, 4096, gemmbench.Float16)
//	if err != nil {
//		return err
//	}
//	defer pool.Release(c)
func (mp *MemoryPool) Allocate(rows, cols int, dtype DType) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, NewShapeError("Allocate", fmt.Sprintf("buffer dimensions must be positive, got %dx%d", rows, cols))
	}
	if int64(rows) > math.MaxInt64/int64(cols)/int64(dtype.Size()) {
		return nil, NewAllocationError("Allocate", fmt.Sprintf("%dx%d %s buffer overflows the address space", rows, cols, dtype), nil)
	}

	// Round up to alignment
	size := int64(rows) * int64(cols) * int64(dtype.Size())
	aligned := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.limit > 0 && mp.totalAlloc+aligned > mp.limit {
		return nil, NewAllocationError("Allocate",
			fmt.Sprintf("%dx%d %s buffer needs %d bytes, %d of %d in use", rows, cols, dtype, aligned, mp.totalAlloc, mp.limit), nil)
	}

	m := newMatrix(rows, cols, dtype)
	mp.allocated[m] = aligned

	// Update tracking
	mp.totalAlloc += aligned
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}

	return m, nil
}

// Release returns a buffer's budget to the pool. The matrix must not be
// used afterwards. Releasing nil is a no-op.
func (mp *MemoryPool) Release(m *Matrix) error {
	if m == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	size, ok := mp.allocated[m]
	if !ok {
		return ErrDoubleRelease
	}
	delete(mp.allocated, m)
	mp.totalAlloc -= size
	return nil
}

// GetStats returns memory pool statistics
func (mp *MemoryPool) GetStats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// Live returns the number of outstanding buffers.
func (mp *MemoryPool) Live() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.allocated)
}
