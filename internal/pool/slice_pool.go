// Package pool provides sync.Pool-backed scratch slices for the per-row work of
// the expectation step.
package pool

import "sync"

var (
	float64SlicePool = sync.Pool{
		New: func() any { return &[]float64{} },
	}
	intSlicePool = sync.Pool{
		New: func() any { return &[]int{} },
	}
)

// GetFloat64Slice retrieves a zeroed float64 slice of length size from the pool.
//
// The caller must call the returned cleanup function to return the slice to the
// pool and must not keep references to the slice afterwards.
//
// Example:
//
//	buf, release := pool.GetFloat64Slice(len(row))
//	defer release()
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	slice := *ptr

	if cap(slice) < size {
		slice = make([]float64, size)
	} else {
		slice = slice[:size]
		clear(slice)
	}
	*ptr = slice

	return slice, func() { float64SlicePool.Put(ptr) }
}

// GetIntSlice retrieves an empty int slice with capacity for at least size
// elements. It is used for collecting positions of missing cells.
func GetIntSlice(size int) ([]int, func()) {
	ptr, _ := intSlicePool.Get().(*[]int)
	slice := *ptr

	if cap(slice) < size {
		slice = make([]int, 0, size)
	} else {
		slice = slice[:0]
	}
	*ptr = slice

	return slice, func() { intSlicePool.Put(ptr) }
}
