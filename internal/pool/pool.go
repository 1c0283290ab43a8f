// Package pool provides bucketed sync.Pool instances for plane-sized byte
// buffers. Staging planes are allocated and dropped once per set, so
// recycling them keeps the steady-state allocation rate flat regardless of
// how many sets are in flight.
package pool

import "sync"

// Size classes. Frame planes range from a few KB (chroma of small frames)
// to tens of MB (full-HD RGBA staging), so the classes are coarser than a
// general-purpose allocator's.
const (
	Size4K  = 4096
	Size64K = 65536
	Size1M  = 1 << 20
	Size8M  = 8 << 20
	Size32M = 32 << 20
)

var sizes = [5]int{Size4K, Size64K, Size1M, Size8M, Size32M}

// bucketIndex returns the pool index for a given size.
func bucketIndex(size int) int {
	switch {
	case size <= Size4K:
		return 0
	case size <= Size64K:
		return 1
	case size <= Size1M:
		return 2
	case size <= Size8M:
		return 3
	default:
		return 4
	}
}

var pools [5]sync.Pool

func init() {
	for i := range pools {
		sz := sizes[i]
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
	}
}

// Get returns a byte slice of length size from the pool. The contents are
// unspecified; callers that need zeroed or 0xFF-filled planes must fill
// them. The caller must call Put when done.
func Get(size int) []byte {
	idx := bucketIndex(size)
	bp := pools[idx].Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		b = make([]byte, size)
		*bp = b
		return b
	}
	return b[:size]
}

// Put returns a byte slice to the pool. The slice must have been obtained
// from Get. Slices smaller than Size4K are not pooled.
func Put(b []byte) {
	c := cap(b)
	if c < Size4K {
		return
	}
	b = b[:c]
	pools[bucketIndex(c)].Put(&b)
}
