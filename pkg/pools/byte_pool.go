// Package pools reuses the byte buffers that encoded frames are built in.
package pools

import "sync"

// Size classes, sized for encoded layout frames.
const (
	SmallSize  = 4 << 10
	MediumSize = 16 << 10
	LargeSize  = 64 << 10
	HugeSize   = 256 << 10
	MaxPool    = 1 << 20 // larger buffers are left to the GC
)

var classes = [...]int{SmallSize, MediumSize, LargeSize, HugeSize, MaxPool}

// BytePool pools byte slices by size class.
type BytePool struct {
	pools [len(classes)]sync.Pool
}

// NewBytePool creates an empty pool.
func NewBytePool() *BytePool {
	p := &BytePool{}
	for i, size := range classes {
		p.pools[i].New = func() any {
			b := make([]byte, 0, size)
			return &b
		}
	}
	return p
}

func classFor(size int) int {
	for i, c := range classes {
		if size <= c {
			return i
		}
	}
	return -1
}

// Get returns a zero-length slice with at least size capacity.
func (p *BytePool) Get(size int) []byte {
	i := classFor(size)
	if i < 0 {
		return make([]byte, 0, size)
	}
	bp, ok := p.pools[i].Get().(*[]byte)
	if !ok || cap(*bp) < size {
		return make([]byte, 0, classes[i])
	}
	return (*bp)[:0]
}

// GetSized returns a slice of exactly size bytes.
func (p *BytePool) GetSized(size int) []byte {
	return p.Get(size)[:size]
}

// Put returns b for reuse. It is filed under the largest class its
// capacity satisfies, so Get never hands out a short buffer.
func (p *BytePool) Put(b []byte) {
	c := cap(b)
	if c < SmallSize || c > MaxPool {
		return
	}
	i := len(classes) - 1
	for i > 0 && classes[i] > c {
		i--
	}
	b = b[:0]
	p.pools[i].Put(&b)
}

var defaultBytePool = NewBytePool()

// GetBytes takes a buffer from the default pool.
func GetBytes(size int) []byte {
	return defaultBytePool.Get(size)
}

// PutBytes returns a buffer to the default pool.
func PutBytes(b []byte) {
	defaultBytePool.Put(b)
}
