package cryptoauth

import "github.com/moffa90/go-cryptoauth/host"

// PacketAllocator hands out scratch buffers for framed commands. Every
// acquired buffer is released exactly once, on every exit path.
type PacketAllocator interface {
	// Acquire returns a buffer with capacity for at least size bytes
	Acquire(size int) ([]byte, error)

	// Release returns a buffer obtained from Acquire
	Release(buf []byte)
}

// HeapAllocator allocates scratch buffers on the heap and wipes them on
// release.
type HeapAllocator struct{}

// Acquire allocates a zero-length buffer of the requested capacity.
func (HeapAllocator) Acquire(size int) ([]byte, error) {
	return make([]byte, 0, size), nil
}

// Release zeroes the buffer.
func (HeapAllocator) Release(buf []byte) {
	host.Zero(buf[:cap(buf)])
}
