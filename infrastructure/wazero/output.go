package wazero

import (
	"bytes"
	"sync"
)

// DefaultMaxOutputSize is the default limit for captured guest stdout/stderr
// per call (1MB).
const DefaultMaxOutputSize = 1 * 1024 * 1024

// BoundedBuffer is a bytes.Buffer wrapper that limits the size of written data.
// It implements io.Writer and is safe for concurrent use.
type BoundedBuffer struct {
	buffer    bytes.Buffer
	limit     int
	truncated bool
	mu        sync.Mutex
}

// NewBoundedBuffer creates a new BoundedBuffer with the specified limit.
func NewBoundedBuffer(limit int) *BoundedBuffer {
	return &BoundedBuffer{limit: limit}
}

// Write implements io.Writer.
// It writes data up to the limit and then silently discards any additional data.
func (b *BoundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.limit - b.buffer.Len()
	if remaining <= 0 {
		b.truncated = len(p) > 0 || b.truncated
		return len(p), nil // Pretend we wrote it all to satisfy io.Writer contract
	}
	if len(p) > remaining {
		b.truncated = true
		b.buffer.Write(p[:remaining])
		return len(p), nil
	}
	return b.buffer.Write(p)
}

// Drain returns the buffered contents and whether anything was discarded,
// then resets the buffer.
func (b *BoundedBuffer) Drain() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, truncated := b.buffer.String(), b.truncated
	b.buffer.Reset()
	b.truncated = false
	return s, truncated
}

// Len returns the current length of the buffer.
func (b *BoundedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Len()
}
