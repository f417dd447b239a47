package pools

// BufferBuilder provides a convenient way to build byte slices with pooling.
type BufferBuilder struct {
	buf  []byte
	pool *BytePool
}

// NewBufferBuilder creates a new buffer builder with the given initial capacity.
func NewBufferBuilder(initialCap int) *BufferBuilder {
	return &BufferBuilder{
		buf:  defaultBytePool.Get(initialCap),
		pool: defaultBytePool,
	}
}

// Write appends bytes to the buffer.
func (b *BufferBuilder) Write(p []byte) {
	b.buf = append(b.buf, p...)
}

// WriteByte appends a single byte.
func (b *BufferBuilder) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteUint32LE appends a uint32 in little-endian order, as used by the
// SSTable record framing.
func (b *BufferBuilder) WriteUint32LE(v uint32) {
	b.buf = append(b.buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
	)
}

// WriteString appends a string.
func (b *BufferBuilder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// Bytes returns the built buffer. The slice shares the builder's storage, so it
// is only valid until the next write, Reset or Release.
func (b *BufferBuilder) Bytes() []byte {
	return b.buf
}

// Len returns the current length of the buffer.
func (b *BufferBuilder) Len() int {
	return len(b.buf)
}

// Reset resets the buffer for reuse.
func (b *BufferBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Release returns the buffer to the pool. After Release, the builder should not be used.
func (b *BufferBuilder) Release() {
	if b.pool != nil && b.buf != nil {
		b.pool.Put(b.buf)
	}
	b.buf = nil
}
