package pools

import (
	"sync"
	"testing"
)

func TestBytePool_Get(t *testing.T) {
	pool := NewBytePool()

	tests := []struct {
		name   string
		size   int
		minCap int
	}{
		{"tiny", 8, 8},
		{"tiny_exact", TinySize, TinySize},
		{"small", 32, 32},
		{"small_exact", SmallSize, SmallSize},
		{"medium", 128, 128},
		{"medium_exact", MediumSize, MediumSize},
		{"large", 512, 512},
		{"large_exact", LargeSize, LargeSize},
		{"huge", 2048, 2048},
		{"huge_exact", HugeSize, HugeSize},
		{"oversized", 10000, 10000}, // Allocated directly
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := pool.Get(tt.size)
			if len(b) != 0 {
				t.Errorf("Get(%d) length = %d, want 0", tt.size, len(b))
			}
			if cap(b) < tt.minCap {
				t.Errorf("Get(%d) capacity = %d, want >= %d", tt.size, cap(b), tt.minCap)
			}
		})
	}
}

func TestBytePool_GetSized(t *testing.T) {
	pool := NewBytePool()

	b := pool.GetSized(100)
	if len(b) != 100 {
		t.Errorf("GetSized(100) length = %d, want 100", len(b))
	}
	if cap(b) < 100 {
		t.Errorf("GetSized(100) capacity = %d, want >= 100", cap(b))
	}
}

func TestBytePool_PutAndReuse(t *testing.T) {
	pool := NewBytePool()

	for i := 0; i < 10; i++ {
		b := pool.Get(64)
		b = append(b, "test data"...)
		pool.Put(b)
	}

	b := pool.Get(64)
	if len(b) != 0 {
		t.Errorf("After Put, Get returned slice with length %d, want 0", len(b))
	}
}

func TestBytePool_OversizedNotPooled(t *testing.T) {
	pool := NewBytePool()

	large := make([]byte, MaxPool+1000)
	pool.Put(large) // Should not panic or error
}

func TestDefaultBytePool(t *testing.T) {
	b := GetBytes(100)
	if cap(b) < 100 {
		t.Errorf("GetBytes(100) capacity = %d, want >= 100", cap(b))
	}
	PutBytes(b)

	b2 := GetBytesSized(50)
	if len(b2) != 50 {
		t.Errorf("GetBytesSized(50) length = %d, want 50", len(b2))
	}
	PutBytes(b2)
}

func TestBufferBuilder(t *testing.T) {
	b := NewBufferBuilder(64)
	defer b.Release()

	b.WriteByte(0x01)
	b.WriteUint32LE(0x12345678)
	b.WriteString("hello")
	b.Write([]byte{0xFF, 0xFE})

	result := b.Bytes()

	expectedLen := 1 + 4 + 5 + 2 // 12 bytes
	if len(result) != expectedLen {
		t.Errorf("Buffer length = %d, want %d", len(result), expectedLen)
	}

	if result[0] != 0x01 {
		t.Errorf("result[0] = %02x, want 0x01", result[0])
	}

	// Little-endian: least significant byte first.
	if result[1] != 0x78 || result[2] != 0x56 || result[3] != 0x34 || result[4] != 0x12 {
		t.Error("uint32 LE encoding incorrect")
	}

	if string(result[5:10]) != "hello" {
		t.Errorf("string = %q, want %q", string(result[5:10]), "hello")
	}

	if result[10] != 0xFF || result[11] != 0xFE {
		t.Error("trailing bytes incorrect")
	}
}

func TestBufferBuilder_Len(t *testing.T) {
	b := NewBufferBuilder(32)
	defer b.Release()

	if b.Len() != 0 {
		t.Errorf("Initial Len() = %d, want 0", b.Len())
	}

	b.WriteString("test")
	if b.Len() != 4 {
		t.Errorf("After write Len() = %d, want 4", b.Len())
	}
}

func TestBufferBuilder_Reset(t *testing.T) {
	b := NewBufferBuilder(32)
	defer b.Release()

	b.WriteString("test data")
	b.Reset()

	if b.Len() != 0 {
		t.Errorf("After Reset() Len() = %d, want 0", b.Len())
	}

	b.WriteString("new data")
	if string(b.Bytes()) != "new data" {
		t.Errorf("After Reset and write, got %q, want %q", string(b.Bytes()), "new data")
	}
}

func TestBytePool_Concurrent(t *testing.T) {
	pool := NewBytePool()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := pool.Get(64)
				b = append(b, "concurrent test data"...)
				pool.Put(b)
			}
		}()
	}

	wg.Wait()
}

func BenchmarkBytePool_Get(b *testing.B) {
	pool := NewBytePool()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buf := pool.Get(128)
		pool.Put(buf)
	}
}

func BenchmarkBytePool_GetWithoutPool(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = make([]byte, 0, 128)
	}
}

func BenchmarkBufferBuilder(b *testing.B) {
	for i := 0; i < b.N; i++ {
		bb := NewBufferBuilder(64)
		bb.WriteByte(0x01)
		bb.WriteUint32LE(12345)
		bb.WriteString("test")
		_ = bb.Bytes()
		bb.Release()
	}
}

func BenchmarkBufferBuilder_WithoutPool(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := make([]byte, 0, 64)
		buf = append(buf, 0x01)
		buf = append(buf, 0x39, 0x30, 0, 0) // 12345 in LE
		buf = append(buf, "test"...)
		_ = buf
	}
}
