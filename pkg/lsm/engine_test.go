package lsm

import (
	"fmt"
	"path/filepath"
	"testing"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	e, err := Open(dir, true, Config{WriteBufferSize: 1 << 16, WriteBufferNumber: 2, FilePoolSize: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

// S1 — Put/Get round-trip.
func TestEngine_S1_PutGetRoundTrip(t *testing.T) {
	e := openTestEngine(t)
	e.Put([]byte("serdar"), []byte("alpino"), false)
	e.Put([]byte("bulut"), []byte("teomos"), false)

	if v, ok := e.Get([]byte("serdar")); !ok || string(v) != "alpino" {
		t.Fatalf("Get(serdar) = (%q, %v), want (alpino, true)", v, ok)
	}
	if v, ok := e.Get([]byte("bulut")); !ok || string(v) != "teomos" {
		t.Fatalf("Get(bulut) = (%q, %v), want (teomos, true)", v, ok)
	}
}

// S2 — Overwrite.
func TestEngine_S2_Overwrite(t *testing.T) {
	e := openTestEngine(t)
	e.Put([]byte("k"), []byte("v1"), false)
	e.Put([]byte("k"), []byte("v2"), false)

	if v, ok := e.Get([]byte("k")); !ok || string(v) != "v2" {
		t.Fatalf("Get(k) = (%q, %v), want (v2, true)", v, ok)
	}
}

// S3 — Delete then get.
func TestEngine_S3_DeleteThenGet(t *testing.T) {
	e := openTestEngine(t)
	e.Put([]byte("x"), []byte("1"), false)
	e.Delete([]byte("x"), false)

	if _, ok := e.Get([]byte("x")); ok {
		t.Fatal("Get(x) found a value after Delete, want not-found")
	}
}

// S4 — Prefix scan with tombstone.
func TestEngine_S4_PrefixScanWithTombstone(t *testing.T) {
	e := openTestEngine(t)
	e.Put([]byte("p/a"), []byte("1"), false)
	e.Put([]byte("p/b"), []byte("2"), false)
	e.Put([]byte("q/c"), []byte("3"), false)
	e.Put([]byte("p/d"), []byte("4"), false)
	e.Delete([]byte("p/b"), false)

	kvs := e.GetPrefix([]byte("p/"))
	if len(kvs) != 2 {
		t.Fatalf("GetPrefix(p/) returned %d entries, want 2: %v", len(kvs), kvs)
	}
	if string(kvs[0].Key) != "p/a" || string(kvs[0].Value) != "1" {
		t.Errorf("kvs[0] = %+v, want (p/a, 1)", kvs[0])
	}
	if string(kvs[1].Key) != "p/d" || string(kvs[1].Value) != "4" {
		t.Errorf("kvs[1] = %+v, want (p/d, 4)", kvs[1])
	}
}

// S5 — Recovery.
func TestEngine_S5_Recovery(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	e1, err := Open(dir, true, Config{WriteBufferSize: 1 << 12, WriteBufferNumber: 2, FilePoolSize: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 100; i++ {
		e1.Put([]byte(fmt.Sprintf("key%d", i)), []byte(fmt.Sprintf("value%d", i)), false)
	}
	if !e1.WriteBarrier() {
		t.Fatal("WriteBarrier returned false")
	}
	e1.Close()

	e2, err := Open(dir, false, Config{WriteBufferSize: 1 << 12, WriteBufferNumber: 2, FilePoolSize: 2})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer e2.Close()

	for i := 0; i < 100; i++ {
		want := fmt.Sprintf("value%d", i)
		v, ok := e2.Get([]byte(fmt.Sprintf("key%d", i)))
		if !ok || string(v) != want {
			t.Fatalf("Get(key%d) after recovery = (%q, %v), want (%s, true)", i, v, ok, want)
		}
	}
}

func TestEngine_RotationAcrossManyMemtables(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	e, err := Open(dir, true, Config{WriteBufferSize: 256, WriteBufferNumber: 2, FilePoolSize: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	for i := 0; i < 500; i++ {
		e.Put([]byte(fmt.Sprintf("key%04d", i)), []byte(fmt.Sprintf("value%04d", i)), false)
	}
	e.WriteBarrier()

	for i := 0; i < 500; i++ {
		want := fmt.Sprintf("value%04d", i)
		v, ok := e.Get([]byte(fmt.Sprintf("key%04d", i)))
		if !ok || string(v) != want {
			t.Fatalf("Get(key%04d) = (%q, %v), want (%s, true)", i, v, ok, want)
		}
	}
}

func TestEngine_GetAfterClose(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	e, err := Open(dir, true, Config{WriteBufferSize: 1 << 16, WriteBufferNumber: 2, FilePoolSize: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e.Put([]byte("k"), []byte("v"), false)
	e.Close()

	if ok := e.Put([]byte("k2"), []byte("v2"), false); ok {
		t.Fatal("Put after Close returned true, want false")
	}
	if _, ok := e.Get([]byte("k")); ok {
		t.Fatal("Get after Close returned a value, want not-found")
	}
	if ok := e.WriteBarrier(); ok {
		t.Fatal("WriteBarrier after Close returned true, want false")
	}
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	e := openTestEngine(t)
	e.Close()
	e.Close() // must not panic or hang
}

func TestEngine_Counters(t *testing.T) {
	e := openTestEngine(t)
	e.Put([]byte("k"), []byte("v"), false)
	e.Get([]byte("k"))

	c := e.Counters()
	if c.WriteOps == 0 {
		t.Error("WriteOps should be > 0 after a Put")
	}
	if c.WriteBytes == 0 {
		t.Error("WriteBytes should be > 0 after a Put")
	}
}

func TestEngine_WriteBarrierFlushesToManager(t *testing.T) {
	e := openTestEngine(t)
	e.Put([]byte("k"), []byte("v"), false)
	e.WriteBarrier()

	v, ok := e.manager.Get([]byte("k"))
	if !ok || string(v) != "v" {
		t.Fatalf("manager.Get(k) after WriteBarrier = (%q, %v), want (v, true)", v, ok)
	}
}
