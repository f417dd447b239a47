package lsm

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestFilePool_AcquireMonotonicIDs(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePool(dir, "L0-", ".sst", 2, 1, 0)
	defer p.Close()

	var lastID uint64
	for i := 0; i < 5; i++ {
		_, id, f, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		f.Close()
		if i > 0 && id <= lastID {
			t.Fatalf("Acquire returned id %d after %d, ids must strictly increase", id, lastID)
		}
		lastID = id
	}
}

func TestFilePool_AcquireReturnsOpenFile(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePool(dir, "L0-", ".sst", 1, 1, 0)
	defer p.Close()

	path, _, f, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("hello")); err != nil {
		t.Fatalf("write to acquired file: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("acquired file not present on disk: %v", err)
	}
}

func TestFilePool_StartingIDHonored(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePool(dir, "L0-", ".sst", 1, 100, 0)
	defer p.Close()

	_, id, f, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	f.Close()
	if id != 100 {
		t.Fatalf("first acquired id = %d, want 100", id)
	}
}

func TestFilePool_CloseWakesBlockedAcquire(t *testing.T) {
	dir := t.TempDir()
	// targetSize 0 means the worker never tops the deque up, so Acquire
	// blocks until Close shuts the pool down.
	p := NewFilePool(dir, "L0-", ".sst", 0, 1, 0)

	done := make(chan error, 1)
	go func() {
		_, _, _, err := p.Acquire()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	p.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrPoolShutdown) {
			t.Fatalf("Acquire error after Close = %v, want ErrPoolShutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire did not return after Close")
	}
}

func TestFilePool_PreAllocateReservesSize(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePool(dir, "L0-", ".sst", 1, 1, 4096)
	defer p.Close()

	path, _, f, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer f.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() < 4096 {
		t.Fatalf("pre-allocated file size = %d, want >= 4096", info.Size())
	}
}
