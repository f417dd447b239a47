package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate cleanly, got: %v", err)
	}
}

func TestValidate_RejectsNonPositiveWriteBufferSize(t *testing.T) {
	cfg := Default()
	cfg.WriteBufferSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for write_buffer_size=0, got nil")
	}
}

func TestValidate_RejectsTransferSizeBelowBlockSize(t *testing.T) {
	cfg := Default()
	cfg.BlockSize = 4096
	cfg.TransferSize = 1024
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for transfer_size < block_size, got nil")
	}
}

func TestValidate_RejectsUnknownStorageType(t *testing.T) {
	cfg := Default()
	cfg.StorageType = "Mystery-like"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unrecognized storage_type, got nil")
	}
}

func TestValidate_AcceptsAllKnownStorageTypes(t *testing.T) {
	for _, st := range []StorageType{Native, LevelDBLike, RocksDBLike} {
		cfg := Default()
		cfg.StorageType = st
		if err := cfg.Validate(); err != nil {
			t.Errorf("storage_type %q should validate, got: %v", st, err)
		}
	}
}

func TestLoad_MergesOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lsmio.yaml")
	body := []byte("write_buffer_size: 1048576\nalways_flush: true\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WriteBufferSize != 1048576 {
		t.Errorf("WriteBufferSize = %d, want 1048576", cfg.WriteBufferSize)
	}
	if !cfg.AlwaysFlush {
		t.Error("AlwaysFlush = false, want true")
	}
	// Untouched fields keep the default.
	if cfg.StorageType != Native {
		t.Errorf("StorageType = %q, want Native (default preserved)", cfg.StorageType)
	}
	if cfg.FilePoolSize != Default().FilePoolSize {
		t.Errorf("FilePoolSize = %d, want default %d", cfg.FilePoolSize, Default().FilePoolSize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file, got nil")
	}
}
