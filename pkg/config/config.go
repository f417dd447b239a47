// Package config loads and validates lsmio's option table: the
// native-engine knobs the Engine itself consumes, plus the
// adapter-only hints the native engine accepts but ignores.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is a singleton validator instance, shared across all
// Config values the process constructs.
var validate = validator.New()

// StorageType selects which Store backend implementation services a
// given Config. Only Native is implemented; the other two are valid
// configuration values that Open rejects with a distinct error so a
// caller gets an explicit not-implemented failure rather than silent
// fallback to Native.
type StorageType string

const (
	Native      StorageType = "Native"
	LevelDBLike StorageType = "LevelDB-like"
	RocksDBLike StorageType = "RocksDB-like"
)

// Config is the full recognized option table, loadable from YAML and
// validated via struct tags before use.
type Config struct {
	// Native-engine options.
	WriteBufferSize   int  `yaml:"write_buffer_size" validate:"gt=0"`
	WriteBufferNumber int  `yaml:"write_buffer_number" validate:"gt=0"`
	FilePoolSize      int  `yaml:"file_pool_size" validate:"gt=0"`
	PreAllocate       bool `yaml:"pre_allocate"`
	AlwaysFlush       bool `yaml:"always_flush"`

	// Adapter-only hints: accepted and validated, ignored by the
	// native engine. See DESIGN.md for why they still live here.
	UseSync          bool        `yaml:"use_sync"`
	CacheSize        int         `yaml:"cache_size" validate:"gte=0"`
	BlockSize        int         `yaml:"block_size" validate:"gte=0"`
	TransferSize      int        `yaml:"transfer_size" validate:"gte=0"`
	AsyncBatchSize   int         `yaml:"async_batch_size" validate:"gte=0"`
	AsyncBatchBytes  int         `yaml:"async_batch_bytes" validate:"gte=0"`
	StorageType      StorageType `yaml:"storage_type" validate:"oneof=Native LevelDB-like RocksDB-like"`

	// Ambient options carried even though the spec's Non-goals exclude
	// the observability surfaces they configure.
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	LogLevel       string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns the option table's documented defaults.
func Default() Config {
	return Config{
		WriteBufferSize:   4 << 20, // 4 MiB
		WriteBufferNumber: 4,
		FilePoolSize:      4,
		PreAllocate:       false,
		AlwaysFlush:       false,
		UseSync:           false,
		CacheSize:         0,
		BlockSize:         4096,
		TransferSize:      4096,
		AsyncBatchSize:    0,
		AsyncBatchBytes:   0,
		StorageType:       Native,
		MetricsEnabled:    false,
		LogLevel:          "info",
	}
}

// Load reads a YAML file at path and merges it onto Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation plus the one cross-field
// invariant the tags can't express: transfer_size must not be smaller
// than block_size.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.TransferSize > 0 && c.BlockSize > 0 && c.TransferSize < c.BlockSize {
		return fmt.Errorf("config: transfer_size (%d) must not be smaller than block_size (%d)", c.TransferSize, c.BlockSize)
	}
	return nil
}

// formatValidationError converts validator errors into a single,
// user-facing message naming the first offending field.
func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}
	return err
}
