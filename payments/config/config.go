// Package config loads the payments engine configuration from defaults, an
// optional TOML file and PAYMENTS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/LerianStudio/payments-engine/payments/codec"
	"github.com/LerianStudio/payments-engine/payments/log"
	"github.com/LerianStudio/payments-engine/payments/pipeline"
	"github.com/LerianStudio/payments-engine/payments/zap"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by ParseEnv.
const EnvPrefix = "PAYMENTS_"

// MaxDecodeWorkers caps decode_workers.
const MaxDecodeWorkers = 256

// Config is the full runtime configuration.
type Config struct {
	LogLevel            string `toml:"log_level" env:"LOG_LEVEL"`
	LogEncoding         string `toml:"log_encoding" env:"LOG_ENCODING"`
	Environment         string `toml:"environment" env:"ENVIRONMENT"`
	OutputFormat        string `toml:"output_format" env:"OUTPUT_FORMAT"`
	DecodeWorkers       int    `toml:"decode_workers" env:"DECODE_WORKERS"`
	DecodeChunkSize     int    `toml:"decode_chunk_size" env:"DECODE_CHUNK_SIZE"`
	PreallocateAccounts bool   `toml:"preallocate_accounts" env:"PREALLOCATE_ACCOUNTS"`
	RejectionsPath      string `toml:"rejections_path" env:"REJECTIONS_PATH"`
	SnapshotDB          string `toml:"snapshot_db" env:"SNAPSHOT_DB"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		LogLevel:        "warn",
		LogEncoding:     string(zap.EncodingJSON),
		Environment:     string(zap.EnvironmentProduction),
		OutputFormat:    codec.FormatCSV,
		DecodeWorkers:   1,
		DecodeChunkSize: pipeline.DefaultChunkSize,
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the environment. A nil environ reads the process
// environment.
func Load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := ParseEnv(&cfg, environ); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFile overlays the keys present in the TOML file at path onto cfg.
// Unknown keys are rejected.
func LoadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}

		return fmt.Errorf("read config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	return nil
}

// ParseEnv overlays PAYMENTS_* variables onto cfg.
func ParseEnv(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// Workers resolves decode_workers, where 0 means one per CPU.
func (c Config) Workers() int {
	if c.DecodeWorkers == 0 {
		return runtime.GOMAXPROCS(0)
	}

	return c.DecodeWorkers
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	switch zap.Encoding(c.LogEncoding) {
	case zap.EncodingJSON, zap.EncodingConsole:
	default:
		errs = append(errs, fmt.Errorf("log_encoding: must be json or console, got %q", c.LogEncoding))
	}

	switch zap.Environment(c.Environment) {
	case zap.EnvironmentProduction, zap.EnvironmentStaging, zap.EnvironmentDevelopment, zap.EnvironmentLocal:
	default:
		errs = append(errs, fmt.Errorf("environment: unknown environment %q", c.Environment))
	}

	switch c.OutputFormat {
	case codec.FormatCSV, codec.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("output_format: must be csv or json, got %q", c.OutputFormat))
	}

	if c.DecodeWorkers < 0 || c.DecodeWorkers > MaxDecodeWorkers {
		errs = append(errs, fmt.Errorf("decode_workers: must be between 0 and %d, got %d", MaxDecodeWorkers, c.DecodeWorkers))
	}

	if c.DecodeChunkSize < 1 {
		errs = append(errs, fmt.Errorf("decode_chunk_size: must be positive, got %d", c.DecodeChunkSize))
	}

	if c.SnapshotDB != "" && c.SnapshotDB == c.RejectionsPath {
		errs = append(errs, errors.New("snapshot_db and rejections_path must differ"))
	}

	return errors.Join(errs...)
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
