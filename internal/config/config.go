// Package config loads the vigil.json configuration used by the vigil
// CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// FileName is the name of the configuration file.
	FileName = "vigil.json"

	// DefaultListen is the default inspector listen address.
	DefaultListen = "localhost:6390"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "vigil"

	// DefaultSourceDir is the default record directory.
	DefaultSourceDir = "records"

	// DefaultDebounce is the default reload debounce.
	DefaultDebounce = 100 * time.Millisecond
)

// Config is the complete vigil.json schema.
type Config struct {
	// Name labels this instance in logs and metrics.
	Name string `json:"name,omitempty"`

	// Listen is the inspector address, host:port.
	Listen string `json:"listen,omitempty"`

	// Metrics configures Prometheus exposure.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Source configures the record directory.
	Source SourceConfig `json:"source,omitempty"`

	// Snapshot configures S3 snapshot archival.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`
}

// MetricsConfig controls the /metrics endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// SourceConfig controls the directory-backed record source.
type SourceConfig struct {
	// Dir is the directory of <type>.json record files.
	Dir string `json:"dir,omitempty"`

	// DebounceMs is the reload debounce in milliseconds.
	DebounceMs int `json:"debounceMs,omitempty"`
}

// Debounce returns the reload debounce as a duration.
func (s SourceConfig) Debounce() time.Duration {
	if s.DebounceMs <= 0 {
		return DefaultDebounce
	}
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// SnapshotConfig controls snapshot archival. Empty Bucket disables it.
type SnapshotConfig struct {
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Listen: DefaultListen,
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Source: SourceConfig{Dir: DefaultSourceDir},
	}
}

// Load reads vigil.json from dir, filling unset fields with defaults.
// A missing file is not an error; defaults are returned.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to dir/vigil.json.
func Save(dir string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Source.Dir == "" {
		c.Source.Dir = DefaultSourceDir
	}
}
