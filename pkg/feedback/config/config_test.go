package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/feedback/pkg/feedback/internalerr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Input != "input.json" || cfg.Output != "output.txt" {
		t.Errorf("unexpected default paths %q %q", cfg.Input, cfg.Output)
	}
	if cfg.Clustering.DistanceThreshold != 1.0 || cfg.Clustering.Linkage != "ward" {
		t.Errorf("unexpected clustering defaults %+v", cfg.Clustering)
	}
	if cfg.Embedder.Provider != ProviderOllama {
		t.Errorf("default provider = %q", cfg.Embedder.Provider)
	}
	if cfg.Report.Language != "it" {
		t.Errorf("default language = %q", cfg.Report.Language)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, "feedback.yaml", `input: commenti.json
thresholds:
  offensive: -0.7
embedder:
  provider: hashing
  dimensions: 128
  timeout: 5s
clustering:
  linkage: average
  parallel: true
cache:
  path: vectors.db
  max_age: 720h
report:
  language: en
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Input != "commenti.json" {
		t.Errorf("input = %q", cfg.Input)
	}
	if cfg.Output != "output.txt" {
		t.Errorf("output should keep its default, got %q", cfg.Output)
	}
	if cfg.Thresholds.Offensive != -0.7 {
		t.Errorf("offensive = %v", cfg.Thresholds.Offensive)
	}
	if cfg.Thresholds.NeutralMargin != 0.05 {
		t.Errorf("neutral margin should keep its default, got %v", cfg.Thresholds.NeutralMargin)
	}
	if cfg.Embedder.Provider != ProviderHashing || cfg.Embedder.Dimensions != 128 {
		t.Errorf("embedder = %+v", cfg.Embedder)
	}
	if cfg.Embedder.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Embedder.Timeout)
	}
	if cfg.Clustering.Linkage != "average" || !cfg.Clustering.Parallel {
		t.Errorf("clustering = %+v", cfg.Clustering)
	}
	if cfg.Cache.Path != "vectors.db" || cfg.Cache.MaxAge != 720*time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Clustering.DistanceThreshold != 1.0 {
		t.Errorf("threshold should keep its default, got %v", cfg.Clustering.DistanceThreshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/feedback.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "thresholds: [1, 2\n")
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty input", func(c *Config) { c.Input = "" }},
		{"empty output", func(c *Config) { c.Output = "" }},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"offensive range", func(c *Config) { c.Thresholds.Offensive = -2 }},
		{"margin range", func(c *Config) { c.Thresholds.NeutralMargin = 1 }},
		{"empty text key", func(c *Config) { c.Loader.TextKey = "" }},
		{"provider", func(c *Config) { c.Embedder.Provider = "bert" }},
		{"dimensions", func(c *Config) { c.Embedder.Dimensions = -1 }},
		{"threshold", func(c *Config) { c.Clustering.DistanceThreshold = 0 }},
		{"cache max age", func(c *Config) { c.Cache.MaxAge = -time.Hour }},
		{"linkage", func(c *Config) { c.Clustering.Linkage = "centroid" }},
		{"language", func(c *Config) { c.Report.Language = "fr" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
