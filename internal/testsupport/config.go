package testsupport

import (
	"path/filepath"
	"testing"

	"vaultmig/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ReportDir = filepath.Join(base, "reports")
	cfg.Paths.CacheFile = filepath.Join(base, "cache", "reference_cache.json")
	cfg.Migration.Workers = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize test config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test config directories: %v", err)
	}

	return &cfg
}

// WithGoLive sets the go-live cutoff on the test config.
func WithGoLive(date string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Migration.GoLiveDate = date
	}
}

// WithTestKeywords overrides the test keyword rule table.
func WithTestKeywords(keywords ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Rules.TestKeywords = keywords
	}
}
