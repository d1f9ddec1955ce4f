package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vaultmig/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "vaultmig", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	wantCache := filepath.Join(tempHome, ".cache", "vaultmig", "reference_cache.json")
	if cfg.Paths.CacheFile != wantCache {
		t.Fatalf("unexpected cache file: got %q want %q", cfg.Paths.CacheFile, wantCache)
	}
	if cfg.Migration.Workers != 4 {
		t.Fatalf("unexpected default workers: %d", cfg.Migration.Workers)
	}
	if !cfg.GoLive().IsZero() {
		t.Fatalf("expected go-live disabled by default, got %v", cfg.GoLive())
	}
	if len(cfg.Rules.PreferredVersions) == 0 {
		t.Fatal("expected default preferred versions")
	}
	if len(cfg.Rules.AllowedExtensions) == 0 {
		t.Fatal("expected default allowed extensions")
	}
}

func TestLoadExplicitFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vaultmig.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
cache_file = "` + filepath.Join(dir, "cache.json") + `"

[migration]
workers = 8
go_live_date = "2019-04-01"

[rules]
test_keywords = [" Test ", ""]
allowed_extensions = [".MP4", "wmv"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to resolve and exist, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Migration.Workers != 8 {
		t.Fatalf("unexpected workers: %d", cfg.Migration.Workers)
	}
	if got := cfg.GoLive().Format("2006-01-02"); got != "2019-04-01" {
		t.Fatalf("unexpected go-live date: %q", got)
	}
	if len(cfg.Rules.TestKeywords) != 1 || cfg.Rules.TestKeywords[0] != "Test" {
		t.Fatalf("expected trimmed keywords, got %v", cfg.Rules.TestKeywords)
	}
	if len(cfg.Rules.AllowedExtensions) != 2 || cfg.Rules.AllowedExtensions[0] != "mp4" {
		t.Fatalf("expected lowercased dot-free extensions, got %v", cfg.Rules.AllowedExtensions)
	}
}

func TestLoadRejectsBadGoLiveDate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vaultmig.toml")
	if err := os.WriteFile(path, []byte("[migration]\ngo_live_date = \"April 2019\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "go_live_date") {
		t.Fatalf("expected go_live_date parse error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero workers", func(c *config.Config) { c.Migration.Workers = 0 }, "migration.workers"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"no preferred versions", func(c *config.Config) { c.Rules.PreferredVersions = nil }, "preferred_versions"},
		{"no extensions", func(c *config.Config) { c.Rules.AllowedExtensions = nil }, "allowed_extensions"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	cfg := config.Default()
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("sample config does not normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config does not validate: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[migration]") {
		t.Fatal("sample config missing migration section")
	}
}
