package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// DataDir holds the migration records database and the run lock.
	DataDir string `toml:"data_dir"`
	// LogDir receives the structured run log.
	LogDir string `toml:"log_dir"`
	// ReportDir receives the end-of-run CSV reports.
	ReportDir string `toml:"report_dir"`
	// CacheFile is the reference cache checkpoint location.
	CacheFile string `toml:"cache_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Migration contains batch execution settings.
type Migration struct {
	// Workers is the size of the processing worker pool.
	Workers int `toml:"workers"`
	// GoLiveDate rejects archives created before the service went live
	// (YYYY-MM-DD). Empty disables the check.
	GoLiveDate string `toml:"go_live_date"`
}

// Rules contains the business rule tables used by the pipeline stages.
// They are configuration rather than literals because the keyword and
// version vocabularies are owned by the product, not the code.
type Rules struct {
	// TestKeywords marks an archive as a test recording when any keyword
	// appears in its name (case-insensitive).
	TestKeywords []string `toml:"test_keywords"`
	// PreferredVersions are the version labels treated as canonical.
	PreferredVersions []string `toml:"preferred_versions"`
	// AllowedExtensions are the playable source file extensions; anything
	// else is rejected as a raw file.
	AllowedExtensions []string `toml:"allowed_extensions"`
}

// Config encapsulates all configuration values for the migration tool.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
	Migration Migration `toml:"migration"`
	Rules     Rules     `toml:"rules"`

	goLive time.Time
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vaultmig/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vaultmig.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ReportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if cacheDir := filepath.Dir(c.Paths.CacheFile); strings.TrimSpace(cacheDir) != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", cacheDir, err)
		}
	}
	return nil
}

// GoLive returns the parsed go-live cutoff. The zero time means the
// pre-go-live check is disabled.
func (c *Config) GoLive() time.Time {
	return c.goLive
}

// Normalize expands paths, canonicalizes the rule tables, and parses the
// go-live date. Load calls it automatically; tests building a Config by
// hand call it before use.
func (c *Config) Normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ReportDir, err = expandPath(c.Paths.ReportDir); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	if c.Paths.CacheFile, err = expandPath(c.Paths.CacheFile); err != nil {
		return fmt.Errorf("paths.cache_file: %w", err)
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	c.Rules.TestKeywords = normalizeList(c.Rules.TestKeywords)
	c.Rules.PreferredVersions = normalizeList(c.Rules.PreferredVersions)
	c.Rules.AllowedExtensions = normalizeExtensions(c.Rules.AllowedExtensions)

	if goLive := strings.TrimSpace(c.Migration.GoLiveDate); goLive != "" {
		parsed, err := time.Parse("2006-01-02", goLive)
		if err != nil {
			return fmt.Errorf("migration.go_live_date: %w", err)
		}
		c.goLive = parsed
	}

	return nil
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed == "" {
			continue
		}
		out = append(out, strings.TrimPrefix(trimmed, "."))
	}
	return out
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
