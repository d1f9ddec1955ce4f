package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMigration(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateRules()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.CacheFile == "" {
		return errors.New("paths.cache_file must be set")
	}
	return nil
}

func (c *Config) validateMigration() error {
	if c.Migration.Workers < 1 {
		return fmt.Errorf("migration.workers must be at least 1, got %d", c.Migration.Workers)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateRules() error {
	if len(c.Rules.PreferredVersions) == 0 {
		return errors.New("rules.preferred_versions must list at least one version label")
	}
	if len(c.Rules.AllowedExtensions) == 0 {
		return errors.New("rules.allowed_extensions must list at least one extension")
	}
	return nil
}
