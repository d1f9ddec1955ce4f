package main

import (
	"log/slog"
	"strings"
	"sync"

	"vaultmig/internal/config"
	"vaultmig/internal/logging"
	"vaultmig/internal/records"
	"vaultmig/internal/refcache"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the run logger from the loaded config. Commands that
// only read state pass logDir="" to keep run.log untouched.
func (c *commandContext) newLogger(logDir string) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		LogDir: logDir,
	})
}

func (c *commandContext) openStore() (*records.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return records.Open(cfg)
}

func (c *commandContext) openCache(logger *slog.Logger) (*refcache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return refcache.Open(cfg.Paths.CacheFile, logger)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
