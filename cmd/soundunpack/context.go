package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"soundunpack/internal/config"
	"soundunpack/internal/logging"
)

// rootFlags holds values that override the configuration file.
type rootFlags struct {
	configPath  string
	logLevel    string
	source      string
	destination string
	tmp         string
	mode        string
	keep        bool
	noCatalog   bool
	collisions  bool
}

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.applyOverrides(cfg); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// applyOverrides copies command-line values over the loaded configuration.
// A temporary directory derived from the configured destination follows a
// destination override.
func (c *commandContext) applyOverrides(cfg *config.Config) error {
	f := c.flags
	changed := false
	if v := strings.TrimSpace(f.source); v != "" {
		cfg.Paths.SourceDir = v
		changed = true
	}
	if v := strings.TrimSpace(f.destination); v != "" {
		if cfg.Paths.TmpDir == filepath.Join(cfg.Paths.DestinationDir, "soundunpack") {
			cfg.Paths.TmpDir = ""
		}
		cfg.Paths.DestinationDir = v
		changed = true
	}
	if v := strings.TrimSpace(f.tmp); v != "" {
		cfg.Paths.TmpDir = v
		changed = true
	}
	if v := strings.TrimSpace(f.mode); v != "" {
		cfg.Archives.Mode = v
		changed = true
	}
	if f.noCatalog {
		cfg.Catalog.Enabled = false
	}
	if !changed {
		return nil
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	return cfg.Validate()
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, c.flags.logLevel)
	})
	return c.logger, c.loggerErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
