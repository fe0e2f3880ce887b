package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"soundunpack/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateArchives(); err != nil {
		return err
	}
	if err := c.validateModes(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateArchives() error {
	if strings.ContainsAny(c.Archives.OutputExtension, `/\`) {
		return errors.New("archives.output_extension must not contain path separators")
	}
	if strings.ContainsAny(c.Archives.MetadataFile, `/\`) {
		return errors.New("archives.metadata_file must be a file name")
	}
	return nil
}

func (c *Config) validateModes() error {
	for name, archives := range c.Modes {
		if len(archives) == 0 {
			return fmt.Errorf("modes.%s must list at least one archive", name)
		}
		for i, archive := range archives {
			if archive.Name == "" {
				return fmt.Errorf("modes.%s[%d].name must be set", name, i)
			}
			if strings.ContainsAny(archive.Name, `/\`) {
				return fmt.Errorf("modes.%s[%d].name must be a file name", name, i)
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

// CheckDirectories verifies the run directories before any work begins: the
// source must be an existing directory, and neither the destination nor the
// temporary directory may be an existing plain file.
func (c *Config) CheckDirectories() error {
	info, err := os.Stat(c.Paths.SourceDir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "source directory", c.Paths.SourceDir, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "config", "source directory", c.Paths.SourceDir+" is not a directory", nil)
	}
	for label, dir := range map[string]string{
		"destination directory": c.Paths.DestinationDir,
		"temporary directory":   c.Paths.TmpDir,
	} {
		info, err := os.Stat(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return services.Wrap(services.ErrConfiguration, "config", label, dir, err)
		}
		if !info.IsDir() {
			return services.Wrap(services.ErrConfiguration, "config", label, dir+" is a file", nil)
		}
	}
	return nil
}
