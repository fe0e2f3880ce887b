package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Normalize expands paths and fills derived defaults. Load calls it; callers
// that mutate a loaded config (for example from CLI flags) call it again.
func (c *Config) Normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeArchives()
	c.normalizeModes()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		c.Paths.SourceDir = "."
	}
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DestinationDir) == "" {
		c.Paths.DestinationDir = "."
	}
	if c.Paths.DestinationDir, err = expandPath(c.Paths.DestinationDir); err != nil {
		return fmt.Errorf("paths.destination_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TmpDir) == "" {
		c.Paths.TmpDir = filepath.Join(c.Paths.DestinationDir, defaultTmpDirName)
	}
	if c.Paths.TmpDir, err = expandPath(c.Paths.TmpDir); err != nil {
		return fmt.Errorf("paths.tmp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() error {
	if value, ok := os.LookupEnv("SOUNDUNPACK_TOOLS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Tools.Dir = strings.TrimSpace(value)
	}
	var err error
	if c.Tools.Dir, err = expandPath(strings.TrimSpace(c.Tools.Dir)); err != nil {
		return fmt.Errorf("tools.dir: %w", err)
	}
	c.Tools.Psarc = defaultIfBlank(c.Tools.Psarc, defaultPsarc)
	c.Tools.Ww2ogg = defaultIfBlank(c.Tools.Ww2ogg, defaultWw2ogg)
	c.Tools.Revorb = defaultIfBlank(c.Tools.Revorb, defaultRevorb)
	c.Tools.Codebooks = defaultIfBlank(c.Tools.Codebooks, defaultCodebooks)
	// An explicitly empty launcher disables wrapping.
	c.Tools.Launcher = strings.TrimSpace(c.Tools.Launcher)
	return nil
}

func (c *Config) normalizeArchives() {
	c.Archives.Mode = strings.ToLower(defaultIfBlank(c.Archives.Mode, defaultMode))
	c.Archives.MetadataFile = defaultIfBlank(c.Archives.MetadataFile, defaultMetadataFile)
	c.Archives.OutputExtension = defaultIfBlank(c.Archives.OutputExtension, defaultOutputExtension)
	if !strings.HasPrefix(c.Archives.OutputExtension, ".") {
		c.Archives.OutputExtension = "." + c.Archives.OutputExtension
	}
	c.Archives.UnlocalizedLanguage = defaultIfBlank(c.Archives.UnlocalizedLanguage, defaultUnlocalizedLanguage)
}

func (c *Config) normalizeModes() {
	if len(c.Modes) == 0 {
		return
	}
	normalized := make(map[string][]ModeArchive, len(c.Modes))
	for name, archives := range c.Modes {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		cleaned := make([]ModeArchive, 0, len(archives))
		for _, archive := range archives {
			cleaned = append(cleaned, ModeArchive{
				Name:     strings.TrimSpace(archive.Name),
				BasePath: strings.Trim(strings.ReplaceAll(strings.TrimSpace(archive.BasePath), "\\", "/"), "/"),
			})
		}
		normalized[key] = cleaned
	}
	c.Modes = normalized
}

func (c *Config) normalizeCatalog() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		c.Catalog.Path = ""
		return nil
	}
	var err error
	if c.Catalog.Path, err = expandPath(strings.TrimSpace(c.Catalog.Path)); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func defaultIfBlank(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
