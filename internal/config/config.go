package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the source, destination, and working directories.
type Paths struct {
	SourceDir      string `toml:"source_dir"`
	DestinationDir string `toml:"destination_dir"`
	TmpDir         string `toml:"tmp_dir"`
	KeepTmp        bool   `toml:"keep_tmp"`
}

// Tools locates the external executables the pipeline drives. Relative tool
// paths are resolved against Dir.
type Tools struct {
	Dir       string `toml:"dir"`
	Psarc     string `toml:"psarc"`
	Ww2ogg    string `toml:"ww2ogg"`
	Revorb    string `toml:"revorb"`
	Codebooks string `toml:"codebooks"`
	// Launcher wraps .exe tools on non-Windows platforms (usually wine).
	Launcher string `toml:"launcher"`
}

// Archives selects the compatibility mode and describes the extracted layout.
type Archives struct {
	Mode                string `toml:"mode"`
	MetadataFile        string `toml:"metadata_file"`
	OutputExtension     string `toml:"output_extension"`
	UnlocalizedLanguage string `toml:"unlocalized_language"`
}

// ModeArchive is one archive entry of a user-defined compatibility mode.
type ModeArchive struct {
	Name     string `toml:"name"`
	BasePath string `toml:"base_path"`
}

// Catalog configures the persistent asset ledger.
type Catalog struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for soundunpack.
//
// Configuration sections by subsystem:
//   - Paths: source archives, converted output, and the temporary workspace
//   - Tools: psarc, ww2ogg, revorb, codebooks, and the compatibility launcher
//   - Archives: compatibility mode selection and extracted layout
//   - Modes: additional user-defined compatibility modes
//   - Catalog: sqlite ledger of runs and converted assets
//   - Logging: log format, level, and optional file output
type Config struct {
	Paths    Paths                    `toml:"paths"`
	Tools    Tools                    `toml:"tools"`
	Archives Archives                 `toml:"archives"`
	Modes    map[string][]ModeArchive `toml:"modes"`
	Catalog  Catalog                  `toml:"catalog"`
	Logging  Logging                  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("soundunpack.toml")
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

// PsarcBinary returns the resolved archive tool path.
func (c *Config) PsarcBinary() string {
	return c.toolPath(c.Tools.Psarc)
}

// Ww2oggBinary returns the resolved format converter path.
func (c *Config) Ww2oggBinary() string {
	return c.toolPath(c.Tools.Ww2ogg)
}

// RevorbBinary returns the resolved post-processing tool path.
func (c *Config) RevorbBinary() string {
	return c.toolPath(c.Tools.Revorb)
}

// CodebooksPath returns the resolved packed codebooks parameter file.
func (c *Config) CodebooksPath() string {
	return c.toolPath(c.Tools.Codebooks)
}

func (c *Config) toolPath(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || filepath.IsAbs(value) || strings.TrimSpace(c.Tools.Dir) == "" {
		return value
	}
	return filepath.Join(c.Tools.Dir, filepath.FromSlash(value))
}

// CatalogPath returns the ledger database location. An empty catalog.path
// places the database under the destination directory.
func (c *Config) CatalogPath() string {
	if strings.TrimSpace(c.Catalog.Path) != "" {
		return c.Catalog.Path
	}
	return filepath.Join(c.Paths.DestinationDir, ".soundunpack", "catalog.db")
}

// EnsureDirectories creates the destination and temporary directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DestinationDir, c.Paths.TmpDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
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

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
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
