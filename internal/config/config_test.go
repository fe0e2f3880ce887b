package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"soundunpack/internal/config"
	"soundunpack/internal/services"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

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
	if cfg.Paths.SourceDir != tempHome {
		t.Fatalf("unexpected source dir: got %q want %q", cfg.Paths.SourceDir, tempHome)
	}
	wantTmp := filepath.Join(tempHome, "soundunpack")
	if cfg.Paths.TmpDir != wantTmp {
		t.Fatalf("unexpected tmp dir: got %q want %q", cfg.Paths.TmpDir, wantTmp)
	}
	wantTools := filepath.Join(tempHome, ".local", "share", "soundunpack", "tools")
	if cfg.Tools.Dir != wantTools {
		t.Fatalf("unexpected tools dir: got %q want %q", cfg.Tools.Dir, wantTools)
	}
	if cfg.PsarcBinary() != filepath.Join(wantTools, "psarc.exe") {
		t.Fatalf("unexpected psarc path: %q", cfg.PsarcBinary())
	}
	if cfg.CodebooksPath() != filepath.Join(wantTools, "ww2ogg", "packed_codebooks_aoTuV_603.bin") {
		t.Fatalf("unexpected codebooks path: %q", cfg.CodebooksPath())
	}
	if cfg.Archives.Mode != "current" {
		t.Fatalf("unexpected mode: %q", cfg.Archives.Mode)
	}
	if !cfg.Catalog.Enabled {
		t.Fatal("expected catalog enabled by default")
	}
	if cfg.CatalogPath() != filepath.Join(tempHome, ".soundunpack", "catalog.db") {
		t.Fatalf("unexpected catalog path: %q", cfg.CatalogPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "soundunpack.toml")

	type payload struct {
		Paths struct {
			SourceDir      string `toml:"source_dir"`
			DestinationDir string `toml:"destination_dir"`
			KeepTmp        bool   `toml:"keep_tmp"`
		} `toml:"paths"`
		Archives struct {
			Mode            string `toml:"mode"`
			OutputExtension string `toml:"output_extension"`
		} `toml:"archives"`
		Modes map[string][]config.ModeArchive `toml:"modes"`
	}
	custom := payload{}
	custom.Paths.SourceDir = filepath.Join(tempDir, "pcbanks")
	custom.Paths.DestinationDir = filepath.Join(tempDir, "out")
	custom.Paths.KeepTmp = true
	custom.Archives.Mode = "Beta"
	custom.Archives.OutputExtension = "ogg"
	custom.Modes = map[string][]config.ModeArchive{
		"Beta": {{Name: "NMSARC.BETA.pak", BasePath: `AUDIO\WINDOWS\`}},
	}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if !cfg.Paths.KeepTmp {
		t.Fatal("expected keep_tmp from file")
	}
	if cfg.Paths.TmpDir != filepath.Join(tempDir, "out", "soundunpack") {
		t.Fatalf("unexpected tmp dir: %q", cfg.Paths.TmpDir)
	}
	if cfg.Archives.Mode != "beta" {
		t.Fatalf("expected lower-cased mode, got %q", cfg.Archives.Mode)
	}
	if cfg.Archives.OutputExtension != ".ogg" {
		t.Fatalf("expected dotted extension, got %q", cfg.Archives.OutputExtension)
	}
	archives, ok := cfg.Modes["beta"]
	if !ok || len(archives) != 1 {
		t.Fatalf("expected beta mode, got %#v", cfg.Modes)
	}
	if archives[0].BasePath != "AUDIO/WINDOWS" {
		t.Fatalf("expected normalized base path, got %q", archives[0].BasePath)
	}
}

func TestToolsDirEnvOverride(t *testing.T) {
	toolsDir := t.TempDir()
	t.Setenv("SOUNDUNPACK_TOOLS_DIR", toolsDir)
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RevorbBinary() != filepath.Join(toolsDir, "revorb.exe") {
		t.Fatalf("unexpected revorb path: %q", cfg.RevorbBinary())
	}
	if cfg.Ww2oggBinary() != filepath.Join(toolsDir, "ww2ogg", "ww2ogg.exe") {
		t.Fatalf("unexpected ww2ogg path: %q", cfg.Ww2oggBinary())
	}
}

func TestAbsoluteToolPathIsKept(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.Psarc = "/opt/psarc/psarc"
	if got := cfg.PsarcBinary(); got != "/opt/psarc/psarc" {
		t.Fatalf("unexpected psarc path: %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "packed_codebooks_aoTuV_603.bin") {
		t.Fatalf("sample config missing codebooks entry: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Archives.Mode != "current" {
		t.Fatalf("expected sample mode current, got %q", cfg.Archives.Mode)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = config.Default()
	cfg.Modes = map[string][]config.ModeArchive{"empty": nil}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty mode")
	}

	cfg = config.Default()
	cfg.Modes = map[string][]config.ModeArchive{"bad": {{Name: "dir/archive.pak"}}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for archive name with separator")
	}

	cfg = config.Default()
	cfg.Archives.OutputExtension = "/ogg"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for output extension with separator")
	}
}

func TestCheckDirectories(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "source")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg := config.Default()
	cfg.Paths.SourceDir = source
	cfg.Paths.DestinationDir = filepath.Join(base, "out")
	cfg.Paths.TmpDir = filepath.Join(base, "out", "tmp")
	if err := cfg.CheckDirectories(); err != nil {
		t.Fatalf("expected valid directories, got %v", err)
	}

	cfg.Paths.SourceDir = filepath.Join(base, "missing")
	if err := cfg.CheckDirectories(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing source, got %v", err)
	}

	file := filepath.Join(base, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg.Paths.SourceDir = file
	if err := cfg.CheckDirectories(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for file source, got %v", err)
	}

	cfg.Paths.SourceDir = source
	cfg.Paths.DestinationDir = file
	if err := cfg.CheckDirectories(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for file destination, got %v", err)
	}
}
