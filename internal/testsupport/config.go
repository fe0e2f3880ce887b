package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"soundunpack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Source and tools directories are created; destination and tmp are left for
// the code under test to create.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "source")
	cfgVal.Paths.DestinationDir = filepath.Join(base, "destination")
	cfgVal.Paths.TmpDir = filepath.Join(base, "destination", "soundunpack")
	cfgVal.Tools.Dir = filepath.Join(base, "tools")
	cfgVal.Tools.Psarc = "psarc"
	cfgVal.Tools.Ww2ogg = "ww2ogg"
	cfgVal.Tools.Revorb = "revorb"
	cfgVal.Tools.Codebooks = "packed_codebooks.bin"
	cfgVal.Catalog.Enabled = false

	for _, dir := range []string{cfgVal.Paths.SourceDir, cfgVal.Tools.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMode selects the compatibility mode on the test config.
func WithMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archives.Mode = mode
	}
}

// WithCatalog enables the ledger on the test config.
func WithCatalog() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Enabled = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names into
// the tools directory. If names is empty, the default soundunpack tools are
// stubbed with scripts that exit 0.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.Tools.Psarc, b.cfg.Tools.Ww2ogg, b.cfg.Tools.Revorb}
		}
		for _, name := range names {
			WriteScript(b.t, filepath.Join(b.cfg.Tools.Dir, name), "exit 0\n")
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SourceDir)
}
