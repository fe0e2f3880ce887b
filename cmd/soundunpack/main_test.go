package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundunpack/internal/procexec"
	"soundunpack/internal/testsupport"
)

const psarcScript = `case "$1" in
list)
  echo "Listing $2"
  echo AUDIO/SOUNDBANKSINFO.XML
  echo AUDIO/1.WEM
  ;;
extract)
  mkdir -p AUDIO
  cat > AUDIO/SOUNDBANKSINFO.XML <<'XML'
<SoundBanksInfo><StreamedFiles><File Id="1" Language="SFX"><Path>Music\Theme.wem</Path></File></StreamedFiles></SoundBanksInfo>
XML
  echo data > AUDIO/1.WEM
  echo AUDIO/1.WEM
  ;;
esac
`

type cliTestEnv struct {
	configPath string
	sourceDir  string
	destDir    string
	toolsDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	env := &cliTestEnv{
		configPath: filepath.Join(base, "config.toml"),
		sourceDir:  filepath.Join(base, "source"),
		destDir:    filepath.Join(base, "destination"),
		toolsDir:   filepath.Join(base, "tools"),
	}
	for _, dir := range []string{env.sourceDir, env.toolsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	config := fmt.Sprintf(`[paths]
source_dir = %q
destination_dir = %q

[tools]
dir = %q
psarc = "psarc"
ww2ogg = "ww2ogg"
revorb = "revorb"
codebooks = "packed_codebooks.bin"

[archives]
mode = "legacy"

[catalog]
enabled = false
`, env.sourceDir, env.destDir, env.toolsDir)
	testsupport.WriteContent(t, env.configPath, config)
	return env
}

func (e *cliTestEnv) writeArchive(t *testing.T) {
	t.Helper()
	testsupport.WriteContent(t, filepath.Join(e.sourceDir, "NMSARC.515F1D3.pak"), "archive")
}

func (e *cliTestEnv) installTools(t *testing.T, psarc string) {
	t.Helper()
	testsupport.WriteScript(t, filepath.Join(e.toolsDir, "psarc"), psarc)
	testsupport.WriteScript(t, filepath.Join(e.toolsDir, "ww2ogg"), "cp \"$1\" \"$3\"\n")
	testsupport.WriteScript(t, filepath.Join(e.toolsDir, "revorb"), "exit 0\n")
	testsupport.WriteContent(t, filepath.Join(e.toolsDir, "packed_codebooks.bin"), "codebooks")
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{}, args...)
	if env != nil {
		full = append(full, "--config", env.configPath)
	}
	code := run(full, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "interrupted", err: fmt.Errorf("run: %w", context.Canceled), want: 0},
		{name: "fatal tool", err: fmt.Errorf("extract: %w", &procexec.ExitError{Code: 3, Fatal: true}), want: 3},
		{name: "recoverable tool", err: &procexec.ExitError{Code: 3}, want: 1},
		{name: "other", err: errors.New("boom"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunConvertsArchive(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeArchive(t)
	env.installTools(t, psarcScript)

	out, stderr, code := runCLI(t, env)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	requireContains(t, out, "1 files collected from NMSARC.515F1D3.pak")
	requireContains(t, out, "Done. 1 files converted, 0 files skipped and 0 errors")

	if _, err := os.Stat(filepath.Join(env.destDir, "Music", "Theme.ogg")); err != nil {
		t.Fatalf("expected converted file: %v", err)
	}
	testsupport.AssertMissing(t, filepath.Join(env.destDir, "soundunpack"))
}

func TestRunPropagatesFatalToolExitCode(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeArchive(t)
	env.installTools(t, "echo 'cannot open archive' >&2\nexit 3\n")

	_, stderr, code := runCLI(t, env)
	if code != 3 {
		t.Fatalf("exit code %d, want 3; stderr:\n%s", code, stderr)
	}
	requireContains(t, stderr, "non-zero status code 3")
}

func TestRunMissingArchiveFails(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, code := runCLI(t, env)
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	requireContains(t, stderr, "NMSARC.515F1D3.pak is not found")
}

func TestRunRejectsUnknownMode(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, code := runCLI(t, env, "--mode", "nope")
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	requireContains(t, stderr, "unknown compatibility mode")
}

func TestModesCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, code := runCLI(t, env, "modes")
	if code != 0 {
		t.Fatalf("modes exit code %d", code)
	}
	requireContains(t, out, "legacy *")
	requireContains(t, out, "NMSARC.5B11B94C.pak")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeArchive(t)

	out, _, code := runCLI(t, env, "status")
	if code != 0 {
		t.Fatalf("status exit code %d", code)
	}
	requireContains(t, out, "Mode: legacy")
	requireContains(t, out, "NMSARC.515F1D3.pak")
	requireContains(t, out, "absent")
}

func TestStatusMissingAfterKeptRun(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeArchive(t)
	env.installTools(t, psarcScript)

	if _, stderr, code := runCLI(t, env, "--keep"); code != 0 {
		t.Fatalf("run exit code %d, stderr:\n%s", code, stderr)
	}
	out, _, code := runCLI(t, env, "status", "--missing")
	if code != 0 {
		t.Fatalf("status exit code %d", code)
	}
	requireContains(t, out, "complete")
	requireContains(t, out, "Every sound bank entry has an extracted payload")
}

func TestDepsCommandReportsMissingTools(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, code := runCLI(t, env, "deps")
	if code != 1 {
		t.Fatalf("deps exit code %d, want 1", code)
	}
	requireContains(t, out, "psarc")

	env.installTools(t, "exit 0\n")
	if out, stderr, code := runCLI(t, env, "deps"); code != 0 {
		t.Fatalf("deps exit code %d after install:\n%s\n%s", code, out, stderr)
	}
}

func TestCatalogCommandWithoutLedger(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, code := runCLI(t, env, "catalog")
	if code != 0 {
		t.Fatalf("catalog exit code %d", code)
	}
	requireContains(t, out, "No catalog at")
}

func TestCleanCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	stage := filepath.Join(env.destDir, "Music", "Theme.ogg.part")
	testsupport.WriteContent(t, stage, "partial")

	out, _, code := runCLI(t, env, "clean", "--dry-run")
	if code != 0 {
		t.Fatalf("clean --dry-run exit code %d", code)
	}
	requireContains(t, out, "1 staged outputs would be removed")
	if _, err := os.Stat(stage); err != nil {
		t.Fatalf("dry run removed the stage: %v", err)
	}

	out, _, code = runCLI(t, env, "clean")
	if code != 0 {
		t.Fatalf("clean exit code %d", code)
	}
	requireContains(t, out, "Removed 1 staged outputs")
	testsupport.AssertMissing(t, stage)
}
