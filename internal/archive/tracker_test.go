package archive_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundunpack/internal/archive"
	"soundunpack/internal/procexec"
	"soundunpack/internal/progress"
	"soundunpack/internal/services"
	"soundunpack/internal/testsupport"
)

type exitCodeError struct{ code int }

func (e exitCodeError) Error() string { return "exit status" }
func (e exitCodeError) ExitCode() int { return e.code }

// fakePsarc emulates the archive tool: "list" prints a header plus one line
// per entry, "extract" writes the entries into the working directory.
type fakePsarc struct {
	entries    []string
	listErr    error
	extractErr error
	onExtract  func()
	calls      []procexec.Command
}

func (f *fakePsarc) Run(ctx context.Context, cmd procexec.Command, onStdout, onStderr func(string)) error {
	f.calls = append(f.calls, cmd)
	switch cmd.Args[0] {
	case "list":
		onStdout("Listing archive")
		for _, entry := range f.entries {
			onStdout(entry)
		}
		return f.listErr
	case "extract":
		for _, entry := range f.entries {
			path := filepath.Join(cmd.Dir, filepath.FromSlash(entry))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(entry), 0o644); err != nil {
				return err
			}
			onStdout("extracted " + entry)
		}
		if f.onExtract != nil {
			f.onExtract()
		}
		if f.extractErr != nil {
			return f.extractErr
		}
		return ctx.Err()
	}
	return errors.New("unexpected command")
}

type recordingReporter struct {
	totals []int
	added  int
}

func (r *recordingReporter) Start(_ string, total int) progress.Bar {
	r.totals = append(r.totals, total)
	return r
}

func (r *recordingReporter) Add(n int)       { r.added += n }
func (r *recordingReporter) Describe(string) {}
func (r *recordingReporter) Finish()         {}

var testSpec = archive.Spec{Name: "NMSARC.515F1D3.pak", BasePath: "AUDIO"}

func newTracker(t *testing.T, fake *fakePsarc, opts ...archive.TrackerOption) (*archive.Tracker, archive.Layout) {
	t.Helper()
	base := t.TempDir()
	layout := archive.Layout{SourceDir: filepath.Join(base, "source"), TmpDir: filepath.Join(base, "tmp")}
	testsupport.WriteContent(t, layout.ArchivePath(testSpec), "archive")
	runner := procexec.New(procexec.WithExecutor(fake), procexec.WithPlatform("linux"))
	return archive.NewTracker(runner, "psarc", layout, opts...), layout
}

func TestExtractWritesMarkerAndSizesProgress(t *testing.T) {
	fake := &fakePsarc{entries: []string{"AUDIO/SOUNDBANKSINFO.XML", "AUDIO/1.WEM", "AUDIO/ENGLISH(US)/2.WEM"}}
	reporter := &recordingReporter{}
	tracker, layout := newTracker(t, fake, archive.WithProgress(reporter))

	result, err := tracker.Extract(context.Background(), []archive.Spec{testSpec})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(result.Extracted) != 1 {
		t.Fatalf("expected one extracted archive, got %+v", result)
	}

	dir := layout.ExtractDir(testSpec)
	state, err := archive.Inspect(dir)
	if err != nil || state != archive.StateComplete {
		t.Fatalf("state = %v, err = %v", state, err)
	}
	if len(reporter.totals) != 1 || reporter.totals[0] != 3 {
		t.Fatalf("expected progress sized to 3 entries, got %v", reporter.totals)
	}
	if reporter.added != 3 {
		t.Fatalf("expected 3 progress steps, got %d", reporter.added)
	}
	if fake.calls[1].Dir != dir {
		t.Fatalf("extract should run inside %s, ran in %s", dir, fake.calls[1].Dir)
	}
	if _, err := os.Stat(filepath.Join(testSpec.PayloadDir(layout.TmpDir), "1.WEM")); err != nil {
		t.Fatalf("expected payload in %s: %v", testSpec.PayloadDir(layout.TmpDir), err)
	}
}

func TestExtractSkipsCompleteArchives(t *testing.T) {
	fake := &fakePsarc{entries: []string{"AUDIO/1.WEM"}}
	tracker, layout := newTracker(t, fake)

	if _, err := tracker.Extract(context.Background(), []archive.Spec{testSpec}); err != nil {
		t.Fatalf("first Extract: %v", err)
	}
	fake.calls = nil
	before := snapshot(t, layout.TmpDir)

	result, err := tracker.Extract(context.Background(), []archive.Spec{testSpec})
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no tool invocations, got %d", len(fake.calls))
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected skipped archive, got %+v", result)
	}
	if after := snapshot(t, layout.TmpDir); after != before {
		t.Fatalf("filesystem changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestExtractRemovesIncompleteDirectoryFirst(t *testing.T) {
	var staleSeen bool
	fake := &fakePsarc{entries: []string{"AUDIO/1.WEM"}}
	tracker, layout := newTracker(t, fake)
	dir := layout.ExtractDir(testSpec)
	stale := filepath.Join(dir, "AUDIO", "stale.WEM")
	testsupport.WriteContent(t, stale, "partial")
	fake.onExtract = func() {
		_, err := os.Stat(stale)
		staleSeen = err == nil
	}

	result, err := tracker.Extract(context.Background(), []archive.Spec{testSpec})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if staleSeen {
		t.Fatal("stale file should be removed before extraction")
	}
	if len(result.Cleaned) != 1 || len(result.Extracted) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	testsupport.AssertMissing(t, stale)
}

func TestExtractFailureRemovesDirectory(t *testing.T) {
	fake := &fakePsarc{entries: []string{"AUDIO/1.WEM"}, extractErr: exitCodeError{code: 5}}
	tracker, layout := newTracker(t, fake)

	_, err := tracker.Extract(context.Background(), []archive.Spec{testSpec})
	exitErr, ok := procexec.AsFatal(err)
	if !ok || exitErr.Code != 5 {
		t.Fatalf("expected fatal exit code 5, got %v", err)
	}
	testsupport.AssertMissing(t, layout.ExtractDir(testSpec))
}

func TestListFailureIsFatalAndLeavesNoDirectory(t *testing.T) {
	fake := &fakePsarc{listErr: exitCodeError{code: 2}}
	tracker, layout := newTracker(t, fake)

	_, err := tracker.Extract(context.Background(), []archive.Spec{testSpec})
	if exitErr, ok := procexec.AsFatal(err); !ok || exitErr.Code != 2 {
		t.Fatalf("expected fatal exit code 2, got %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("extract should not run after a failed listing, calls=%d", len(fake.calls))
	}
	testsupport.AssertMissing(t, layout.ExtractDir(testSpec))
}

func TestExtractCancellationRemovesDirectory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := &fakePsarc{entries: []string{"AUDIO/1.WEM", "AUDIO/2.WEM"}, onExtract: cancel}
	tracker, layout := newTracker(t, fake)

	_, err := tracker.Extract(ctx, []archive.Spec{testSpec})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	testsupport.AssertMissing(t, layout.ExtractDir(testSpec))
}

func TestExtractStopsBeforeNextArchiveWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakePsarc{}
	tracker, _ := newTracker(t, fake)

	if _, err := tracker.Extract(ctx, []archive.Spec{testSpec}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no tool calls, got %d", len(fake.calls))
	}
}

func TestCheckSources(t *testing.T) {
	layout := archive.Layout{SourceDir: t.TempDir()}
	specs := []archive.Spec{{Name: "A.pak"}, {Name: "B.pak"}}
	testsupport.WriteContent(t, filepath.Join(layout.SourceDir, "A.pak"), "a")

	err := archive.CheckSources(layout, specs)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "B.pak") {
		t.Fatalf("expected missing archive name in error, got %v", err)
	}

	testsupport.WriteContent(t, filepath.Join(layout.SourceDir, "B.pak"), "b")
	if err := archive.CheckSources(layout, specs); err != nil {
		t.Fatalf("CheckSources returned error: %v", err)
	}
}

func TestStatus(t *testing.T) {
	fake := &fakePsarc{entries: []string{"AUDIO/1.WEM"}}
	tracker, _ := newTracker(t, fake)
	missing := archive.Spec{Name: "OTHER.pak", BasePath: "AUDIO"}

	if _, err := tracker.Extract(context.Background(), []archive.Spec{testSpec}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	statuses, err := tracker.Status([]archive.Spec{testSpec, missing})
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if statuses[0].State != archive.StateComplete || statuses[0].ArchiveSize != int64(len("archive")) {
		t.Fatalf("unexpected status %+v", statuses[0])
	}
	if statuses[1].State != archive.StateAbsent || statuses[1].ArchiveSize != -1 {
		t.Fatalf("unexpected status %+v", statuses[1])
	}
}

func TestInspect(t *testing.T) {
	base := t.TempDir()
	plain := filepath.Join(base, "plain")
	testsupport.WriteContent(t, plain, "x")
	markerDir := filepath.Join(base, "markerdir")
	if err := os.MkdirAll(filepath.Join(markerDir, archive.MarkerFile), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want archive.State
	}{
		{name: "missing", path: filepath.Join(base, "missing"), want: archive.StateAbsent},
		{name: "empty dir", path: base, want: archive.StateIncomplete},
		{name: "plain file", path: plain, want: archive.StateIncomplete},
		{name: "marker is a directory", path: markerDir, want: archive.StateIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := archive.Inspect(tt.path)
			if err != nil {
				t.Fatalf("Inspect returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Inspect = %v, want %v", got, tt.want)
			}
		})
	}
}

func snapshot(t *testing.T, root string) string {
	t.Helper()
	var parts []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		parts = append(parts, rel+"@"+info.ModTime().String())
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return strings.Join(parts, ",")
}
