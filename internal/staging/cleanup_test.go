package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"soundunpack/internal/logging"
	"soundunpack/internal/testsupport"
)

func TestCleanStaleStagesInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStaleStages(context.Background(), dir, ".part", logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q, got %+v", dir, result)
		}
	}
}

func TestCleanStaleStagesRemovesOnlyStages(t *testing.T) {
	root := t.TempDir()
	stage := filepath.Join(root, "Music", "Theme.ogg.part")
	done := filepath.Join(root, "Music", "Theme.ogg")
	workspaceStage := filepath.Join(root, "soundunpack", "A", "x.part")
	testsupport.WriteContent(t, stage, "partial")
	testsupport.WriteContent(t, done, "complete")
	testsupport.WriteContent(t, workspaceStage, "extracted")

	result := CleanStaleStages(context.Background(), root, ".part", logging.NewNop(), filepath.Join(root, "soundunpack"))

	if len(result.Removed) != 1 || result.Removed[0] != stage {
		t.Fatalf("unexpected removed list %v", result.Removed)
	}
	testsupport.AssertMissing(t, stage)
	if _, err := os.Stat(done); err != nil {
		t.Fatal("converted file should remain")
	}
	if _, err := os.Stat(workspaceStage); err != nil {
		t.Fatal("skipped directory should not be scanned")
	}
}

func TestRemoveWorkspace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tmp")
	testsupport.WriteContent(t, filepath.Join(dir, "A", "AUDIO", "1.WEM"), "x")

	if err := RemoveWorkspace(dir, logging.NewNop()); err != nil {
		t.Fatalf("RemoveWorkspace returned error: %v", err)
	}
	testsupport.AssertMissing(t, dir)
	if err := RemoveWorkspace("", nil); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}

func TestListDirectoriesInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "/nonexistent/path/12345"} {
		dirs, err := ListDirectories(dir)
		if err != nil {
			t.Errorf("unexpected error for %q: %v", dir, err)
		}
		if len(dirs) != 0 {
			t.Errorf("expected no dirs for %q", dir)
		}
	}
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(tmpDir, "NMSARC.515F1D3", "AUDIO", "1.WEM"), 100)
	testsupport.WriteFile(t, filepath.Join(tmpDir, "NMSARC.515F1D3", "AUDIO", "2.WEM"), 50)
	testsupport.WriteContent(t, filepath.Join(tmpDir, "loose.txt"), "ignored")

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories returned error: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected 1 dir, got %d", len(dirs))
	}
	if dirs[0].Name != "NMSARC.515F1D3" || dirs[0].Size != 150 {
		t.Fatalf("unexpected dir info %+v", dirs[0])
	}
}

func TestLockIsExclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "work")
	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if _, err := Acquire(dir); err == nil {
		t.Fatal("expected second acquire to fail while locked")
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	second, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire after release returned error: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
}
