package convert_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"soundunpack/internal/catalog"
	"soundunpack/internal/convert"
	"soundunpack/internal/testsupport"
)

type stubConverter struct {
	fail    map[string]error
	onCall  func(destination string)
	calls   []string
	ctxErrs []error
}

func (s *stubConverter) Convert(ctx context.Context, source, destination string) error {
	s.calls = append(s.calls, destination)
	if s.onCall != nil {
		s.onCall(destination)
	}
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if err := s.fail[destination]; err != nil {
		return err
	}
	return os.WriteFile(destination, []byte(source), 0o644)
}

func buildMapping(t *testing.T, dir string, names ...string) *catalog.Mapping {
	t.Helper()
	m := catalog.NewMapping()
	for _, name := range names {
		if err := m.Add(filepath.Join(dir, name), catalog.Entry{Source: "src-" + name, Archive: "A.pak"}); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestLoopCountsOutcomes(t *testing.T) {
	dir := t.TempDir()
	mapping := buildMapping(t, dir, "a.ogg", "b.ogg", "c.ogg", "d.ogg")
	testsupport.WriteContent(t, filepath.Join(dir, "b.ogg"), "existing")
	boom := errors.New("boom")
	conv := &stubConverter{fail: map[string]error{filepath.Join(dir, "c.ogg"): boom}}

	var observed []convert.Result
	summary := convert.NewLoop(conv, convert.WithObserver(func(r convert.Result) {
		observed = append(observed, r)
	})).Run(context.Background(), mapping)

	if summary.Status() != "Done" || summary.Interrupted {
		t.Fatalf("unexpected status %q", summary.Status())
	}
	if summary.Converted != 2 || summary.Skipped != 1 || summary.Errored != 1 || summary.Total != 4 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(conv.calls) != 3 {
		t.Fatalf("existing destination should not invoke tools, calls=%v", conv.calls)
	}
	failure := summary.Failures[0]
	if failure.Source != "src-c.ogg" || failure.Destination != filepath.Join(dir, "c.ogg") || !errors.Is(failure.Err, boom) {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if len(observed) != 4 || observed[1].Outcome != convert.Skipped {
		t.Fatalf("unexpected observed results %+v", observed)
	}
}

func TestLoopRerunSkipsEverything(t *testing.T) {
	dir := t.TempDir()
	mapping := buildMapping(t, dir, "a.ogg", "b.ogg")
	conv := &stubConverter{}
	loop := convert.NewLoop(conv)

	first := loop.Run(context.Background(), mapping)
	if first.Converted != 2 {
		t.Fatalf("first run converted %d", first.Converted)
	}
	conv.calls = nil

	second := loop.Run(context.Background(), mapping)
	if second.Converted != 0 || second.Skipped != 2 || len(conv.calls) != 0 {
		t.Fatalf("expected all skipped without tool calls, got %+v calls=%v", second, conv.calls)
	}
}

func TestLoopFinishesCurrentFileOnCancel(t *testing.T) {
	dir := t.TempDir()
	mapping := buildMapping(t, dir, "a.ogg", "b.ogg", "c.ogg")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conv := &stubConverter{onCall: func(string) { cancel() }}
	summary := convert.NewLoop(conv).Run(ctx, mapping)

	if !summary.Interrupted || summary.Status() != "Interrupted" {
		t.Fatalf("expected interrupted summary, got %+v", summary)
	}
	if summary.Converted != 1 || summary.Processed() != 1 {
		t.Fatalf("expected exactly the in-flight file to finish, got %+v", summary)
	}
	if conv.ctxErrs[0] != nil {
		t.Fatalf("in-flight conversion must not observe cancellation, got %v", conv.ctxErrs[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "a.ogg")); err != nil {
		t.Fatalf("in-flight output should be committed: %v", err)
	}
	testsupport.AssertMissing(t, filepath.Join(dir, "b.ogg"))
}

func TestLoopCancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conv := &stubConverter{}

	summary := convert.NewLoop(conv).Run(ctx, buildMapping(t, dir, "a.ogg"))
	if !summary.Interrupted || len(conv.calls) != 0 {
		t.Fatalf("expected no work after cancellation, got %+v", summary)
	}
}

func TestLoopCancelDuringLastFileIsInterrupted(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conv := &stubConverter{onCall: func(string) { cancel() }}

	summary := convert.NewLoop(conv).Run(ctx, buildMapping(t, dir, "only.ogg"))
	if !summary.Interrupted || summary.Converted != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
