package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"soundunpack/internal/logging"
	"soundunpack/internal/procexec"
	"soundunpack/internal/progress"
	"soundunpack/internal/services"
)

// CommandRunner executes the archive tool.
type CommandRunner interface {
	Run(ctx context.Context, cmd procexec.Command, opts ...procexec.RunOption) error
	CountLines(ctx context.Context, cmd procexec.Command, opts ...procexec.RunOption) (int, error)
}

// Layout locates source archives and extraction directories.
type Layout struct {
	SourceDir string
	TmpDir    string
}

// ArchivePath returns the source archive file for spec.
func (l Layout) ArchivePath(spec Spec) string {
	return filepath.Join(l.SourceDir, spec.Name)
}

// ExtractDir returns the extraction directory for spec.
func (l Layout) ExtractDir(spec Spec) string {
	return filepath.Join(l.TmpDir, spec.Folder())
}

// Status describes one archive for reporting.
type Status struct {
	Spec        Spec
	State       State
	ArchivePath string
	ExtractDir  string
	// ArchiveSize is -1 when the source archive is missing.
	ArchiveSize int64
}

// Result summarizes an Extract call.
type Result struct {
	Extracted []string
	Skipped   []string
	Cleaned   []string
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logging.NewComponentLogger(logger, "archive")
		}
	}
}

// WithProgress attaches a progress reporter for extraction.
func WithProgress(reporter progress.Reporter) TrackerOption {
	return func(t *Tracker) {
		if reporter != nil {
			t.progress = reporter
		}
	}
}

// WithClock overrides the time source used for marker timestamps.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker extracts archives and records their completion.
type Tracker struct {
	runner   CommandRunner
	tool     string
	layout   Layout
	logger   *slog.Logger
	progress progress.Reporter
	now      func() time.Time
	warned   bool
}

// NewTracker constructs a Tracker that drives the archive tool at toolPath.
func NewTracker(runner CommandRunner, toolPath string, layout Layout, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		runner:   runner,
		tool:     toolPath,
		layout:   layout,
		logger:   logging.NewNop(),
		progress: progress.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CheckSources verifies every archive file of specs exists in the source directory.
func CheckSources(layout Layout, specs []Spec) error {
	for _, spec := range specs {
		path := layout.ArchivePath(spec)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			continue
		}
		return services.Wrap(
			services.ErrConfiguration,
			"archive",
			"check sources",
			fmt.Sprintf("File %s is not found in %s", spec.Name, layout.SourceDir),
			err,
		)
	}
	return nil
}

// Status reports the extraction state of each archive.
func (t *Tracker) Status(specs []Spec) ([]Status, error) {
	statuses := make([]Status, 0, len(specs))
	for _, spec := range specs {
		dir := t.layout.ExtractDir(spec)
		state, err := Inspect(dir)
		if err != nil {
			return nil, err
		}
		status := Status{
			Spec:        spec,
			State:       state,
			ArchivePath: t.layout.ArchivePath(spec),
			ExtractDir:  dir,
			ArchiveSize: -1,
		}
		if info, err := os.Stat(status.ArchivePath); err == nil && info.Mode().IsRegular() {
			status.ArchiveSize = info.Size()
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Extract brings every archive in specs to the complete state, in order.
// Tool failures surface as fatal procexec.ExitError values.
func (t *Tracker) Extract(ctx context.Context, specs []Spec) (Result, error) {
	var result Result
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		archiveCtx := services.WithArchive(ctx, spec.Name)
		logger := logging.WithContext(archiveCtx, t.logger)
		dir := t.layout.ExtractDir(spec)

		state, err := Inspect(dir)
		if err != nil {
			return result, services.Wrap(services.ErrValidation, "archive", "inspect", spec.Name, err)
		}

		switch state {
		case StateComplete:
			logger.Info("skipping extracted archive", logging.String("dir", dir))
			result.Skipped = append(result.Skipped, spec.Name)
			continue
		case StateIncomplete:
			if err := os.RemoveAll(dir); err != nil {
				return result, services.Wrap(services.ErrValidation, "archive", "clean", "Remove incomplete extraction", err)
			}
			result.Cleaned = append(result.Cleaned, spec.Name)
			t.warnIncomplete(logger, dir)
		}

		if err := t.extractOne(archiveCtx, logger, spec, dir); err != nil {
			return result, err
		}
		result.Extracted = append(result.Extracted, spec.Name)
	}
	return result, nil
}

func (t *Tracker) warnIncomplete(logger *slog.Logger, dir string) {
	if t.warned {
		logger.Info("removed incomplete extraction", logging.String("dir", dir))
		return
	}
	t.warned = true
	logging.WarnWithContext(logger, "removed incomplete extraction; extraction cannot be interrupted safely", "extraction_incomplete",
		logging.String("dir", dir),
		logging.String(logging.FieldErrorHint, "let extraction finish before interrupting"),
		logging.String(logging.FieldImpact, "archive will be extracted again from scratch"),
	)
}

func (t *Tracker) extractOne(ctx context.Context, logger *slog.Logger, spec Spec, dir string) (err error) {
	archivePath := t.layout.ArchivePath(spec)

	lines, err := t.runner.CountLines(ctx, procexec.Command{Path: t.tool, Args: []string{"list", archivePath}})
	if err != nil {
		return err
	}
	entries := max(lines-1, 0)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "archive", "mkdir", "Create extraction directory", err)
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				logger.Error("failed to remove partial extraction",
					logging.String("dir", dir),
					logging.Error(rmErr),
					logging.String(logging.FieldEventType, "extraction_cleanup_failed"),
				)
			}
		}
	}()

	logger.Info("extracting archive",
		logging.String("archive_path", archivePath),
		logging.String("dir", dir),
		logging.Int("entries", entries),
	)
	bar := t.progress.Start(fmt.Sprintf("Extracting %q", spec.Name), entries)
	defer bar.Finish()

	started := t.now()
	err = t.runner.Run(ctx, procexec.Command{Path: t.tool, Args: []string{"extract", archivePath}, Dir: dir},
		procexec.WithLineHandler(func(string) { bar.Add(1) }),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("extraction cancelled; partial output removed",
				logging.String(logging.FieldEventType, "extraction_cancelled"),
				logging.String(logging.FieldErrorHint, "rerun to extract again"),
				logging.String(logging.FieldImpact, "archive not extracted"),
			)
		}
		return err
	}

	if err = writeMarker(dir, entries, t.now()); err != nil {
		return services.Wrap(services.ErrValidation, "archive", "mark complete", spec.Name, err)
	}
	logger.Info("archive extracted",
		logging.Int("entries", entries),
		logging.Duration("elapsed", t.now().Sub(started)),
	)
	return nil
}
