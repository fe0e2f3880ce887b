package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"soundunpack/internal/archive"
	"soundunpack/internal/catalog"
	"soundunpack/internal/config"
	"soundunpack/internal/convert"
	"soundunpack/internal/ledger"
	"soundunpack/internal/logging"
	"soundunpack/internal/preflight"
	"soundunpack/internal/progress"
	"soundunpack/internal/services"
	"soundunpack/internal/staging"
)

// Stage names carried in the context and rendered in log lines.
const (
	StageExtracting = "Extracting"
	StageMapping    = "Mapping"
	StageConverting = "Converting"
)

// spaceFactor scales the total archive size into the free-space estimate
// for extracted payloads plus converted output.
const spaceFactor = 2

// Runner drives the external tools. *procexec.Runner satisfies it.
type Runner = archive.CommandRunner

// Options configures a pipeline run.
type Options struct {
	Config   *config.Config
	Runner   Runner
	Logger   *slog.Logger
	Progress progress.Reporter
	// Keep leaves the temporary directory in place after a completed run.
	Keep bool
}

// Outcome describes a finished or interrupted run.
type Outcome struct {
	RunID      string
	Mode       archive.Mode
	Preflight  []preflight.Result
	Extraction archive.Result
	Counts     []catalog.ArchiveCount
	Collisions []catalog.Collision
	Summary    convert.Summary
	// WorkspaceRemoved reports whether the temporary directory was deleted.
	WorkspaceRemoved bool
}

// Run executes a full pass. Configuration and fatal tool errors are returned;
// cancellation yields an Outcome whose summary is marked interrupted.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "run", "configuration is required", nil)
	}
	if opts.Runner == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "run", "command runner is required", nil)
	}
	baseLogger := opts.Logger
	if baseLogger == nil {
		baseLogger = logging.NewNop()
	}
	reporter := opts.Progress
	if reporter == nil {
		reporter = progress.Nop{}
	}

	mode, err := archive.ResolveMode(cfg.Archives.Mode, cfg.Modes)
	if err != nil {
		return nil, err
	}
	if err := cfg.CheckDirectories(); err != nil {
		return nil, err
	}
	layout := archive.Layout{SourceDir: cfg.Paths.SourceDir, TmpDir: cfg.Paths.TmpDir}
	if err := archive.CheckSources(layout, mode.Archives); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "Create output directories", err)
	}

	outcome := &Outcome{RunID: ledger.NewRunID(), Mode: mode}
	ctx = services.WithRunID(ctx, outcome.RunID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(baseLogger, "pipeline"))
	logger.Info("starting run",
		logging.String("mode", mode.Name),
		logging.String("source_dir", cfg.Paths.SourceDir),
		logging.String("destination_dir", cfg.Paths.DestinationDir),
		logging.String("tmp_dir", cfg.Paths.TmpDir),
	)

	outcome.Preflight = runPreflight(logger, cfg, layout, mode.Archives)

	lock, err := staging.Acquire(cfg.Paths.TmpDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	rec := openRecorder(ctx, logger, cfg, outcome.RunID, mode.Name)
	defer rec.close()

	r := &run{
		cfg:      cfg,
		runner:   opts.Runner,
		logger:   baseLogger,
		progress: reporter,
		layout:   layout,
		specs:    mode.Archives,
		recorder: rec,
	}
	if err := r.execute(ctx, outcome); err != nil {
		if !errors.Is(err, context.Canceled) {
			rec.finish(ctx, ledger.RunFailed, outcome.Summary)
			return outcome, err
		}
		outcome.Summary.Interrupted = true
	}

	status := ledger.RunDone
	if outcome.Summary.Interrupted {
		status = ledger.RunInterrupted
	}
	rec.finish(ctx, status, outcome.Summary)

	if outcome.Summary.Interrupted || opts.Keep || cfg.Paths.KeepTmp {
		logger.Info("keeping temporary directory", logging.String("path", cfg.Paths.TmpDir))
		return outcome, nil
	}
	// The lock file lives inside the workspace.
	_ = lock.Release()
	if err := staging.RemoveWorkspace(cfg.Paths.TmpDir, logger); err == nil {
		outcome.WorkspaceRemoved = true
	}
	return outcome, nil
}

type run struct {
	cfg      *config.Config
	runner   Runner
	logger   *slog.Logger
	progress progress.Reporter
	layout   archive.Layout
	specs    []archive.Spec
	recorder *recorder
}

func (r *run) execute(ctx context.Context, outcome *Outcome) error {
	tracker := archive.NewTracker(r.runner, r.cfg.PsarcBinary(), r.layout,
		archive.WithLogger(r.logger),
		archive.WithProgress(r.progress),
	)
	extraction, err := tracker.Extract(services.WithStage(ctx, StageExtracting), r.specs)
	outcome.Extraction = extraction
	if err != nil {
		return err
	}

	builder := catalog.NewBuilder(catalog.Layout{
		TmpDir:              r.cfg.Paths.TmpDir,
		DestinationDir:      r.cfg.Paths.DestinationDir,
		MetadataFile:        r.cfg.Archives.MetadataFile,
		OutputExtension:     r.cfg.Archives.OutputExtension,
		UnlocalizedLanguage: r.cfg.Archives.UnlocalizedLanguage,
	},
		catalog.WithLogger(r.logger),
		catalog.WithProgress(r.progress),
	)
	built, err := builder.Build(services.WithStage(ctx, StageMapping), r.specs)
	if built != nil {
		outcome.Counts = built.Counts
		outcome.Collisions = built.Collisions
	}
	if err != nil {
		return err
	}

	converter := convert.NewConverter(r.runner, convert.Tools{
		Converter: r.cfg.Ww2oggBinary(),
		Fixup:     r.cfg.RevorbBinary(),
		Codebooks: r.cfg.CodebooksPath(),
	})
	loop := convert.NewLoop(converter,
		convert.WithLogger(r.logger),
		convert.WithProgress(r.progress),
		convert.WithObserver(r.recorder.observe(ctx)),
	)
	outcome.Summary = loop.Run(services.WithStage(ctx, StageConverting), built.Mapping)
	return nil
}

func runPreflight(logger *slog.Logger, cfg *config.Config, layout archive.Layout, specs []archive.Spec) []preflight.Result {
	var total uint64
	for _, spec := range specs {
		if size, err := archiveSize(layout.ArchivePath(spec)); err == nil {
			total += size
		}
	}
	results := preflight.RunAll(cfg, total*spaceFactor)
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported issue before the run runs out of space or permissions"),
			logging.String(logging.FieldImpact, "run may fail partway through"),
		)
	}
	return results
}

func archiveSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}
