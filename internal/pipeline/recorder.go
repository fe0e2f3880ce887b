package pipeline

import (
	"context"
	"log/slog"

	"soundunpack/internal/config"
	"soundunpack/internal/convert"
	"soundunpack/internal/ledger"
	"soundunpack/internal/logging"
)

// recorder writes run history to the ledger. A nil store turns every method
// into a no-op, and the first write failure disables further writes.
type recorder struct {
	store  *ledger.Store
	runID  string
	logger *slog.Logger
}

func openRecorder(ctx context.Context, logger *slog.Logger, cfg *config.Config, runID, mode string) *recorder {
	rec := &recorder{runID: runID, logger: logger}
	if !cfg.Catalog.Enabled {
		return rec
	}
	store, err := ledger.Open(cfg.CatalogPath())
	if err != nil {
		rec.disable("open", err)
		return rec
	}
	if _, err := store.StartRun(ctx, runID, ledger.RunInfo{
		Mode:           mode,
		SourceDir:      cfg.Paths.SourceDir,
		DestinationDir: cfg.Paths.DestinationDir,
	}); err != nil {
		_ = store.Close()
		rec.disable("start run", err)
		return rec
	}
	rec.store = store
	logger.Debug("catalog ledger opened", logging.String("path", store.Path()))
	return rec
}

func (r *recorder) observe(ctx context.Context) func(convert.Result) {
	return func(result convert.Result) {
		if r.store == nil {
			return
		}
		if err := r.store.RecordResult(context.WithoutCancel(ctx), r.runID, result); err != nil {
			r.disable("record result", err)
		}
	}
}

func (r *recorder) finish(ctx context.Context, status string, summary convert.Summary) {
	if r.store == nil {
		return
	}
	if err := r.store.FinishRun(context.WithoutCancel(ctx), r.runID, status, summary); err != nil {
		r.disable("finish run", err)
	}
}

func (r *recorder) close() {
	if r.store != nil {
		_ = r.store.Close()
		r.store = nil
	}
}

func (r *recorder) disable(op string, err error) {
	logging.WarnWithContext(r.logger, "catalog ledger unavailable", "catalog_unavailable",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "delete the catalog database or set catalog.enabled = false"),
		logging.String(logging.FieldImpact, "run history not recorded"),
	)
	r.close()
}
