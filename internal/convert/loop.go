package convert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"soundunpack/internal/catalog"
	"soundunpack/internal/fileutil"
	"soundunpack/internal/logging"
	"soundunpack/internal/progress"
)

// Outcome classifies one conversion.
type Outcome int

const (
	Converted Outcome = iota
	Skipped
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Converted:
		return "converted"
	case Skipped:
		return "skipped"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the recorded outcome for one mapping entry.
type Result struct {
	Source      string
	Destination string
	Archive     string
	Outcome     Outcome
	Err         error
}

// Summary aggregates the results of a loop run.
type Summary struct {
	Total     int
	Converted int
	Skipped   int
	Errored   int
	// Failures lists errored results in processing order.
	Failures    []Result
	Interrupted bool
	Elapsed     time.Duration
}

// Status is "Interrupted" for cancelled runs and "Done" otherwise.
func (s Summary) Status() string {
	if s.Interrupted {
		return "Interrupted"
	}
	return "Done"
}

// Processed is the number of entries that reached an outcome.
func (s Summary) Processed() int {
	return s.Converted + s.Skipped + s.Errored
}

func (s *Summary) record(result Result) {
	switch result.Outcome {
	case Converted:
		s.Converted++
	case Skipped:
		s.Skipped++
	case Errored:
		s.Errored++
		s.Failures = append(s.Failures, result)
	}
}

// FileConverter produces one destination from one source.
type FileConverter interface {
	Convert(ctx context.Context, source, destination string) error
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logging.NewComponentLogger(logger, "convert")
		}
	}
}

// WithProgress attaches a progress reporter.
func WithProgress(reporter progress.Reporter) LoopOption {
	return func(l *Loop) {
		if reporter != nil {
			l.progress = reporter
		}
	}
}

// WithObserver registers a callback invoked after every recorded result.
func WithObserver(fn func(Result)) LoopOption {
	return func(l *Loop) {
		if fn != nil {
			l.observers = append(l.observers, fn)
		}
	}
}

// Loop converts every entry of a mapping in order.
type Loop struct {
	converter FileConverter
	logger    *slog.Logger
	progress  progress.Reporter
	observers []func(Result)
	now       func() time.Time
}

// NewLoop constructs a Loop.
func NewLoop(converter FileConverter, opts ...LoopOption) *Loop {
	l := &Loop{
		converter: converter,
		logger:    logging.NewNop(),
		progress:  progress.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes mapping until done or until ctx is cancelled. Cancellation is
// checked before each entry; the tools of an entry already started run under
// a context that ignores it.
func (l *Loop) Run(ctx context.Context, mapping *catalog.Mapping) Summary {
	started := l.now()
	summary := Summary{Total: mapping.Len()}
	toolCtx := context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, l.logger)

	logger.Info("converting files", logging.Int("files", summary.Total))
	bar := l.progress.Start("Converting files", summary.Total)
	defer bar.Finish()

	for destination, entry := range mapping.All() {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		result := l.convertOne(toolCtx, logger, destination, entry)
		summary.record(result)
		for _, observe := range l.observers {
			observe(result)
		}
		bar.Add(1)
		bar.Describe(fmt.Sprintf("Converting files (%d skipped, %d errors)", summary.Skipped, summary.Errored))
	}
	// A signal during the last file still reports the run as interrupted.
	if !summary.Interrupted && ctx.Err() != nil {
		summary.Interrupted = true
	}

	summary.Elapsed = l.now().Sub(started)
	logger.Info("conversion finished",
		logging.String("status", summary.Status()),
		logging.Int("converted", summary.Converted),
		logging.Int("skipped", summary.Skipped),
		logging.Int("errors", summary.Errored),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary
}

func (l *Loop) convertOne(ctx context.Context, logger *slog.Logger, destination string, entry catalog.Entry) Result {
	result := Result{Source: entry.Source, Destination: destination, Archive: entry.Archive}

	exists, err := fileutil.Exists(destination)
	if err != nil {
		result.Outcome = Errored
		result.Err = err
		return result
	}
	if exists {
		result.Outcome = Skipped
		return result
	}

	if err := l.converter.Convert(ctx, entry.Source, destination); err != nil {
		result.Outcome = Errored
		result.Err = err
		logging.ErrorWithContext(logger, "conversion failed", "conversion_failed",
			logging.String(logging.FieldSource, entry.Source),
			logging.String(logging.FieldDestination, destination),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the source file and tool installation"),
		)
		return result
	}
	result.Outcome = Converted
	logger.Debug("file converted",
		logging.String(logging.FieldSource, entry.Source),
		logging.String(logging.FieldDestination, destination),
	)
	return result
}
