package progress

import (
	"log/slog"

	"soundunpack/internal/logging"
)

// LogReporter emits progress as log records, sampled every ten percent.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter constructs a LogReporter.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logging.NewComponentLogger(logger, "progress")}
}

// Start implements Reporter.
func (r *LogReporter) Start(description string, total int) Bar {
	bar := &logBar{
		logger:      r.logger,
		description: description,
		total:       total,
		sampler:     logging.NewProgressSampler(10),
	}
	bar.emit()
	return bar
}

type logBar struct {
	logger      *slog.Logger
	sampler     *logging.ProgressSampler
	description string
	total       int
	done        int
	finished    bool
}

func (b *logBar) Add(n int) {
	b.done += n
	b.emit()
}

func (b *logBar) Describe(description string) {
	b.description = description
}

func (b *logBar) Finish() {
	if b.finished {
		return
	}
	b.finished = true
	b.logger.Info("progress complete",
		logging.String("task", b.description),
		logging.Int("completed", b.done),
	)
}

func (b *logBar) emit() {
	percent := -1.0
	if b.total > 0 {
		percent = float64(b.done) * 100 / float64(b.total)
	}
	if !b.sampler.ShouldLog(percent, b.description, "") {
		return
	}
	attrs := []logging.Attr{
		logging.String("task", b.description),
		logging.Int("completed", b.done),
	}
	if b.total >= 0 {
		attrs = append(attrs, logging.Int("total", b.total))
	}
	if percent >= 0 {
		attrs = append(attrs, logging.Int("percent", int(percent)))
	}
	b.logger.Info("progress", logging.Args(attrs...)...)
}
