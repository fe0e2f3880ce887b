// Package progress renders per-stage progress for extraction, mapping, and
// conversion. Terminals get an interactive bar; other outputs get sampled log
// lines so long runs stay observable under a supervisor or in CI.
package progress

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Bar advances one unit of work at a time.
type Bar interface {
	Add(n int)
	Describe(description string)
	Finish()
}

// Reporter starts bars for a pipeline stage.
type Reporter interface {
	// Start opens a bar. A negative total means the amount of work is unknown.
	Start(description string, total int) Bar
}

// New returns a terminal reporter when w is a TTY and a log-backed reporter
// otherwise.
func New(w io.Writer, logger *slog.Logger) Reporter {
	if isTerminal(w) {
		return NewTerminal(w)
	}
	return NewLogReporter(logger)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Nop discards all progress.
type Nop struct{}

// Start implements Reporter.
func (Nop) Start(string, int) Bar { return nopBar{} }

type nopBar struct{}

func (nopBar) Add(int)         {}
func (nopBar) Describe(string) {}
func (nopBar) Finish()         {}
