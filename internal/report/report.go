// Package report prints end-of-run summaries: the status line with counters,
// the table of failed conversions, per-archive collection counts, and
// destination collisions.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"soundunpack/internal/catalog"
	"soundunpack/internal/convert"
)

// Printer writes reports to a writer, colorizing when it is a terminal.
type Printer struct {
	w    io.Writer
	ok   *color.Color
	warn *color.Color
	bad  *color.Color
	dim  *color.Color
}

// NewPrinter constructs a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	return newPrinter(w, shouldColorize(w))
}

// NewPlainPrinter constructs a Printer that never emits color codes.
func NewPlainPrinter(w io.Writer) *Printer {
	return newPrinter(w, false)
}

func newPrinter(w io.Writer, colored bool) *Printer {
	p := &Printer{
		w:    w,
		ok:   color.New(color.FgGreen, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.ok, p.warn, p.bad, p.dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// StatusLine renders "Done. N files converted, M files skipped and K errors".
func (p *Printer) StatusLine(s convert.Summary) string {
	status := p.ok.Sprint(s.Status())
	if s.Interrupted {
		status = p.warn.Sprint(s.Status())
	}
	errs := strconv.Itoa(s.Errored)
	if s.Errored > 0 {
		errs = p.bad.Sprint(errs)
	}
	return fmt.Sprintf("%s. %d files converted, %d files skipped and %s errors", status, s.Converted, s.Skipped, errs)
}

// Summary prints the status line followed by the error table when any
// conversion failed.
func (p *Printer) Summary(s convert.Summary) {
	fmt.Fprintln(p.w, p.StatusLine(s))
	if len(s.Failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(s.Failures))
	for _, failure := range s.Failures {
		reason := ""
		if failure.Err != nil {
			reason = failure.Err.Error()
		}
		rows = append(rows, []string{failure.Source, failure.Destination, reason})
	}
	fmt.Fprintln(p.w, RenderTable("Errors", []string{"Source", "Destination", "Error"}, rows, nil, 0, 1, 2))
}

// Counts prints how many files each archive contributed.
func (p *Printer) Counts(counts []catalog.ArchiveCount) {
	total := 0
	for _, count := range counts {
		total += count.Admitted
		line := fmt.Sprintf("%d files collected from %s", count.Admitted, count.Archive)
		if count.Missing > 0 || count.Rejected > 0 {
			line += p.dim.Sprintf(" (%d not extracted, %d rejected)", count.Missing, count.Rejected)
		}
		fmt.Fprintln(p.w, line)
	}
	fmt.Fprintf(p.w, "%d files to proceed\n", total)
}

// Collisions prints destinations claimed by sources with different content.
func (p *Printer) Collisions(collisions []catalog.Collision) {
	if len(collisions) == 0 {
		return
	}
	rows := make([][]string, 0, len(collisions))
	for _, c := range collisions {
		resolved := c.Resolved
		if !c.Admitted {
			resolved += " (duplicate)"
		}
		rows = append(rows, []string{
			c.Key,
			c.Existing,
			fileSize(c.Existing),
			c.Incoming,
			fileSize(c.Incoming),
			resolved,
		})
	}
	headers := []string{"Destination", "Existing", "Size", "Incoming", "Size", "Written as"}
	aligns := []Alignment{AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignRight, AlignLeft}
	fmt.Fprintln(p.w, RenderTable("Collisions", headers, rows, aligns, 0, 1, 3, 5))
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.IBytes(uint64(info.Size()))
}
