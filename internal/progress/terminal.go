package progress

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Terminal draws progress bars with schollz/progressbar.
type Terminal struct {
	w io.Writer
}

// NewTerminal constructs a Terminal reporter writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Start implements Reporter.
func (t *Terminal) Start(description string, total int) Bar {
	limit := total
	if limit < 0 {
		limit = -1
	}
	bar := progressbar.NewOptions(limit,
		progressbar.OptionSetWriter(t.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(t.w, "\n")
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer: "█", SaucerHead: "█", SaucerPadding: "░",
			BarStart: "[", BarEnd: "]",
		}),
	)
	return &terminalBar{bar: bar}
}

type terminalBar struct {
	bar *progressbar.ProgressBar
}

func (b *terminalBar) Add(n int) {
	_ = b.bar.Add(n)
}

func (b *terminalBar) Describe(description string) {
	b.bar.Describe(description)
}

func (b *terminalBar) Finish() {
	_ = b.bar.Finish()
}
