package procexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"soundunpack/internal/logging"
	"soundunpack/internal/services"
)

const (
	// DefaultLauncher runs Windows executables on other platforms.
	DefaultLauncher = "wine"

	stderrTailLines = 20
)

// Command describes one external tool invocation.
type Command struct {
	Path string
	Args []string
	// Dir is the working directory; empty inherits the current one.
	Dir string
}

// Argv returns the full argument vector including the tool path.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	return append(argv, c.Args...)
}

// String renders the command for logs and error messages.
func (c Command) String() string {
	parts := c.Argv()
	for i, part := range parts {
		if part == "" || strings.ContainsAny(part, " \t\"'") {
			parts[i] = strconv.Quote(part)
		}
	}
	return strings.Join(parts, " ")
}

// Mode selects what happens to a command's output.
type Mode int

const (
	// Silent discards stdout. Stderr is retained for error reporting only.
	Silent Mode = iota
	// Streaming delivers stdout lines to the line handler, or forwards output
	// to the runner's writers when no handler is set.
	Streaming
)

// ExitError reports a tool that exited with a non-zero status.
type ExitError struct {
	Command Command
	Code    int
	// Stderr holds the last lines the tool wrote to stderr.
	Stderr string
	// Fatal marks failures that must terminate the program with Code.
	Fatal bool
	Err   error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %s returned non-zero status code %d", e.Command.String(), e.Code)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += ": " + lastLine(tail)
	}
	return msg
}

func (e *ExitError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrExternalTool}
	}
	return []error{services.ErrExternalTool, e.Err}
}

// ExitCode returns the tool's exit status.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// AsFatal reports whether err carries a fatal ExitError.
func AsFatal(err error) (*ExitError, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Fatal {
		return exitErr, true
	}
	return nil, false
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLauncher overrides the compatibility launcher used for .exe tools.
func WithLauncher(launcher string) Option {
	return func(r *Runner) {
		if strings.TrimSpace(launcher) != "" {
			r.launcher = strings.TrimSpace(launcher)
		}
	}
}

// WithPlatform overrides the detected operating system.
func WithPlatform(goos string) Option {
	return func(r *Runner) {
		if goos != "" {
			r.goos = goos
		}
	}
}

// WithOutput sets the writers used by Streaming commands that have no line handler.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		if stdout != nil {
			r.stdout = stdout
		}
		if stderr != nil {
			r.stderr = stderr
		}
	}
}

// WithLogger attaches a logger for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logging.NewComponentLogger(logger, "procexec")
		}
	}
}

// Runner executes external tools.
type Runner struct {
	exec     Executor
	launcher string
	goos     string
	stdout   io.Writer
	stderr   io.Writer
	logger   *slog.Logger
}

// New constructs a Runner backed by os/exec.
func New(opts ...Option) *Runner {
	r := &Runner{
		exec:     commandExecutor{},
		launcher: DefaultLauncher,
		goos:     runtime.GOOS,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOption adjusts a single invocation.
type RunOption func(*runConfig)

type runConfig struct {
	mode   Mode
	onLine func(string)
	noExit bool
}

// WithMode selects the output mode.
func WithMode(mode Mode) RunOption {
	return func(c *runConfig) {
		c.mode = mode
	}
}

// WithLineHandler streams each stdout line to fn as it is produced.
func WithLineHandler(fn func(string)) RunOption {
	return func(c *runConfig) {
		c.mode = Streaming
		c.onLine = fn
	}
}

// WithNoExit makes a non-zero exit recoverable instead of fatal.
func WithNoExit() RunOption {
	return func(c *runConfig) {
		c.noExit = true
	}
}

// Wrap applies the compatibility launcher when the tool is a Windows
// executable and the platform is not Windows.
func (r *Runner) Wrap(cmd Command) Command {
	if r.goos == "windows" || !strings.EqualFold(extOf(cmd.Path), ".exe") {
		return cmd
	}
	args := make([]string, 0, len(cmd.Args)+1)
	args = append(args, cmd.Path)
	args = append(args, cmd.Args...)
	return Command{Path: r.launcher, Args: args, Dir: cmd.Dir}
}

// Run executes cmd to completion.
func (r *Runner) Run(ctx context.Context, cmd Command, opts ...RunOption) error {
	cfg := runConfig{mode: Silent}
	for _, opt := range opts {
		opt(&cfg)
	}

	wrapped := r.Wrap(cmd)
	tail := newLineTail(stderrTailLines)

	var onStdout func(string)
	onStderr := tail.add
	if cfg.mode == Streaming {
		if cfg.onLine != nil {
			onStdout = cfg.onLine
		} else {
			onStdout = r.forwarder(r.stdout)
			onStderr = func(line string) {
				tail.add(line)
				r.forwarder(r.stderr)(line)
			}
		}
	}

	r.logger.Debug("running external tool",
		logging.String("command", wrapped.String()),
		logging.String("dir", wrapped.Dir),
		logging.Bool("no_exit", cfg.noExit),
	)

	err := r.exec.Run(ctx, wrapped, onStdout, onStderr)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", wrapped.String(), ctxErr)
	}

	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) && coder.ExitCode() > 0 {
		return &ExitError{
			Command: wrapped,
			Code:    coder.ExitCode(),
			Stderr:  tail.String(),
			Fatal:   !cfg.noExit,
			Err:     err,
		}
	}
	return services.Wrap(services.ErrExternalTool, "procexec", "run", wrapped.String(), err)
}

// CountLines runs cmd silently and returns the number of stdout lines.
func (r *Runner) CountLines(ctx context.Context, cmd Command, opts ...RunOption) (int, error) {
	count := 0
	opts = append(opts, WithLineHandler(func(string) { count++ }))
	if err := r.Run(ctx, cmd, opts...); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Runner) forwarder(w io.Writer) func(string) {
	return func(line string) {
		fmt.Fprintln(w, line)
	}
}

func extOf(path string) string {
	idx := strings.LastIndexAny(path, `./\`)
	if idx < 0 || path[idx] != '.' {
		return ""
	}
	return path[idx:]
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

type lineTail struct {
	mu    sync.Mutex
	limit int
	lines []string
}

func newLineTail(limit int) *lineTail {
	return &lineTail{limit: limit}
}

func (t *lineTail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
