package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"soundunpack/internal/procexec"
	"soundunpack/internal/services"
)

// StageSuffix marks in-progress output next to its destination.
const StageSuffix = ".part"

// CommandRunner executes the conversion tools.
type CommandRunner interface {
	Run(ctx context.Context, cmd procexec.Command, opts ...procexec.RunOption) error
}

// Tools locates the conversion tool chain.
type Tools struct {
	Converter string
	Fixup     string
	Codebooks string
}

// Converter runs the tool chain for one file.
type Converter struct {
	runner CommandRunner
	tools  Tools
}

// NewConverter constructs a Converter.
func NewConverter(runner CommandRunner, tools Tools) *Converter {
	return &Converter{runner: runner, tools: tools}
}

// StagePath returns the staged output path for destination.
func StagePath(destination string) string {
	return destination + StageSuffix
}

// Convert produces destination from source. On failure neither the stage nor
// the destination exist afterwards.
func (c *Converter) Convert(ctx context.Context, source, destination string) (err error) {
	stage := StagePath(destination)
	if err := removeIfExists(stage); err != nil {
		return services.Wrap(services.ErrValidation, "convert", "clean stage", "Remove stale staged output", err)
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "convert", "mkdir", "Create destination directory", err)
	}

	defer func() {
		if err != nil {
			_ = removeIfExists(stage)
		}
	}()

	if err = c.runner.Run(ctx, procexec.Command{
		Path: c.tools.Converter,
		Args: []string{source, "-o", stage, "--pcb", c.tools.Codebooks},
	}, procexec.WithNoExit()); err != nil {
		return fmt.Errorf("format conversion: %w", err)
	}
	if err = c.runner.Run(ctx, procexec.Command{
		Path: c.tools.Fixup,
		Args: []string{stage},
	}, procexec.WithNoExit()); err != nil {
		return fmt.Errorf("post-processing: %w", err)
	}

	info, statErr := os.Stat(stage)
	if statErr != nil {
		err = services.Wrap(services.ErrExternalTool, "convert", "verify", "Converter produced no output", statErr)
		return err
	}
	if !info.Mode().IsRegular() {
		err = services.Wrap(services.ErrExternalTool, "convert", "verify", "Converter output is not a file", nil)
		return err
	}
	if err = os.Rename(stage, destination); err != nil {
		return services.Wrap(services.ErrValidation, "convert", "commit", "Rename staged output", err)
	}
	return nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
