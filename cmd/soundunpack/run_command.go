package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soundunpack/internal/logging"
	"soundunpack/internal/pipeline"
	"soundunpack/internal/procexec"
	"soundunpack/internal/progress"
	"soundunpack/internal/report"
	"soundunpack/internal/services"
	"soundunpack/internal/shutdown"
)

func runPipeline(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	runCtx, stop := shutdown.Notify(cmd.Context(), logger)
	defer stop()

	runner := procexec.New(
		procexec.WithLauncher(cfg.Tools.Launcher),
		procexec.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		procexec.WithLogger(logger),
	)

	outcome, err := pipeline.Run(runCtx, pipeline.Options{
		Config:   cfg,
		Runner:   runner,
		Logger:   logger,
		Progress: progress.New(cmd.ErrOrStderr(), logger),
		Keep:     ctx.flags.keep,
	})
	if err != nil {
		if outcome != nil {
			logging.ErrorWithContext(logger, "run failed", "run_failed",
				logging.String(logging.FieldRunID, outcome.RunID),
				logging.String("severity", string(services.Classify(err))),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'soundunpack deps' to verify the tool installation"),
			)
		}
		return err
	}

	printer := report.NewPrinter(cmd.OutOrStdout())
	out := cmd.OutOrStdout()
	if len(outcome.Counts) > 0 {
		printer.Counts(outcome.Counts)
	}
	if len(outcome.Collisions) > 0 {
		if ctx.flags.collisions {
			printer.Collisions(outcome.Collisions)
		} else {
			fmt.Fprintf(out, "%d destination collisions resolved (use --collisions for details)\n", len(outcome.Collisions))
		}
	}
	printer.Summary(outcome.Summary)
	return nil
}
