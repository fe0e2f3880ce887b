package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundunpack/internal/convert"
	"soundunpack/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun    bool
		workspace bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove abandoned staged outputs and, optionally, the temporary directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if dryRun {
				stages, err := staging.FindStaleStages(cmd.Context(), cfg.Paths.DestinationDir, convert.StageSuffix, cfg.Paths.TmpDir)
				if err != nil {
					return err
				}
				for _, path := range stages {
					fmt.Fprintln(out, path)
				}
				fmt.Fprintf(out, "%d staged outputs would be removed\n", len(stages))
				if workspace {
					printWorkspace(cmd, cfg.Paths.TmpDir)
				}
				return nil
			}

			lock, err := staging.Acquire(cfg.Paths.TmpDir)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			result := staging.CleanStaleStages(cmd.Context(), cfg.Paths.DestinationDir, convert.StageSuffix, logger, cfg.Paths.TmpDir)
			fmt.Fprintf(out, "Removed %d staged outputs\n", len(result.Removed))
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "  failed: %s: %v\n", failure.Path, failure.Error)
			}

			if workspace {
				_ = lock.Release()
				if err := staging.RemoveWorkspace(cfg.Paths.TmpDir, logger); err != nil {
					return fmt.Errorf("remove temporary directory: %w", err)
				}
				fmt.Fprintf(out, "Removed temporary directory %s\n", cfg.Paths.TmpDir)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d staged outputs could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "List what would be removed without deleting")
	cmd.Flags().BoolVar(&workspace, "workspace", false, "Also remove the temporary directory with its extractions")
	return cmd
}

func printWorkspace(cmd *cobra.Command, dir string) {
	out := cmd.OutOrStdout()
	dirs, err := staging.ListDirectories(dir)
	if err != nil {
		fmt.Fprintf(out, "Temporary directory %s: %v\n", dir, err)
		return
	}
	var total int64
	for _, d := range dirs {
		total += d.Size
		fmt.Fprintf(out, "%s (%s)\n", d.Path, humanize.IBytes(uint64(d.Size)))
	}
	fmt.Fprintf(out, "Temporary directory %s would be removed (%s)\n", dir, humanize.IBytes(uint64(total)))
}
