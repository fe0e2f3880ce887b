package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundunpack/internal/archive"
	"soundunpack/internal/catalog"
	"soundunpack/internal/preflight"
	"soundunpack/internal/report"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showMissing bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the extraction state of each archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			mode, err := archive.ResolveMode(cfg.Archives.Mode, cfg.Modes)
			if err != nil {
				return err
			}

			layout := archive.Layout{SourceDir: cfg.Paths.SourceDir, TmpDir: cfg.Paths.TmpDir}
			tracker := archive.NewTracker(nil, cfg.PsarcBinary(), layout)
			statuses, err := tracker.Status(mode.Archives)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mode: %s\n", mode.Name)
			fmt.Fprintf(out, "Temporary directory: %s\n", cfg.Paths.TmpDir)

			rows := make([][]string, 0, len(statuses))
			var complete []archive.Spec
			for _, status := range statuses {
				size := "missing"
				if status.ArchiveSize >= 0 {
					size = humanize.IBytes(uint64(status.ArchiveSize))
				}
				rows = append(rows, []string{status.Spec.Name, size, status.State.String(), status.ExtractDir})
				if status.State == archive.StateComplete {
					complete = append(complete, status.Spec)
				}
			}
			fmt.Fprintln(out, report.RenderTable("Archives",
				[]string{"Archive", "Size", "Extraction", "Directory"},
				rows,
				[]report.Alignment{report.AlignLeft, report.AlignRight, report.AlignLeft, report.AlignLeft},
				3,
			))

			checks := preflight.RunAll(cfg, 0)
			checkRows := make([][]string, 0, len(checks))
			for _, check := range checks {
				checkRows = append(checkRows, []string{check.Name, yesNo(check.Passed), check.Detail})
			}
			fmt.Fprintln(out, report.RenderTable("Checks", []string{"Check", "OK", "Detail"}, checkRows, nil, 2))

			if !showMissing {
				return nil
			}
			if len(complete) == 0 {
				fmt.Fprintln(out, "No completed extractions to inspect")
				return nil
			}
			return printMissing(cmd, ctx, complete)
		},
	}

	cmd.Flags().BoolVar(&showMissing, "missing", false, "List sound bank entries whose payload was not extracted")
	return cmd
}

func printMissing(cmd *cobra.Command, ctx *commandContext, specs []archive.Spec) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	builder := catalog.NewBuilder(catalog.Layout{
		TmpDir:              cfg.Paths.TmpDir,
		DestinationDir:      cfg.Paths.DestinationDir,
		MetadataFile:        cfg.Archives.MetadataFile,
		OutputExtension:     cfg.Archives.OutputExtension,
		UnlocalizedLanguage: cfg.Archives.UnlocalizedLanguage,
	})
	missing, err := builder.Missing(specs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(missing) == 0 {
		fmt.Fprintln(out, "Every sound bank entry has an extracted payload")
		return nil
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]string
	for _, name := range names {
		for _, path := range missing[name] {
			rows = append(rows, []string{name, path})
		}
	}
	fmt.Fprintln(out, report.RenderTable("Missing payloads", []string{"Archive", "Source"}, rows, nil, 1))
	return nil
}
