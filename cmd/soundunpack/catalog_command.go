package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"soundunpack/internal/convert"
	"soundunpack/internal/ledger"
	"soundunpack/internal/report"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		runID  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show recorded runs and asset outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.CatalogPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(cmd.OutOrStdout(), "No catalog at %s\n", path)
				return nil
			}

			store, err := ledger.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				return printRunFailures(cmd, store, runID, asJSON)
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			counts, err := store.AssetCounts(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{
					"catalog": path,
					"runs":    runs,
					"assets":  counts,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog: %s\n", path)
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					run.Mode,
					run.Status,
					strconv.Itoa(run.Converted),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Errored),
				})
			}
			aligns := []report.Alignment{
				report.AlignLeft, report.AlignLeft, report.AlignLeft, report.AlignLeft,
				report.AlignRight, report.AlignRight, report.AlignRight,
			}
			fmt.Fprintln(out, report.RenderTable("Runs",
				[]string{"Run", "Started", "Mode", "Status", "Converted", "Skipped", "Errors"}, rows, aligns))

			outcomes := make([]string, 0, len(counts))
			for outcome := range counts {
				outcomes = append(outcomes, outcome)
			}
			sort.Strings(outcomes)
			countRows := make([][]string, 0, len(outcomes))
			for _, outcome := range outcomes {
				countRows = append(countRows, []string{outcome, strconv.Itoa(counts[outcome])})
			}
			fmt.Fprintln(out, report.RenderTable("Assets (latest outcome)", []string{"Outcome", "Files"}, countRows,
				[]report.Alignment{report.AlignLeft, report.AlignRight}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of recent runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show the failed conversions of one run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printRunFailures(cmd *cobra.Command, store *ledger.Store, runID string, asJSON bool) error {
	run, err := store.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found in catalog", runID)
	}
	failures, err := store.RunAssets(cmd.Context(), runID, convert.Errored.String())
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, map[string]any{"run": run, "failures": failures})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s, %d converted, %d skipped, %d errors\n",
		run.ID, run.Status, run.Converted, run.Skipped, run.Errored)
	if len(failures) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(failures))
	for _, asset := range failures {
		rows = append(rows, []string{asset.Source, asset.Destination, asset.ErrorMessage})
	}
	fmt.Fprintln(out, report.RenderTable("Errors", []string{"Source", "Destination", "Error"}, rows, nil, 0, 1, 2))
	return nil
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
