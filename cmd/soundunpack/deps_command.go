package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"soundunpack/internal/deps"
	"soundunpack/internal/report"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools used for extraction and conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.ToolRequirements(cfg, runtime.GOOS))
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Detail
				if detail == "" {
					detail = status.Description
				}
				rows = append(rows, []string{status.Name, yesNo(status.Available), status.Command, detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.RenderTable("Tools", []string{"Tool", "Available", "Path", "Detail"}, rows, nil, 2))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tools unavailable (see tools.dir in the configuration)", len(missing))
			}
			return nil
		},
	}
}
