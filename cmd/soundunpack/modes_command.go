package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"soundunpack/internal/archive"
	"soundunpack/internal/report"
)

func newModesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List compatibility modes and their archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var rows [][]string
			for _, mode := range archive.Modes(cfg.Modes) {
				name := mode.Name
				if mode.Name == cfg.Archives.Mode {
					name += " *"
				}
				archives := make([]string, 0, len(mode.Archives))
				for _, spec := range mode.Archives {
					archives = append(archives, fmt.Sprintf("%s (%s)", spec.Name, spec.BasePath))
				}
				source := "built-in"
				if mode.Custom {
					source = "config"
				}
				rows = append(rows, []string{name, source, mode.Description, strings.Join(archives, "\n")})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.RenderTable("", []string{"Mode", "Source", "Description", "Archives"}, rows, nil))
			fmt.Fprintln(out, "* selected")
			return nil
		},
	}
}
