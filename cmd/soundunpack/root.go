package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:   "soundunpack",
		Short: "Extract and convert game audio archives to Ogg Vorbis",
		Long: "soundunpack extracts the audio archives of the selected compatibility mode,\n" +
			"maps sound bank entries to their logical paths, and converts each payload\n" +
			"to Ogg Vorbis under the destination directory.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	pf.StringVar(&flags.source, "source", "", "Directory containing the game archives")
	pf.StringVar(&flags.destination, "destination", "", "Directory receiving converted audio")
	pf.StringVar(&flags.tmp, "tmp", "", "Temporary directory for extracted archives (default <destination>/soundunpack)")
	pf.StringVar(&flags.mode, "mode", "", "Compatibility mode (see 'soundunpack modes')")

	rf := rootCmd.Flags()
	rf.BoolVarP(&flags.keep, "keep", "k", false, "Keep the temporary directory after a completed run")
	rf.BoolVar(&flags.noCatalog, "no-catalog", false, "Do not record the run in the catalog ledger")
	rf.BoolVar(&flags.collisions, "collisions", false, "Print the table of destination collisions")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newModesCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newCleanCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
