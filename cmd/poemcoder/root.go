package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "poemcoder",
		Short: "Fetch, read and code poems for qualitative research",
		Long: `poemcoder resolves a worklist of poem URLs, caches their pages, extracts
the poem text and metadata, and records coder annotations in an append-only log
with a CSV snapshot.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to YAML configuration file (default configs/poemcoder.yaml if present)")
	flags.StringVarP(&opts.worklist, "worklist", "w", "", "worklist file (.csv, .jsonl, .parquet)")
	flags.StringVar(&opts.coderID, "coder", "", "coder id")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newWorklistCmd(opts),
		newFetchCmd(opts),
		newShowCmd(opts),
		newSaveCmd(opts),
		newNextCmd(opts),
		newProgressCmd(opts),
		newSnapshotCmd(opts),
		newCacheCmd(opts),
		newConfigCmd(opts),
	)

	return cmd
}
