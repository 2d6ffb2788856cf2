package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSnapshotCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Regenerate the CSV snapshot from the coding log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if err := a.store.RebuildSnapshot(); err != nil {
				return err
			}

			summary, err := a.store.Summary()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wrote %s\n", a.store.SnapshotPath())
			fmt.Fprintf(out, "%d records, %d poems, %d complete, coders: %s\n",
				summary.TotalRecords, summary.UniqueURLs, summary.CompleteURLs,
				strings.Join(summary.Coders, ", "))

			if summary.Malformed > 0 {
				fmt.Fprintf(out, "skipped %d malformed log lines\n", summary.Malformed)
			}

			return nil
		},
	}
}
