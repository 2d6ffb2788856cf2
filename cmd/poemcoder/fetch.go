package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd(opts *globalOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download every worklist page into the cache",
		Long: `Fetch warms the HTML cache for the whole worklist. Cached pages are not
requested again unless --refresh is given. Failures are reported and the run
continues with the next poem.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			refs, err := a.loadWorklist()
			if err != nil {
				return err
			}

			report, err := a.client.Prefetch(cmd.Context(), refs, refresh)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d poems: %d downloaded, %d cached, %d stale, %d failed\n",
				report.Total, report.Fetched, report.CacheHits, report.Stale, len(report.Failed))

			if refresh {
				fmt.Fprintf(out, "%d pages changed since they were cached\n", report.Changed)
			}

			for _, failed := range report.Failed {
				fmt.Fprintf(out, "  failed: %s: %v\n", failed.Ref.URL, failed.Err)
			}

			a.fetcher.Attempts().LogSummary(a.log)

			return err
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "download pages even when cached")

	return cmd
}
