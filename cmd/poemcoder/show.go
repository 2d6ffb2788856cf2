package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"poemcoder/internal/crawler"
	"poemcoder/internal/formatter"
)

func newShowCmd(opts *globalOptions) *cobra.Command {
	var reload bool

	cmd := &cobra.Command{
		Use:   "show <index|url>",
		Short: "Fetch, extract and print one poem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			refs, err := a.loadWorklist()
			if err != nil {
				return err
			}

			idx, err := resolveRef(refs, args[0])
			if err != nil {
				return err
			}

			var res crawler.PoemResult
			if reload {
				res = a.client.Reload(cmd.Context(), refs[idx])
			} else {
				res = a.client.Process(cmd.Context(), refs[idx])
			}

			out := cmd.OutOrStdout()

			if !res.Fetched() {
				return res.FetchErr
			}

			meta := res.Meta
			if meta.Title == "" {
				meta.Title = res.Title()
			}

			if meta.Author.Name == "" {
				meta.Author.Name = res.Author()
			}

			fmt.Fprint(out, formatter.FormatPoem(meta, res.Text))

			if res.Error != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", res.Error)
			}

			last, ok, err := a.store.LatestForURL(refs[idx].URL)
			if err != nil {
				return err
			}

			if ok {
				status := "in progress"
				if last.IsComplete {
					status = "complete"
				}

				fmt.Fprintf(out, "\nlast coded by %s at %s (%s, %s)\n",
					last.CoderID, last.TimestampISO, last.Sentiment, status)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&reload, "reload", false, "download the page again instead of using the cache")

	return cmd
}
