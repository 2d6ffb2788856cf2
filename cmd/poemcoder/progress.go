package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"poemcoder/pkg/utils"
)

func newProgressCmd(opts *globalOptions) *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show per-poem coding status for the coder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			coder, err := a.coderID()
			if err != nil {
				return err
			}

			refs, err := a.loadWorklist()
			if err != nil {
				return err
			}

			rows, err := a.tracker.Rows(coder, refs)
			if err != nil {
				return err
			}

			stats, err := a.tracker.Stats(coder, refs)
			if err != nil {
				return err
			}

			sh := utils.NewStringHelper()
			lines := make([][]string, 0, len(rows))

			for _, row := range rows {
				if pending && row.Latest != nil && row.Latest.IsComplete {
					continue
				}

				saved := ""
				sentiment := ""

				if row.Latest != nil {
					saved = row.Latest.TimestampISO
					sentiment = string(row.Latest.Sentiment)
				}

				lines = append(lines, []string{
					strconv.Itoa(row.Index + 1),
					row.Status.String(),
					sh.TruncateString(row.Ref.Title, titleWidth),
					sentiment,
					saved,
				})
			}

			out := cmd.OutOrStdout()
			printTable(out, []string{"#", "Status", "Title", "Sentiment", "Saved"}, lines,
				[]columnAlignment{alignRight})
			fmt.Fprintf(out, "%s: %s\n", coder, stats)

			return nil
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "hide completed poems")

	return cmd
}
