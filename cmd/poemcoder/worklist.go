package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"poemcoder/pkg/utils"
)

const titleWidth = 48

func newWorklistCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worklist",
		Short: "List the resolved worklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			refs, err := a.loadWorklist()
			if err != nil {
				return err
			}

			sh := utils.NewStringHelper()
			rows := make([][]string, 0, len(refs))

			for i, ref := range refs {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					sh.TruncateString(ref.Title, titleWidth),
					ref.Author,
					ref.URL,
				})
			}

			printTable(cmd.OutOrStdout(), []string{"#", "Title", "Author", "URL"}, rows,
				[]columnAlignment{alignRight})

			return nil
		},
	}
}
