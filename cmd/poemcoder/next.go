package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNextCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Print the first poem the coder has not completed",
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

			idx, ok, err := a.tracker.NextPoem(coder, refs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "all poems complete")
				return nil
			}

			ref := refs[idx]
			fmt.Fprintf(out, "#%d %s\n", idx+1, ref.URL)

			if ref.Title != "" {
				fmt.Fprintf(out, "   %s", ref.Title)
				if ref.Author != "" {
					fmt.Fprintf(out, " by %s", ref.Author)
				}
				fmt.Fprintln(out)
			}

			return nil
		},
	}
}
