package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the HTML cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache size",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(opts, cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				stats, err := a.cache.Stats()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %s\n",
					a.cache.Dir(), stats.Entries, humanize.Bytes(uint64(stats.Bytes)))

				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <url>",
			Short: "Remove one cached page",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(opts, cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				removed, err := a.cache.Remove(args[0])
				if err != nil {
					return err
				}

				if removed {
					fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "not cached: %s\n", args[0])
				}

				return nil
			},
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Remove every cached page",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(opts, cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				n, err := a.cache.Clean()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached pages\n", n)

				return nil
			},
		},
	)

	return cmd
}
