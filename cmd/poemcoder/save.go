package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"poemcoder/internal/models"
)

func newSaveCmd(opts *globalOptions) *cobra.Command {
	var (
		draft    models.Draft
		tags     []string
		tagInput string
	)

	cmd := &cobra.Command{
		Use:   "save <index|url>",
		Short: "Record a coding for one poem",
		Long: `Save appends one coding record for the given poem. Tags from --tag are
taken as-is and --tags is split on commas, semicolons or double spaces and
matched against the configured tag set.`,
		Args: cobra.ExactArgs(1),
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

			idx, err := resolveRef(refs, args[0])
			if err != nil {
				return err
			}

			sess, err := a.service.Start(coder, refs)
			if err != nil {
				return err
			}

			if sess, err = a.service.Goto(sess, idx); err != nil {
				return err
			}

			poem, err := a.service.Current(cmd.Context(), sess)
			if err != nil {
				return err
			}

			draft.Tags = tags
			draft.TagInput = tagInput

			next, record, err := a.service.Save(cmd.Context(), sess, poem, draft)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "saved %s (%s) for %s at %s\n",
				record.URL, record.Sentiment, record.CoderID, record.TimestampISO)

			if !record.ExtractionOK {
				fmt.Fprintf(out, "  extraction failed: %s\n", record.ErrorMessage())
			}

			if record.IsComplete {
				if ref, ok := next.Current(); ok {
					fmt.Fprintf(out, "next: #%d %s\n", next.Cursor+1, ref.URL)
				} else {
					fmt.Fprintln(out, "all poems complete")
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&tags, "tag", nil, "tag to apply (repeatable)")
	flags.StringVar(&tagInput, "tags", "", "free-form tag list")
	flags.StringVar(&draft.Sentiment, "sentiment", "", "positive, negative, neutral or unsure")
	flags.StringVar(&draft.Notes, "notes", "", "free-text notes")
	flags.BoolVar(&draft.IsComplete, "complete", false, "mark the poem complete")

	return cmd
}
