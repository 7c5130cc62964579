package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 20

func init() {
	rootCmd.AddCommand(newHistoryCmd())
}

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently applied and reverted tweaks",
		Long: `Show the most recent entries of the journal, newest first.

Example:
  tweakctl history --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			if limit < 1 {
				return errors.New().WithData(errors.ErrInvalidArgument, limit).
					WithMessage("History limit must be at least 1")
			}
			return runHistory(cmd, limit, format)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of entries to show")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int, format string) error {
	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if format != formatText {
		return printFormatted(format, entries)
	}

	if len(entries) == 0 {
		fmt.Println("No journal entries.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTWEAK\tACTION\tRESULT")
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = e.ErrorCode
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime), e.TweakID, e.Action, result)
	}

	return w.Flush()
}
