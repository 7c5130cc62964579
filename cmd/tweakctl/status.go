package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"codeberg.org/mutker/tweakctl/internal/engine"
	"codeberg.org/mutker/tweakctl/internal/errors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current state of every tweak",
		Long: `Probe every tweak and report whether it is currently enabled.
Probes run concurrently; a tweak that cannot be read is reported with its
error and does not affect the others. Like apply and revert, status fails
while another tweakctl holds the PID file.

Example:
  tweakctl status
  tweakctl status --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			// Register reads racing another process's writes would
			// report torn cores.
			return guarded(cmd.Context(), func() error {
				a, err := newApp(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer a.Close()

				return runStatus(cmd, a, format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")

	return cmd
}

type statusEntry struct {
	ID        string `json:"id" yaml:"id"`
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Option    string `json:"option,omitempty" yaml:"option,omitempty"`
	ErrorCode string `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, a *app, format string) error {
	results := engine.Probe(cmd.Context(), a.catalog, cfg.Engine.ProbeLimit)

	entries := make([]statusEntry, 0, len(results))
	for _, res := range results {
		entry := statusEntry{
			ID:      string(res.ID),
			Enabled: res.State.Enabled,
			Option:  res.State.Option,
		}
		if res.Err != nil {
			entry.ErrorCode = string(errors.CodeOf(res.Err))
			entry.Error = res.Err.Error()
		}
		entries = append(entries, entry)
	}

	if format != formatText {
		return printFormatted(format, entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TWEAK\tSTATE\tDETAIL")
	for _, e := range entries {
		state := "disabled"
		if e.Enabled {
			state = "enabled"
		}
		detail := e.Option
		if e.Error != "" {
			state = "unknown"
			detail = e.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, state, detail)
	}

	return w.Flush()
}
