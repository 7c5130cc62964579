package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newListCmd())
}

func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available tweaks",
		Long: `List the tweaks available on this system, grouped by category.
Tweaks whose system interface is unavailable are omitted.

Example:
  tweakctl list
  tweakctl list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return runList(a, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text, json, yaml)")

	return cmd
}

type listEntry struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Category       string   `json:"category" yaml:"category"`
	Widget         string   `json:"widget" yaml:"widget"`
	Description    string   `json:"description" yaml:"description"`
	RequiresReboot bool     `json:"requires_reboot" yaml:"requires_reboot"`
	Options        []string `json:"options,omitempty" yaml:"options,omitempty"`
}

func runList(a *app, format string) error {
	var entries []listEntry
	for _, t := range a.catalog.All() {
		info := t.Info()
		entries = append(entries, listEntry{
			ID:             string(t.ID()),
			Name:           info.Name,
			Category:       string(info.Category),
			Widget:         string(info.Widget),
			Description:    info.Description,
			RequiresReboot: info.RequiresReboot,
			Options:        info.Options,
		})
	}

	if format != formatText {
		return printFormatted(format, entries)
	}

	byCategory := a.catalog.ByCategory()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, category := range a.catalog.Categories() {
		fmt.Fprintf(w, "%s\n", strings.ToUpper(string(category)))
		for _, t := range byCategory[category] {
			info := t.Info()
			line := fmt.Sprintf("  %s\t%s", t.ID(), info.Name)
			if len(info.Options) > 0 {
				line += fmt.Sprintf("\t[%s]", strings.Join(info.Options, ", "))
			}
			fmt.Fprintln(w, line)
		}
	}

	return w.Flush()
}
