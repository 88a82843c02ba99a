package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"stathive-hq/stathive/pkg/cli"
	"stathive-hq/stathive/pkg/registry"
	"stathive-hq/stathive/pkg/shm"
)

var listFlags struct {
	regionPath string
	output     string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all counters in the shared registry",
	Long: `List all counters in the shared registry with their current values.

Counters are printed in registration order. An uninitialized region yields an
empty listing.

Examples:
  # List counters as a table
  stathive list

  # List counters as JSON
  stathive list --output json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listFlags.regionPath, "region", "", "region file path (overrides config)")
	listCmd.Flags().StringVarP(&listFlags.output, "output", "o", "text", "output format (text, json)")
}

type counterRow struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value int64  `json:"value"`
}

func runList(cmd *cobra.Command, args []string) error {
	path, err := resolveRegionPath(cmd, listFlags.regionPath)
	if err != nil {
		return err
	}

	var samples []registry.Sample
	region, err := shm.Attach(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cli.NewRegionError(path, err)
		}
		// Uninitialized region, empty listing.
	} else {
		defer region.Close()
		samples = registry.New(region).Snapshot()
	}

	rows := make([]counterRow, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, counterRow{
			Name:  s.Name,
			Type:  s.Type.String(),
			Value: s.Value,
		})
	}

	switch cli.OutputFormat(listFlags.output) {
	case cli.FormatJSON:
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, rows)
	case cli.FormatText:
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tVALUE")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%d\n", r.Name, r.Type, r.Value)
		}
		return w.Flush()
	default:
		return cli.NewCommandError("list", fmt.Errorf("unsupported output format %q", listFlags.output))
	}
}
