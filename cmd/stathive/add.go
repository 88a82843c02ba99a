package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"stathive-hq/stathive/pkg/cli"
	"stathive-hq/stathive/pkg/registry"
	"stathive-hq/stathive/pkg/shm"
)

var addFlags struct {
	regionPath string
}

var addCmd = &cobra.Command{
	Use:   "add NAME [DELTA]",
	Short: "Increment a counter in the shared registry",
	Long: `Increment a counter in the shared registry and print its previous value.

The counter is created on first use. DELTA defaults to 1 and may be negative.

If the region file does not exist or the registry is at its admission limit,
the increment is silently dropped. This mirrors the in-process behavior:
callers never fail because metrics infrastructure is absent or full.

Examples:
  # Increment by one
  stathive add requests_total

  # Increment by an arbitrary delta
  stathive add bytes_sent 4096

  # Use a specific region file
  stathive add requests_total 1 --region /dev/shm/stathive.region`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addFlags.regionPath, "region", "", "region file path (overrides config)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	delta := int64(1)
	if len(args) == 2 {
		var err error
		delta, err = strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return cli.NewCommandError("add", fmt.Errorf("invalid delta %q: %w", args[1], err))
		}
	}

	path, err := resolveRegionPath(cmd, addFlags.regionPath)
	if err != nil {
		return err
	}

	region, err := shm.Attach(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "region not initialized; counter not recorded")
			return nil
		}
		return cli.NewRegionError(path, err)
	}
	defer region.Close()

	reg := registry.New(region)
	prev, ok, err := reg.CounterAdd([]byte(name), delta)
	if err != nil {
		return cli.NewCommandError("add", err)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "admission limit reached; counter not recorded")
		return nil
	}

	fmt.Println(prev)
	return nil
}

// resolveRegionPath picks the region file path for registry commands:
// the --region flag if set, otherwise the configured path.
func resolveRegionPath(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := loadCommandConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.Registry.Path, nil
}
