package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"stathive-hq/stathive/pkg/cli"
	"stathive-hq/stathive/pkg/shm"
)

var initFlags struct {
	regionPath string
	maxEntries int
	force      bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the shared region file",
	Long: `Initialize the shared region file that holds the counter registry.

The admission limit is fixed at creation; changing it requires removing the
region and initializing it again. Initialization fails if the region already
exists unless --force is given.

Examples:
  # Create a region with the configured limit
  stathive init

  # Create a region that admits up to 200 counters
  stathive init --max-entries 200

  # Replace an existing region (all counters are lost)
  stathive init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initFlags.regionPath, "region", "", "region file path (overrides config)")
	initCmd.Flags().IntVar(&initFlags.maxEntries, "max-entries", 0, "admission limit (overrides config, minimum 10)")
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "replace an existing region file")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	path := cfg.Registry.Path
	if initFlags.regionPath != "" {
		path = initFlags.regionPath
	}
	maxEntries := cfg.Registry.MaxEntries
	if initFlags.maxEntries != 0 {
		maxEntries = initFlags.maxEntries
	}

	if initFlags.force {
		if err := shm.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cli.NewRegionError(path, err)
		}
	}

	region, err := shm.Create(path, maxEntries)
	if err != nil {
		return cli.NewRegionError(path, err)
	}
	defer region.Close()

	fmt.Printf("✓ Region created: %s\n", path)
	fmt.Printf("  admission limit: %d\n", region.MaxEntries())
	fmt.Printf("  buckets:         %d\n", region.BucketCountOf())
	fmt.Printf("  size:            %d bytes\n", shm.SizeFor(region.MaxEntries()))
	fmt.Printf("  uuid:            %s\n", region.UUID())
	return nil
}
