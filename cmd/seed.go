package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/evmap/internal/seed"
)

var (
	seedCSV      string
	seedTruncate bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the converted CSV into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if seedCSV != "" {
			cfg.Seed.CSVPath = seedCSV
		}
		if cmd.Flags().Changed("truncate") {
			cfg.Seed.Truncate = seedTruncate
		}
		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := seed.Load(ctx, st, cfg.Seed.CSVPath, cfg.Seed.Truncate)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d locations from %s\n", n, cfg.Seed.CSVPath)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedCSV, "csv", "", "seed CSV path (default from config)")
	seedCmd.Flags().BoolVar(&seedTruncate, "truncate", false, "replace existing locations")
	rootCmd.AddCommand(seedCmd)
}
