package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/evmap/internal/config"
	"github.com/sells-group/evmap/internal/kml"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "evmap",
	Short: "EV-friendly hotel map data tooling",
	Long:  "Converts the Google My Maps KMZ export of EV-friendly hotels into a seed CSV, loads it into a database, and serves the locations over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		kml.EnableDriver()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
