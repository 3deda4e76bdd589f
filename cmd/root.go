package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/aerotiles/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "aerotiles",
	Short: "Aeronautical map feature synthesis",
	Long:  "Turns FAA CIFP navigation records and AIS sources into rank-sorted map layers (FlatGeobuf, GeoJSON, PostGIS) and compiles them into vector tile archives.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
