package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/propscout/propscout/internal/config"
)

var (
	cfg       *config.Config
	startedAt time.Time
)

var rootCmd = &cobra.Command{
	Use:           "propscout",
	Short:         "Property market scraper",
	Long:          "Concurrently scrapes property listings from multiple real-estate sites for a city, normalizes and deduplicates them, and persists the result.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		startedAt = time.Now()

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
		zap.L().Debug("command finished",
			zap.String("command", cmd.Name()),
			zap.Duration("took", time.Since(startedAt)),
		)
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
