package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seasonal-menu/internal/app"
	"seasonal-menu/internal/metrics"
)

var (
	reportDays  int
	cleanupDays int
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show generation usage and process health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := app.NewRuntime(cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		store, err := rt.MetricsStore()
		if err != nil {
			return err
		}
		usage, err := store.GetDailyUsage(cmd.Context(), reportDays)
		if err != nil {
			return fmt.Errorf("failed to load usage: %w", err)
		}
		report := metrics.FormatReport(usage, metrics.GetSysHealth(cfg.MetricsDBPath))
		return renderMarkdown(cmd.OutOrStdout(), report)
	},
}

var metricsCleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Delete generation metrics older than --days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cleanupDays < 1 {
			return fmt.Errorf("--days must be at least 1, got %d", cleanupDays)
		}
		rt, err := app.NewRuntime(cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		store, err := rt.MetricsStore()
		if err != nil {
			return err
		}
		removed, err := store.Cleanup(cmd.Context(), cleanupDays)
		if err != nil {
			return fmt.Errorf("failed to clean up metrics: %w", err)
		}
		logger.Info("Metrics cleanup finished", zap.Int64("removed", removed), zap.Int("days", cleanupDays))
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d records older than %d days\n", removed, cleanupDays)
		return nil
	},
}

func init() {
	metricsCmd.Flags().IntVar(&reportDays, "days", 7, "Number of days to report")
	metricsCleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "Keep records newer than this many days")
}
