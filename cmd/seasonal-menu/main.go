package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seasonal-menu/internal/config"
	"seasonal-menu/internal/logging"
)

var (
	// Global flags
	verbose bool
	logFile string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "seasonal-menu",
	Short: "Generate seasonal weekly menus from the command line",
	Long: `seasonal-menu asks the menu service for a week of breakfast, lunch and
dinner built around seasonal produce for a location and establishment.

Configuration is read from the environment (and an optional .env file):
  MENU_API_URL, MENU_API_KEY, MENU_API_TIMEOUT, METRICS_DB_PATH,
  TELEGRAM_BOT_TOKEN, TELEGRAM_ALERT_CHAT_ID, LOG_LEVEL`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// The TUI owns the terminal; only log there when sent to a file.
		if cmd.Name() == tuiCmd.Name() && logFile == "" {
			logger = zap.NewNop()
			return nil
		}
		logger, err = logging.New(cfg.LogLevel, verbose, logFile)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(metricsCleanupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
