package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/config"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/logging"
)

var (
	rankingConfig string
	logLevel      string

	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "newsrank",
	Short: "Crypto news ranking engine",
	Long: `newsrank ranks crypto news for African readers.

It serves hybrid lexical and semantic search, personalized recommendations
and regional trending over HTTP, and consumes engagement events to keep
personalization fresh.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rankingConfig != "" {
			if err := os.Setenv("RANKING_CONFIG", rankingConfig); err != nil {
				return err
			}
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}

		cfg = loaded
		logger = logging.New(cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rankingConfig, "ranking-config", "", "YAML file of ranking tunables (overrides RANKING_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}
