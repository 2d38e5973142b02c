package main

import (
	"github.com/spf13/cobra"

	"github.com/tugsousa/taxlots/internal/config"
	"github.com/tugsousa/taxlots/internal/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "taxlots",
	Short: "Tax-lot pairing and realized-gain engine for DEGIRO and IBKR exports",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
		if logLevel != "" {
			config.Cfg.LogLevel = logLevel
		}
		logger.Init(config.Cfg.LogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error), overrides LOG_LEVEL")
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(strategiesCmd)
	rootCmd.AddCommand(splitsCmd)
}
