package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sells-group/hertta/internal/config"
)

var settings *config.Settings

var settingsPath string

var rootCmd = &cobra.Command{
	Use:   "hertta",
	Short: "Stochastic energy-optimization orchestrator",
	Long:  "Composes a time-expanded energy-system model, fuses weather and electricity-price forecasts into it, drives the Predicer solver over ZeroMQ, and returns control trajectories.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := settingsPath
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return fmt.Errorf("resolve settings path: %w", err)
			}
			path = p
		}

		s, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		settings = s

		if v, _ := cmd.Flags().GetUint16("predicer-port"); v != 0 {
			settings.PredicerPort = v
		}

		if err := config.InitLogger(settings.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "path to settings.toml (default: platform config dir)")
	rootCmd.PersistentFlags().Uint16("predicer-port", 0, "override the configured Predicer ZeroMQ port")
	_ = viper.BindPFlag("predicer_port", rootCmd.PersistentFlags().Lookup("predicer-port"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
