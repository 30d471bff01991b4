package main

import (
	"github.com/asaidimu/go-roster/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     *zap.Logger

	// v collects flags bound to config keys before the config is loaded.
	v = viper.New()

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "User directory service",
	Long: `roster - User directory service

Roster stores users and their profiles in SQLite or PostgreSQL and exposes
them through a JSON API with filtering, relation includes and pagination.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(v, cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		logger, err = cli.NewLogger(cfg.Log)
		if err != nil {
			return cli.ConfigError("configuring logger", err)
		}
		if configPath != "" {
			logger.Debug("Loaded configuration", zap.String("path", configPath))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover roster.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}
