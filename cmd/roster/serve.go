package main

import (
	"os/signal"
	"syscall"

	"github.com/asaidimu/go-roster/api"
	"github.com/asaidimu/go-roster/internal/cli"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := cli.Open(ctx, cfg, logger, cfg.Database.AutoMigrate)
		if err != nil {
			return err
		}
		defer app.Close()
		if len(app.Created) > 0 {
			logger.Info("Created collections", zap.Strings("collections", app.Created))
		}

		server := api.NewServer(app.Users, cfg.App.Prefix, logger)
		if err := server.Start(ctx, cfg.Addr()); err != nil {
			return cli.GeneralError("serving", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default 3000)")
	serveCmd.Flags().String("prefix", "", "route prefix (default /api)")
	_ = v.BindPFlag("app.port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("app.prefix", serveCmd.Flags().Lookup("prefix"))
}
