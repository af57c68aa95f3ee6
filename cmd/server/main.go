// FILE: cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bidash/internal/app"
	"bidash/internal/config"
	"bidash/internal/logger"
	"bidash/internal/reports"
	"bidash/internal/telemetry"
	"bidash/internal/warehouse"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve warehouse reports over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP listen port (overrides PORT)")
	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InitLogger(cfg.Env)
	defer logger.Sync()
	log := logger.Log

	shutdownTracing, err := telemetry.Setup(ctx, "bidash", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("flush traces", zap.Error(err))
		}
	}()

	db, err := warehouse.Open(ctx, cfg.WarehouseDriver, cfg.DSN(), warehouse.Options{
		Schema:       cfg.WarehouseSchema,
		QueryTimeout: cfg.QueryTimeout(),
	})
	if err != nil {
		return fmt.Errorf("failed to open warehouse: %w", err)
	}
	defer db.Close()
	log.Info("warehouse connected",
		zap.String("driver", cfg.WarehouseDriver),
		zap.String("database", db.DatabaseName()),
	)

	srv, err := app.NewServer(cfg, app.Deps{
		Source: reports.NewSource(db),
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	return srv.Run(ctx, cfg.Addr())
}
