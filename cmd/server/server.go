package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/cmd"
	"github.com/linkbridge/linkbridge/internal/api"
	"github.com/linkbridge/linkbridge/internal/app"
	"github.com/linkbridge/linkbridge/internal/monitor"
	"github.com/linkbridge/linkbridge/internal/workers"
)

// RunServerCmd starts the HTTP server with its background workers.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Start the bridge API, the redirect endpoint and the background workers",
	Long: `Initialises the database, starts the visit workers and (optionally) the
link monitor, then serves HTTP until SIGINT or SIGTERM.`,
	RunE: func(c *cobra.Command, args []string) error {
		return run(c.Context())
	},
}

func run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger := cmd.Cfg, cmd.Logger
	defer logger.Sync() //nolint:errcheck // best-effort flush

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	logger.Info("services initialised", zap.String("driver", cfg.Database.Driver))

	visits := workers.StartVisitWorkers(cfg.Analytics.WorkerCount, cfg.Analytics.BufferSize, a.LinkRepo, logger)

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	if cfg.Monitor.Enabled {
		m := monitor.NewLinkMonitor(a.LinkRepo, cfg.MonitorInterval(), nil, logger)
		go m.Start(monitorCtx)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(cfg, api.Dependencies{
		Bridge:    a.Bridge,
		Redirects: a.Redirects(visits),
		Links:     a.Links,
		Providers: a.Providers,
		Logger:    logger.Named("http"),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	stopMonitor()
	if err := visits.Stop(shutdownCtx); err != nil {
		logger.Warn("visit workers did not drain before the deadline", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
