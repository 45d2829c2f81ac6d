package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whereiam/internal/auth"
	"whereiam/internal/eventlog"
	"whereiam/internal/web"
	"whereiam/middleware"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout        = 10 * time.Second
	generationCleanupEvery = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the where am I page",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.keys.Start(ctx); err != nil {
		logger.Warn("Not watching the env file, LOCALIZATION changes need a restart", zap.Error(err))
	} else {
		defer a.keys.Stop()
	}

	stopCleanup := a.startGenerationCacheCleanup(ctx, generationCleanupEvery)
	defer stopCleanup()

	webHandler, err := web.NewWebHandler(a.ledger, a.keys, a.eventLogs, nil, logger)
	if err != nil {
		return err
	}
	webHandler.SetLinks(web.Links{Author: cfg.AuthorURL, Repo: cfg.RepoURL})

	var authHandlers *auth.AuthHandlers
	if cfg.AdminEnabled() {
		authHandlers = auth.NewAuthHandlers(cfg)
		logger.Info("Admin API enabled")
	}
	router := webHandler.SetupRoutes(eventlog.NewEventLogHandlers(a.eventLogs), authHandlers)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.LoggingMiddleware(logger)(middleware.SetupCORS()(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server is starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down the server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Services stopped")
	return nil
}
