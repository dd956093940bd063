// Command dashboard serves the tracker's reports and performance summary
// over HTTP.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eddiefleurent/fno_tracker/internal/config"
	"github.com/eddiefleurent/fno_tracker/internal/dashboard"
	"github.com/eddiefleurent/fno_tracker/internal/logging"
	"github.com/eddiefleurent/fno_tracker/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Environment)

	store, err := storage.NewStorage(cfg.Storage.BaseDir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open storage")
	}

	server, err := dashboard.NewServer(dashboard.Config{
		Port:      cfg.Dashboard.Port,
		AuthToken: cfg.Dashboard.AuthToken,
		BaseDir:   cfg.Storage.BaseDir,
	}, store, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create dashboard")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Dashboard server failed")
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping dashboard...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Dashboard shutdown failed")
		}
	}
}
