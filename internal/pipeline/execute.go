package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/fno_tracker/internal/config"
	"github.com/eddiefleurent/fno_tracker/internal/logging"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/storage"
)

// Execute performs one complete run for mode as of now, bounded by the
// configured run timeout.
func Execute(ctx context.Context, cfg *config.Config, mode models.Mode, now time.Time, logger *logrus.Logger) (*Result, error) {
	run := config.NewRunContext(cfg, mode, now)
	log := logging.ForRun(logger, run)

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout())
	defer cancel()

	store, err := storage.NewStorage(run.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	provider, err := NewProvider(cfg, run, log)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := New(cfg, run, provider, store, log).Run(ctx)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"duration":    time.Since(start).Round(time.Millisecond).String(),
		"suggestions": len(res.Logged),
		"warnings":    len(res.Warnings),
	}).Info("Run complete")
	return res, nil
}
