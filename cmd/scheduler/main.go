// Command scheduler runs the evening and morning tracker passes on their
// cron schedules until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/eddiefleurent/fno_tracker/internal/config"
	"github.com/eddiefleurent/fno_tracker/internal/logging"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/scheduler"
)

func main() {
	var runNow string
	flag.StringVar(&runNow, "run-now", "", "Run one pass in this mode (evening|morning) before scheduling")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := scheduler.New(cfg.Location(), logger.WithField("tz", cfg.Location().String()))
	if err := scheduler.Register(s, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Invalid schedule")
	}

	if runNow != "" {
		mode, err := models.ParseMode(runNow)
		if err != nil {
			logger.WithError(err).Fatal("Invalid --run-now")
		}
		if err := s.RunNow(ctx, scheduler.NewPipelineJob(cfg, mode, logger)); err != nil {
			logger.WithError(err).Error("Immediate run failed")
		}
	}

	s.Start(ctx)
	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping scheduler...")
	s.Stop()
}
