package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/fno_tracker/internal/config"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/pipeline"
)

// Runner executes one tracker pass.
type Runner func(ctx context.Context, cfg *config.Config, mode models.Mode, now time.Time, logger *logrus.Logger) (*pipeline.Result, error)

// PipelineJob runs the tracker in one mode.
type PipelineJob struct {
	cfg    *config.Config
	mode   models.Mode
	logger *logrus.Logger
	run    Runner
	now    func() time.Time
}

// NewPipelineJob creates a job running pipeline.Execute.
func NewPipelineJob(cfg *config.Config, mode models.Mode, logger *logrus.Logger) *PipelineJob {
	return &PipelineJob{cfg: cfg, mode: mode, logger: logger, run: pipeline.Execute, now: time.Now}
}

func (j *PipelineJob) Name() string { return "fno-" + string(j.mode) }

func (j *PipelineJob) Run(ctx context.Context) error {
	res, err := j.run(ctx, j.cfg, j.mode, j.now(), j.logger)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		j.logger.WithField("job", j.Name()).Warn(w)
	}
	return nil
}

// Register adds the evening and morning jobs from the schedule config.
func Register(s *Scheduler, cfg *config.Config, logger *logrus.Logger) error {
	for _, spec := range []struct {
		schedule string
		mode     models.Mode
	}{
		{cfg.Schedule.Evening, models.ModeEvening},
		{cfg.Schedule.Morning, models.ModeMorning},
	} {
		if spec.schedule == "" {
			continue
		}
		if _, err := s.AddJob(spec.schedule, NewPipelineJob(cfg, spec.mode, logger)); err != nil {
			return err
		}
	}
	return nil
}
