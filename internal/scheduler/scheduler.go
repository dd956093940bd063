// Package scheduler runs tracker passes on cron schedules in the market
// timezone.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages cron jobs. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
	ctx  context.Context
}

// New creates a scheduler evaluating standard five-field specs in loc.
func New(loc *time.Location, log *logrus.Entry) *Scheduler {
	log = log.WithField("component", "scheduler")
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log: log,
		ctx: context.Background(),
	}
}

// Start starts the scheduler; jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// AddJob registers a job, e.g. "30 18 * * MON-FRI" for 18:30 on weekdays.
func (s *Scheduler) AddJob(schedule string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(schedule, func() {
		jlog := s.log.WithField("job", job.Name())
		jlog.Info("Running job")
		if err := job.Run(s.ctx); err != nil {
			jlog.WithError(err).Error("Job failed")
			return
		}
		jlog.Info("Job completed")
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"schedule": schedule,
		"job":      job.Name(),
	}).Info("Job registered")
	return id, nil
}

// Next returns the next activation of a registered job, zero before Start.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.WithField("job", job.Name()).Info("Running job immediately")
	return job.Run(ctx)
}
