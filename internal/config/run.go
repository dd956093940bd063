package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// RunContext carries everything a pipeline run would otherwise read from
// process state: where files live, which day it is and which session the
// run reports on.
type RunContext struct {
	RunDate time.Time
	BaseDir string
	Mode    models.Mode
	RunID   string
}

// NewRunContext builds the context for a run started at now.
func NewRunContext(cfg *Config, mode models.Mode, now time.Time) RunContext {
	return RunContext{
		BaseDir: cfg.Storage.BaseDir,
		RunDate: util.DateOnly(now.In(cfg.Location())),
		Mode:    mode,
		RunID:   uuid.New().String(),
	}
}

// SessionDate is the trading session the report is written for: the next
// trading day in evening mode, the run date in morning mode.
func (r RunContext) SessionDate() time.Time {
	if r.Mode == models.ModeEvening {
		return util.NextTradingDay(r.RunDate)
	}
	return r.RunDate
}

// DataDir holds the daily snapshots.
func (r RunContext) DataDir() string { return filepath.Join(r.BaseDir, "data") }

// ReportDir holds the markdown reports.
func (r RunContext) ReportDir() string { return filepath.Join(r.BaseDir, "report") }

// PerformanceDir holds the performance log, summary and charts.
func (r RunContext) PerformanceDir() string { return filepath.Join(r.BaseDir, "performance") }

// ReportPath returns report/fno_{mode}_report_{session date}.md.
func (r RunContext) ReportPath() string {
	name := fmt.Sprintf("fno_%s_report_%s.md", r.Mode, r.SessionDate().Format(util.DateLayout))
	return filepath.Join(r.ReportDir(), name)
}
