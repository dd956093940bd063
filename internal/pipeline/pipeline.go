// Package pipeline runs one tracker pass: fetch, snapshot, analyze, score,
// report and summarize.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/fno_tracker/internal/chain"
	"github.com/eddiefleurent/fno_tracker/internal/config"
	"github.com/eddiefleurent/fno_tracker/internal/marketdata"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/report"
	"github.com/eddiefleurent/fno_tracker/internal/signal"
	"github.com/eddiefleurent/fno_tracker/internal/storage"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// Result describes what a run produced.
type Result struct {
	ReportPath  string
	SummaryPath string
	Signals     []signal.Signal
	Logged      []models.PerformanceLogEntry
	Summary     report.Summary
	// Warnings are non-fatal degradations, in the order they occurred.
	Warnings []string
}

// Pipeline wires the components of a run.
type Pipeline struct {
	cfg      *config.Config
	run      config.RunContext
	provider marketdata.Provider
	store    storage.Interface
	charts   *report.ChartRenderer
	log      *logrus.Entry
}

// New creates a pipeline for one run.
func New(cfg *config.Config, run config.RunContext, provider marketdata.Provider,
	store storage.Interface, log *logrus.Entry) *Pipeline {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{
		cfg:      cfg,
		run:      run,
		provider: provider,
		store:    store,
		charts:   report.NewChartRenderer(),
		log:      log,
	}
}

// EnsureDirs creates the data, report and performance directories.
func EnsureDirs(run config.RunContext) error {
	for _, dir := range []string{run.DataDir(), run.ReportDir(), run.PerformanceDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Run executes the pass. Only failing to create the output directories or to
// write the report is fatal; everything else degrades to a warning.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{ReportPath: p.run.ReportPath()}
	p.log.WithField("session", p.run.SessionDate().Format(util.DateLayout)).Info("Starting run")

	if err := EnsureDirs(p.run); err != nil {
		return nil, err
	}

	symbols := p.cfg.Analysis.Symbols
	warnings := make(map[string][]string, len(symbols))
	warn := func(symbol, msg string) {
		res.Warnings = append(res.Warnings, msg)
		if symbol != "" {
			warnings[symbol] = append(warnings[symbol], msg)
		}
	}

	extractor := chain.NewExtractor(p.run.RunDate, p.cfg.Analysis.StrikeWindow)
	for _, symbol := range symbols {
		if msg := p.snapshot(ctx, extractor, symbol); msg != "" {
			warn(symbol, msg)
		}
	}

	market, in := p.marketContext(ctx, warn)

	analyzer := signal.NewAnalyzer(p.store, p.cfg.Analysis.Lookback(), p.cfg.Analysis.MinTrendDays, p.log)
	for _, symbol := range symbols {
		slog := p.log.WithField("symbol", symbol)

		a, err := analyzer.Analyze(symbol, p.run.RunDate)
		if err != nil {
			slog.WithError(err).Warn("Analysis failed")
			warn(symbol, fmt.Sprintf("Analysis failed for %s: %v", symbol, err))
		}
		sig := signal.Evaluate(a, market)
		res.Signals = append(res.Signals, sig)
		in.Sections = append(in.Sections, report.Section{Symbol: symbol, Signal: sig, Warnings: warnings[symbol]})

		if a != nil {
			slog.WithFields(logrus.Fields{
				"status": a.Status, "pcr": a.PCR.String(), "sentiment": a.Sentiment, "score": sig.Score,
			}).Info("Symbol analyzed")
		}

		if sig.Suggestion != nil {
			entry := logEntry(p.run, symbol, sig)
			if err := p.store.AppendPerformance(entry); err != nil {
				slog.WithError(err).Error("Failed to append performance log")
				warn("", fmt.Sprintf("Performance log append failed for %s: %v", symbol, err))
				continue
			}
			res.Logged = append(res.Logged, entry)
			slog.WithFields(logrus.Fields{"strike": entry.Strike, "entry": entry.Entry}).Info("Trade suggested")
		}
	}

	if err := report.WriteReport(res.ReportPath, in); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	p.log.WithField("path", res.ReportPath).Info("Report saved")

	p.summarize(res, warn)
	return res, nil
}

// snapshot fetches, flattens and stores one symbol, returning a warning on
// failure.
func (p *Pipeline) snapshot(ctx context.Context, extractor *chain.Extractor, symbol string) string {
	slog := p.log.WithField("symbol", symbol)

	oc, err := p.provider.FetchOptionChain(ctx, symbol)
	if err != nil {
		slog.WithError(err).Warn("Fetch failed")
		return fmt.Sprintf("Fetch failed for %s: %v", symbol, err)
	}

	rows := extractor.FlattenChain(oc)
	if err := p.store.SaveSnapshot(symbol, p.run.RunDate, rows); err != nil {
		slog.WithError(err).Warn("Snapshot save failed")
		return fmt.Sprintf("Snapshot save failed for %s: %v", symbol, err)
	}
	slog.WithFields(logrus.Fields{"raw": len(oc.Records.Data), "kept": len(rows)}).Info("Snapshot saved")
	if len(rows) == 0 {
		return fmt.Sprintf("No admissible option rows for %s", symbol)
	}
	return ""
}

// marketContext gathers the volatility index and the global basket.
func (p *Pipeline) marketContext(ctx context.Context, warn func(symbol, msg string)) (signal.MarketContext, report.Input) {
	in := report.Input{Mode: p.run.Mode, SessionDate: p.run.SessionDate()}
	var market signal.MarketContext

	vix, err := p.provider.FetchVolatilityIndex(ctx)
	if err != nil {
		p.log.WithError(err).Warn("Volatility index unavailable")
		warn("", fmt.Sprintf("Volatility index unavailable: %v", err))
	} else {
		market.VIX, market.VIXAvailable = vix, true
	}

	basket := Basket(p.cfg)
	quotes := p.provider.FetchGlobalIndices(ctx, basket)
	for _, gi := range basket {
		q, ok := quotes[gi.Name]
		if !ok {
			q = marketdata.GlobalQuote{Err: "no data"}
		}
		in.Global = append(in.Global, report.GlobalLine{Name: gi.Name, Quote: q})
	}
	market.GlobalScore, market.HasGlobal = signal.GlobalScore(quotes)

	in.VIX, in.VIXAvailable = market.VIX, market.VIXAvailable
	in.GlobalScore, in.HasGlobal = market.GlobalScore, market.HasGlobal
	return market, in
}

func logEntry(run config.RunContext, symbol string, sig signal.Signal) models.PerformanceLogEntry {
	s := sig.Suggestion
	return models.PerformanceLogEntry{
		Date:    run.SessionDate().Format(util.DateLayout),
		Symbol:  symbol,
		Strike:  s.Strike,
		Entry:   s.Entry,
		Target:  s.Target,
		Stop:    s.Stop,
		Expiry:  s.Expiry,
		Score:   sig.Score,
		Outcome: models.OutcomePending,
	}
}

// summarize rewrites the performance summary and charts. Failures are
// warnings.
func (p *Pipeline) summarize(res *Result, warn func(symbol, msg string)) {
	entries, err := p.store.LoadPerformance()
	if err != nil {
		p.log.WithError(err).Warn("Could not read performance log")
		warn("", fmt.Sprintf("Performance summary skipped: %v", err))
		return
	}
	res.Summary = report.Summarize(entries)

	withCharts := false
	if err := p.charts.RenderAll(p.run.PerformanceDir(), entries); err != nil {
		if !errors.Is(err, report.ErrNoEntries) {
			p.log.WithError(err).Warn("Chart rendering failed")
			warn("", fmt.Sprintf("Chart rendering failed: %v", err))
		}
	} else {
		withCharts = true
	}

	res.SummaryPath = filepath.Join(p.run.PerformanceDir(), report.SummaryFile)
	if err := report.WriteSummary(res.SummaryPath, res.Summary, withCharts); err != nil {
		p.log.WithError(err).Warn("Could not write performance summary")
		warn("", fmt.Sprintf("Performance summary not written: %v", err))
		res.SummaryPath = ""
		return
	}

	p.log.WithFields(logrus.Fields{
		"total":     res.Summary.Total,
		"wins":      res.Summary.Wins,
		"losses":    res.Summary.Losses,
		"pending":   res.Summary.Pending,
		"win_rate":  res.Summary.WinRate,
		"avg_score": res.Summary.AvgScore,
	}).Info("Performance summary updated")
}
