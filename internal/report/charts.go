package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/eddiefleurent/fno_tracker/internal/models"
)

// Chart file names inside the performance directory.
const (
	HistogramFile  = "signal_score_histogram.png"
	OutcomePieFile = "trade_outcome_pie.png"
)

const defaultBins = 10

// ErrNoEntries is returned when there is nothing to chart.
var ErrNoEntries = errors.New("no performance entries to chart")

// Bin is one histogram bucket covering [Lower, Upper).
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// Label is the bucket's axis label.
func (b Bin) Label() string {
	return fmt.Sprintf("%.0f-%.0f", b.Lower, b.Upper)
}

// HistogramBins splits scores into n equal-width buckets between the lowest
// and highest score; the highest score lands in the last bucket.
func HistogramBins(scores []float64, n int) []Bin {
	if len(scores) == 0 || n <= 0 {
		return nil
	}
	lo, hi := floats.Min(scores), floats.Max(scores)
	if lo == hi {
		return []Bin{{Lower: lo, Upper: hi, Count: len(scores)}}
	}

	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lower = lo + float64(i)*width
		bins[i].Upper = lo + float64(i+1)*width
	}
	for _, s := range scores {
		i := int(math.Floor((s - lo) / width))
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}

// OutcomeCounts counts entries per outcome in a fixed order, omitting
// outcomes that never occur.
func OutcomeCounts(entries []models.PerformanceLogEntry) []chart.Value {
	counts := map[models.Outcome]int{}
	for _, e := range entries {
		counts[e.Outcome]++
	}
	var values []chart.Value
	for _, o := range []models.Outcome{models.OutcomeHitTarget, models.OutcomeHitStop, models.OutcomePending} {
		if c := counts[o]; c > 0 {
			values = append(values, chart.Value{Value: float64(c), Label: fmt.Sprintf("%s (%d)", o, c)})
		}
	}
	return values
}

// ChartRenderer draws the performance charts as PNG.
type ChartRenderer struct {
	Width  int
	Height int
	Bins   int
}

// NewChartRenderer returns a renderer with default dimensions.
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{Width: 800, Height: 480, Bins: defaultBins}
}

// ScoreHistogram draws the signal score distribution.
func (r *ChartRenderer) ScoreHistogram(w io.Writer, entries []models.PerformanceLogEntry) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}
	scores := make([]float64, len(entries))
	for i, e := range entries {
		scores[i] = e.Score
	}

	bins := HistogramBins(scores, r.Bins)
	bars := make([]chart.Value, len(bins))
	maxCount := 0
	for i, b := range bins {
		bars[i] = chart.Value{Value: float64(b.Count), Label: b.Label()}
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	graph := chart.BarChart{
		Title:      "Signal Score Histogram",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   r.Width / (2 * len(bars)),
		BarSpacing: r.Width / (4 * len(bars)),
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// OutcomePie draws the share of each trade outcome.
func (r *ChartRenderer) OutcomePie(w io.Writer, entries []models.PerformanceLogEntry) error {
	values := OutcomeCounts(entries)
	if len(values) == 0 {
		return ErrNoEntries
	}
	pie := chart.PieChart{
		Title:  "Trade Outcomes",
		Width:  r.Height,
		Height: r.Height,
		Values: values,
	}
	return pie.Render(chart.PNG, w)
}

// RenderAll writes both charts into dir. It returns ErrNoEntries, writing
// nothing, when no entry carries a known outcome; a failed pie removes the
// histogram so the pair is written together or not at all.
func (r *ChartRenderer) RenderAll(dir string, entries []models.PerformanceLogEntry) error {
	if len(OutcomeCounts(entries)) == 0 {
		return ErrNoEntries
	}
	histPath := filepath.Join(dir, HistogramFile)
	if err := r.renderFile(histPath, entries, r.ScoreHistogram); err != nil {
		return fmt.Errorf("score histogram: %w", err)
	}
	if err := r.renderFile(filepath.Join(dir, OutcomePieFile), entries, r.OutcomePie); err != nil {
		_ = os.Remove(histPath)
		return fmt.Errorf("outcome pie: %w", err)
	}
	return nil
}

func (r *ChartRenderer) renderFile(path string, entries []models.PerformanceLogEntry,
	draw func(io.Writer, []models.PerformanceLogEntry) error) error {
	f, err := os.Create(path) // #nosec G304 -- path built from configured base dir
	if err != nil {
		return err
	}
	if err := draw(f, entries); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
