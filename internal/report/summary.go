package report

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// SummaryFile is written next to the performance log.
const SummaryFile = "performance_summary.md"

const topTrades = 3

// Summary aggregates the whole performance log.
type Summary struct {
	Total    int                          `json:"total"`
	Wins     int                          `json:"wins"`
	Losses   int                          `json:"losses"`
	Pending  int                          `json:"pending"`
	WinRate  float64                      `json:"win_rate"`
	AvgScore float64                      `json:"avg_score"`
	Top      []models.PerformanceLogEntry `json:"top"`
}

// Summarize counts outcomes, the win rate over all entries and the mean
// score, and picks the three best-scored entries. Ties keep log order.
func Summarize(entries []models.PerformanceLogEntry) Summary {
	s := Summary{Total: len(entries)}
	if s.Total == 0 {
		return s
	}

	scores := make([]float64, len(entries))
	for i, e := range entries {
		scores[i] = e.Score
		switch e.Outcome {
		case models.OutcomeHitTarget:
			s.Wins++
		case models.OutcomeHitStop:
			s.Losses++
		case models.OutcomePending:
			s.Pending++
		}
	}
	s.WinRate = util.Round2(float64(s.Wins) / float64(s.Total) * 100)
	s.AvgScore = util.Round2(stat.Mean(scores, nil))

	ranked := append([]models.PerformanceLogEntry(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > topTrades {
		ranked = ranked[:topTrades]
	}
	s.Top = ranked
	return s
}

// RenderSummary produces the summary markdown. The charts section is only
// included when the chart images were rendered.
func RenderSummary(s Summary, withCharts bool) string {
	var b strings.Builder

	b.WriteString("# 📊 FnO Performance Summary\n\n")
	fmt.Fprintf(&b, "- 📅 Total Trades: `%d`\n", s.Total)
	fmt.Fprintf(&b, "- ✅ Wins: `%d`\n", s.Wins)
	fmt.Fprintf(&b, "- ❌ Losses: `%d`\n", s.Losses)
	fmt.Fprintf(&b, "- ⏳ Pending: `%d`\n", s.Pending)
	fmt.Fprintf(&b, "- 🎯 Win Rate: `%s%%`\n", num(s.WinRate))
	fmt.Fprintf(&b, "- 🧮 Avg Signal Score: `%s`\n", num(s.AvgScore))

	b.WriteString("\n## 🏆 Top 3 Trades by Score\n")
	if len(s.Top) == 0 {
		b.WriteString("- No trades logged yet.\n")
	}
	for _, e := range s.Top {
		fmt.Fprintf(&b, "- `%s` | `%s` | Strike `%s` | Score `%s` | Outcome `%s`\n",
			e.Date, e.Symbol, num(e.Strike), num(e.Score), e.Outcome)
	}

	if withCharts {
		b.WriteString("\n## 📈 Charts\n")
		fmt.Fprintf(&b, "![Signal Score Histogram](%s)\n", HistogramFile)
		fmt.Fprintf(&b, "![Trade Outcome Pie](%s)\n", OutcomePieFile)
	}
	return b.String()
}

// WriteSummary writes the rendered summary to path.
func WriteSummary(path string, s Summary, withCharts bool) error {
	return writeFileAtomic(path, []byte(RenderSummary(s, withCharts)))
}
