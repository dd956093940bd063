// Package report renders the per-run markdown report and the cumulative
// performance summary with its charts.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/eddiefleurent/fno_tracker/internal/marketdata"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/signal"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// GlobalLine is one basket member in configured order.
type GlobalLine struct {
	Name  string
	Quote marketdata.GlobalQuote
}

// Section is the report block of one symbol. Warnings are printed before the
// analysis, e.g. a failed fetch that fell back to an earlier snapshot.
type Section struct {
	Symbol   string
	Signal   signal.Signal
	Warnings []string
}

// Input is everything a report shows.
type Input struct {
	Mode         models.Mode
	SessionDate  time.Time
	VIX          float64
	VIXAvailable bool
	Global       []GlobalLine
	GlobalScore  float64
	HasGlobal    bool
	Sections     []Section
}

// Render produces the markdown document.
func Render(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 📊 FnO Tracker Report – %s (%s Mode)\n\n", in.SessionDate.Format(util.DateLayout), in.Mode.Title())

	if in.VIXAvailable {
		fmt.Fprintf(&b, "- 🌪️ India VIX: `%s`\n", num(in.VIX))
	} else {
		b.WriteString("- 🌪️ India VIX: `N/A`\n")
	}
	for _, g := range in.Global {
		if !g.Quote.OK() {
			fmt.Fprintf(&b, "- ⚠️ %s: `%s`\n", g.Name, g.Quote.Err)
			continue
		}
		fmt.Fprintf(&b, "- 🌐 %s: Change `%s` (%s%%)\n", g.Name, num(g.Quote.Change), num(g.Quote.Percent))
	}
	if in.HasGlobal {
		fmt.Fprintf(&b, "- 🌍 Global Market Score: `%s`\n", num(in.GlobalScore))
	}

	for _, s := range in.Sections {
		b.WriteString("\n")
		renderSection(&b, in.Mode, s)
	}
	return b.String()
}

func renderSection(b *strings.Builder, mode models.Mode, s Section) {
	fmt.Fprintf(b, "## 📘 %s (%s Mode)\n", s.Symbol, mode.Title())
	for _, w := range s.Warnings {
		fmt.Fprintf(b, "- ⚠️ %s\n", w)
	}

	a := s.Signal.Analysis
	if a == nil || a.Status == signal.StatusUnavailable {
		fmt.Fprintf(b, "- ⚠️ No snapshot available for %s; skipping analysis.\n", s.Symbol)
		return
	}

	fmt.Fprintf(b, "- 🟦 Call OI: `%s`\n", humanize.Comma(a.CallOI))
	fmt.Fprintf(b, "- 🔴 Put OI: `%s`\n", humanize.Comma(a.PutOI))
	fmt.Fprintf(b, "- 🔄 PCR: `%s` → `%s`\n", a.PCR, a.Sentiment)

	switch a.Status {
	case signal.StatusPCRUndefined:
		b.WriteString("- ⚠️ PCR undefined (no call open interest). Trend analysis skipped.\n")
	case signal.StatusNoData:
		b.WriteString("- ⚠️ No volume data for top strike.\n")
	default:
		fmt.Fprintf(b, "- 🔢 Top Strike: `%s`\n", num(a.TopStrike))
		fmt.Fprintf(b, "- 📆 Expiry: `%s`\n", a.Expiry)
		fmt.Fprintf(b, "- 🎫 Symbol: `%s`\n", a.Identifier)
		if a.Status == signal.StatusOK {
			fmt.Fprintf(b, "- 📊 Strike `%s` Volume Trend: `%s`\n", num(a.TopStrike), a.VolumeTrend)
			fmt.Fprintf(b, "- 📊 Strike `%s` OI Trend: `%s`\n", num(a.TopStrike), a.OITrend)
		}
		fmt.Fprintf(b, "- 🚀 Volume Surge: `%t` (%s)\n", a.VolumeSurge, a.SurgeMode)
	}

	fmt.Fprintf(b, "- 🧮 Signal Score: `%s` → `%s`\n", num(s.Signal.Score), s.Signal.Tag)

	switch {
	case s.Signal.Suggestion != nil:
		sg := s.Signal.Suggestion
		fmt.Fprintf(b, "\n### 🧭 Trade Suggestion for %s: %s ⇒ `%s` Option\n", s.Symbol, s.Signal.Tag, sg.Direction)
		fmt.Fprintf(b, "- ✅ Direction: `%s Option`\n", sg.Direction)
		fmt.Fprintf(b, "- 🔢 Strike Price: `%s`\n", num(sg.Strike))
		fmt.Fprintf(b, "- 📆 Expiry: `%s`\n", sg.Expiry)
		fmt.Fprintf(b, "- 🎫 Symbol: `%s`\n", sg.Identifier)
		fmt.Fprintf(b, "- 💰 Entry: ₹%.2f\n", sg.Entry)
		fmt.Fprintf(b, "- 🎯 Target: ₹%.2f\n", sg.Target)
		fmt.Fprintf(b, "- ⛔ Stop-Loss: ₹%.2f\n", sg.Stop)
	case a.Status == signal.StatusOK:
		b.WriteString("- ⚠️ Trends are weak. No trade suggested.\n")
	case a.Status == signal.StatusInsufficient:
		b.WriteString("- ⚠️ Insufficient data for trend analysis.\n")
	}
}

// WriteReport renders in and writes it to path, replacing any earlier report
// for the same session.
func WriteReport(path string, in Input) error {
	return writeFileAtomic(path, []byte(Render(in)))
}

func writeFileAtomic(path string, data []byte) error {
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

// num formats without trailing zeros: 24000, 0.5, -1.25.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
