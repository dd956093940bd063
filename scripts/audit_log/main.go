// audit_log - A utility to audit the cumulative performance log.
// It reports summary counts and flags rows a reader of the summary should
// know about: duplicates from reruns, inconsistent price levels and pending
// trades whose expiry has passed.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/eddiefleurent/fno_tracker/internal/config"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/report"
	"github.com/eddiefleurent/fno_tracker/internal/storage"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

type auditResult struct {
	Summary report.Summary `json:"summary"`
	Issues  []string       `json:"issues"`
}

func main() {
	var (
		configPath = flag.String("config", config.DefaultConfigPath, "Path to configuration file")
		jsonOutput = flag.Bool("json", false, "Output results as JSON")
		verbose    = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.NewCSVStorage(cfg.Storage.BaseDir)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	if *verbose {
		fmt.Printf("Using config: %s\n", *configPath)
		fmt.Printf("Performance log: %s\n\n", store.PerformanceLogPath())
	}

	entries, err := store.LoadPerformance()
	if err != nil {
		log.Fatalf("Failed to load performance log: %v", err)
	}

	today := util.DateOnly(time.Now().In(cfg.Location()))
	audit := auditResult{
		Summary: report.Summarize(entries),
		Issues:  analyzeLog(entries, today),
	}

	if *jsonOutput {
		output, err := json.MarshalIndent(audit, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal JSON: %v", err)
		}
		fmt.Println(string(output))
		return
	}

	fmt.Print(report.RenderSummary(audit.Summary, false))
	fmt.Printf("\n=== ANALYSIS ===\n")
	if len(audit.Issues) == 0 {
		fmt.Printf("No obvious issues detected.\n")
		return
	}
	fmt.Printf("POTENTIAL ISSUES FOUND:\n")
	for i, issue := range audit.Issues {
		fmt.Printf("  %d. %s\n", i+1, issue)
	}
}

// analyzeLog flags suspicious rows. Row numbers are 1-based data rows.
func analyzeLog(entries []models.PerformanceLogEntry, today time.Time) []string {
	var issues []string
	seen := make(map[string]int, len(entries))

	for i, e := range entries {
		row := i + 1

		key := fmt.Sprintf("%s|%s|%g", e.Date, e.Symbol, e.Strike)
		if first, ok := seen[key]; ok {
			issues = append(issues, fmt.Sprintf("row %d duplicates row %d (%s %s strike %g)",
				row, first, e.Date, e.Symbol, e.Strike))
		} else {
			seen[key] = row
		}

		if e.Entry <= 0 {
			issues = append(issues, fmt.Sprintf("row %d has non-positive entry price %g", row, e.Entry))
		} else if e.Target <= e.Entry || e.Stop >= e.Entry {
			issues = append(issues, fmt.Sprintf("row %d levels out of order: stop %g, entry %g, target %g",
				row, e.Stop, e.Entry, e.Target))
		}

		if e.Score < 0 {
			issues = append(issues, fmt.Sprintf("row %d has negative score %g", row, e.Score))
		}

		if e.Outcome != models.OutcomePending {
			continue
		}
		expiry, err := time.ParseInLocation(models.ExpiryLayout, e.Expiry, today.Location())
		if err != nil {
			issues = append(issues, fmt.Sprintf("row %d has unparseable expiry %q", row, e.Expiry))
			continue
		}
		if expiry.Before(today) {
			issues = append(issues, fmt.Sprintf("row %d still Pending after expiry %s", row, e.Expiry))
		}
	}
	return issues
}
