package models

// Outcome is the recorded result of a suggested trade.
type Outcome string

const (
	// OutcomePending is the only outcome this system ever writes.
	OutcomePending Outcome = "Pending"
	// OutcomeHitTarget marks a trade that reached its target.
	OutcomeHitTarget Outcome = "Hit Target"
	// OutcomeHitStop marks a trade that reached its stop.
	OutcomeHitStop Outcome = "Hit Stop"
)

// PerformanceLogColumns is the exact CSV header of the performance log.
var PerformanceLogColumns = []string{
	"date",
	"symbol",
	"strike",
	"entry",
	"target",
	"stop",
	"expiry",
	"score",
	"outcome",
}

// PerformanceLogEntry is one suggested trade appended to the performance log.
type PerformanceLogEntry struct {
	Date    string  `json:"date"`
	Symbol  string  `json:"symbol"`
	Expiry  string  `json:"expiry"`
	Outcome Outcome `json:"outcome"`
	Strike  float64 `json:"strike"`
	Entry   float64 `json:"entry"`
	Target  float64 `json:"target"`
	Stop    float64 `json:"stop"`
	Score   float64 `json:"score"`
}
