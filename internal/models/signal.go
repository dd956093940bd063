package models

import "fmt"

// Mode selects which trading session a run reports on.
type Mode string

const (
	// ModeEvening computes signals for the next trading session.
	ModeEvening Mode = "evening"
	// ModeMorning computes signals for the current session.
	ModeMorning Mode = "morning"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEvening, ModeMorning:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be 'evening' or 'morning'", s)
	}
}

// Title returns the capitalised mode name used in report headings.
func (m Mode) Title() string {
	switch m {
	case ModeEvening:
		return "Evening"
	case ModeMorning:
		return "Morning"
	default:
		return string(m)
	}
}

// Sentiment is the put-call-ratio bucket.
type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentNeutral Sentiment = "Neutral"
	SentimentBearish Sentiment = "Bearish"
	SentimentUnknown Sentiment = "Unknown"
)

// Trend is the verdict of the two-point monotonic check.
type Trend string

const (
	TrendIncreasing Trend = "Increasing"
	TrendFlat       Trend = "Flat"
)

// SignalTag annotates a signal score.
type SignalTag string

const (
	TagStrong   SignalTag = "Strong Signal"
	TagModerate SignalTag = "Moderate Signal"
	TagWeak     SignalTag = "Weak Signal"
)

// Direction returns the option type traded for a side.
func (s Side) Direction() string {
	if s == SideCall {
		return "Call"
	}
	return "Put"
}
