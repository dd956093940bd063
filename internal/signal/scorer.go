package signal

import (
	"gonum.org/v1/gonum/floats"

	"github.com/eddiefleurent/fno_tracker/internal/marketdata"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

// Factor points.
const (
	pointsBullish  = 25
	pointsNeutral  = 15
	pointsSurge    = 25
	pointsOIRising = 20
	pointsCalmVIX  = 15
	calmVIXBelow   = 14.0

	strongFrom   = 80.0
	moderateFrom = 50.0

	targetMultiple   = 1.5
	stopLossMultiple = 0.7
)

// MarketContext carries the run-wide inputs shared by every symbol.
type MarketContext struct {
	VIX          float64
	VIXAvailable bool
	GlobalScore  float64
	HasGlobal    bool
}

// ScoreInput is everything the score depends on.
type ScoreInput struct {
	Sentiment   models.Sentiment
	VolumeSurge bool
	OITrend     models.Trend
	Market      MarketContext
}

// Score adds up independent factor points plus the global market score.
func Score(in ScoreInput) float64 {
	points := 0
	switch in.Sentiment {
	case models.SentimentBullish:
		points += pointsBullish
	case models.SentimentNeutral:
		points += pointsNeutral
	}
	if in.VolumeSurge {
		points += pointsSurge
	}
	if in.OITrend == models.TrendIncreasing {
		points += pointsOIRising
	}
	if in.Market.VIXAvailable && in.Market.VIX < calmVIXBelow {
		points += pointsCalmVIX
	}

	score := float64(points)
	if in.Market.HasGlobal {
		score += in.Market.GlobalScore
	}
	return util.Round2(score)
}

// TagFor maps a score to its confidence tag.
func TagFor(score float64) models.SignalTag {
	switch {
	case score >= strongFrom:
		return models.TagStrong
	case score >= moderateFrom:
		return models.TagModerate
	default:
		return models.TagWeak
	}
}

// GlobalScore sums the percent moves of basket members that returned data.
// ok is false when none did.
func GlobalScore(quotes map[string]marketdata.GlobalQuote) (score float64, ok bool) {
	percents := make([]float64, 0, len(quotes))
	for _, q := range quotes {
		if q.OK() {
			percents = append(percents, q.Percent)
		}
	}
	if len(percents) == 0 {
		return 0, false
	}
	return util.Round2(floats.Sum(percents)), true
}

// Levels are the fixed-multiple entry, target and stop of a suggestion.
type Levels struct {
	Entry  float64
	Target float64
	Stop   float64
}

// LevelsFor derives levels from the latest traded price.
func LevelsFor(lastPrice float64) Levels {
	entry := util.Round2(lastPrice)
	return Levels{
		Entry:  entry,
		Target: util.Round2(entry * targetMultiple),
		Stop:   util.Round2(entry * stopLossMultiple),
	}
}

// Suggestion is a directional trade idea.
type Suggestion struct {
	Direction  string
	Side       models.Side
	Strike     float64
	Expiry     string
	Identifier string
	Levels
}

// Suggest emits a suggestion only when both the volume and open-interest
// trends are increasing.
func Suggest(a *Analysis) (*Suggestion, bool) {
	if a == nil || a.Status != StatusOK {
		return nil, false
	}
	if a.VolumeTrend != models.TrendIncreasing || a.OITrend != models.TrendIncreasing {
		return nil, false
	}
	latest, ok := a.Latest()
	if !ok {
		return nil, false
	}
	return &Suggestion{
		Direction:  a.Side.Direction(),
		Side:       a.Side,
		Strike:     a.TopStrike,
		Expiry:     latest.Expiry,
		Identifier: latest.Identifier,
		Levels:     LevelsFor(latest.LastPrice),
	}, true
}

// Signal is the scored result for one symbol.
type Signal struct {
	Analysis   *Analysis
	Score      float64
	Tag        models.SignalTag
	Suggestion *Suggestion
}

// Scored reports whether a score was computed; unavailable symbols have none.
func (s Signal) Scored() bool {
	return s.Analysis != nil && s.Analysis.Status != StatusUnavailable
}

// Evaluate scores an analysis and attaches a suggestion when triggered.
func Evaluate(a *Analysis, market MarketContext) Signal {
	sig := Signal{Analysis: a}
	if a == nil || a.Status == StatusUnavailable {
		return sig
	}
	sig.Score = Score(ScoreInput{
		Sentiment:   a.Sentiment,
		VolumeSurge: a.VolumeSurge,
		OITrend:     a.OITrend,
		Market:      market,
	})
	sig.Tag = TagFor(sig.Score)
	sig.Suggestion, _ = Suggest(a)
	return sig
}
