// Package signal derives put-call ratio, sentiment, top-volume strike and
// multi-day trends from daily snapshots, and scores them.
package signal

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/storage"
	"github.com/eddiefleurent/fno_tracker/internal/util"
)

const (
	// bullishBelow and bearishAbove bound the neutral PCR bucket.
	bullishBelow = 0.9
	bearishAbove = 1.3

	surgeMultiple = 2.0
	singleDayTopN = 5
)

// Status describes how far the analysis of a symbol got.
type Status string

const (
	StatusOK           Status = "ok"
	StatusUnavailable  Status = "unavailable"
	StatusPCRUndefined Status = "pcr-undefined"
	StatusNoData       Status = "no-data"
	StatusInsufficient Status = "insufficient-data"
)

// SurgeMode records which volume surge rule was applied.
type SurgeMode string

const (
	SurgeWindow    SurgeMode = "window"
	SurgeSingleDay SurgeMode = "single-day"
)

// PCR is a put-call ratio; Valid is false when call open interest is zero.
type PCR struct {
	Value float64
	Valid bool
}

func (p PCR) String() string {
	if !p.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", p.Value)
}

// ComputePCR sums open interest over rows and returns the ratio rounded to
// two decimals together with both totals.
func ComputePCR(rows []models.FlattenedRow) (pcr PCR, callOI, putOI int64) {
	for _, r := range rows {
		callOI += r.CEOI
		putOI += r.PEOI
	}
	if callOI == 0 {
		return PCR{}, callOI, putOI
	}
	return PCR{Value: util.Round2(float64(putOI) / float64(callOI)), Valid: true}, callOI, putOI
}

// ClassifySentiment buckets a PCR.
func ClassifySentiment(p PCR) models.Sentiment {
	switch {
	case !p.Valid:
		return models.SentimentUnknown
	case p.Value < bullishBelow:
		return models.SentimentBullish
	case p.Value > bearishAbove:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// SideFor returns CE for bullish sentiment, PE otherwise.
func SideFor(s models.Sentiment) models.Side {
	if s == models.SentimentBullish {
		return models.SideCall
	}
	return models.SidePut
}

// TopVolumeRow returns the first row holding the maximum side volume. ok is
// false when no row has any volume.
func TopVolumeRow(rows []models.FlattenedRow, side models.Side) (top models.FlattenedRow, ok bool) {
	var best int64
	for _, r := range rows {
		if v := r.Volume(side); v > best {
			best, top, ok = v, r, true
		}
	}
	return top, ok
}

// DetectTrend is a two-point monotonic check: the last value must exceed the
// first and, when the window has at least four values, the second-to-last
// must exceed the second.
func DetectTrend(values []float64) models.Trend {
	n := len(values)
	if n < 2 || values[n-1] <= values[0] {
		return models.TrendFlat
	}
	if n >= 4 && values[n-2] <= values[1] {
		return models.TrendFlat
	}
	return models.TrendIncreasing
}

// WindowSurge reports whether the latest volume exceeds twice the mean of
// the earlier ones.
func WindowSurge(volumes []float64) bool {
	if len(volumes) < 2 {
		return false
	}
	last := volumes[len(volumes)-1]
	return last > surgeMultiple*stat.Mean(volumes[:len(volumes)-1], nil)
}

// SingleDaySurge reports whether topVolume exceeds twice the mean of the
// five highest side volumes in rows.
func SingleDaySurge(rows []models.FlattenedRow, side models.Side, topVolume int64) bool {
	if len(rows) == 0 {
		return false
	}
	vols := make([]float64, len(rows))
	for i, r := range rows {
		vols[i] = float64(r.Volume(side))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(vols)))
	if len(vols) > singleDayTopN {
		vols = vols[:singleDayTopN]
	}
	return float64(topVolume) > surgeMultiple*stat.Mean(vols, nil)
}

// Analysis is the aggregator output for one symbol.
type Analysis struct {
	Symbol    string
	Status    Status
	PCR       PCR
	Sentiment models.Sentiment
	CallOI    int64
	PutOI     int64
	Side      models.Side

	// Top-volume row of today's snapshot
	TopStrike  float64
	Expiry     string
	Identifier string
	TopVolume  int64

	// Samples is the trend window, oldest first
	Samples     []models.TrendSample
	VolumeTrend models.Trend
	OITrend     models.Trend
	VolumeSurge bool
	SurgeMode   SurgeMode
}

// Latest returns the most recent kept trend sample.
func (a *Analysis) Latest() (models.TrendSample, bool) {
	if len(a.Samples) == 0 {
		return models.TrendSample{}, false
	}
	return a.Samples[len(a.Samples)-1], true
}

// Analyzer reads snapshots from a store and aggregates them.
type Analyzer struct {
	store        storage.SnapshotStore
	lookbackDays int
	minTrendDays int
	log          *logrus.Entry
}

// NewAnalyzer creates an analyzer looking back lookbackDays prior trading
// days and requiring minTrendDays usable days for a trend.
func NewAnalyzer(store storage.SnapshotStore, lookbackDays, minTrendDays int, log *logrus.Entry) *Analyzer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Analyzer{
		store:        store,
		lookbackDays: lookbackDays,
		minTrendDays: minTrendDays,
		log:          log.WithField("component", "aggregator"),
	}
}

// Analyze aggregates symbol for runDate. A missing snapshot for runDate is
// reported as StatusUnavailable rather than an error; other storage failures
// are returned.
func (a *Analyzer) Analyze(symbol string, runDate time.Time) (*Analysis, error) {
	runDate = util.DateOnly(runDate)
	log := a.log.WithField("symbol", symbol)
	res := &Analysis{
		Symbol:      symbol,
		Sentiment:   models.SentimentUnknown,
		VolumeTrend: models.TrendFlat,
		OITrend:     models.TrendFlat,
	}

	today, err := a.store.LoadSnapshot(symbol, runDate)
	if err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) {
			res.Status = StatusUnavailable
			return res, nil
		}
		return nil, fmt.Errorf("loading %s snapshot: %w", symbol, err)
	}

	res.PCR, res.CallOI, res.PutOI = ComputePCR(today)
	res.Sentiment = ClassifySentiment(res.PCR)
	res.Side = SideFor(res.Sentiment)
	if !res.PCR.Valid {
		res.Status = StatusPCRUndefined
		return res, nil
	}

	top, ok := TopVolumeRow(today, res.Side)
	if !ok {
		res.Status = StatusNoData
		return res, nil
	}
	res.TopStrike = top.StrikePrice
	res.Expiry = top.ExpiryDate
	res.Identifier = top.Identifier(res.Side)
	res.TopVolume = top.Volume(res.Side)

	days := append(util.PreviousTradingDays(runDate, a.lookbackDays), runDate)
	for _, d := range days {
		rows := today
		if !d.Equal(runDate) {
			rows, err = a.store.LoadSnapshot(symbol, d)
			if err != nil {
				if !errors.Is(err, storage.ErrSnapshotNotFound) {
					log.WithError(err).WithField("date", d.Format(util.DateLayout)).Warn("skipping unreadable snapshot")
				}
				continue
			}
		}
		if s, ok := sampleFor(rows, res.TopStrike, res.Expiry, res.Side, d); ok {
			res.Samples = append(res.Samples, s)
		}
	}

	if len(res.Samples) < a.minTrendDays {
		log.WithField("days", len(res.Samples)).Debug("trend window too short, using single-day surge")
		res.Status = StatusInsufficient
		res.SurgeMode = SurgeSingleDay
		res.VolumeSurge = SingleDaySurge(today, res.Side, res.TopVolume)
		return res, nil
	}

	vols := make([]float64, len(res.Samples))
	ois := make([]float64, len(res.Samples))
	for i, s := range res.Samples {
		vols[i] = float64(s.Volume)
		ois[i] = float64(s.OpenInterest)
	}
	res.Status = StatusOK
	res.VolumeTrend = DetectTrend(vols)
	res.OITrend = DetectTrend(ois)
	res.SurgeMode = SurgeWindow
	res.VolumeSurge = WindowSurge(vols)
	return res, nil
}

// sampleFor narrows the row at strike to side, preferring the row on expiry
// so every day tracks the contract picked as today's top row; without one it
// falls back to the first row at strike. Days whose row has no traded price
// or identifier are not usable.
func sampleFor(rows []models.FlattenedRow, strike float64, expiry string, side models.Side, day time.Time) (models.TrendSample, bool) {
	match := -1
	for i, r := range rows {
		if r.StrikePrice != strike {
			continue
		}
		if r.ExpiryDate == expiry {
			match = i
			break
		}
		if match < 0 {
			match = i
		}
	}
	if match < 0 {
		return models.TrendSample{}, false
	}

	r := rows[match]
	s := models.TrendSample{
		Date:         day,
		Identifier:   r.Identifier(side),
		Expiry:       r.ExpiryDate,
		Volume:       r.Volume(side),
		OpenInterest: r.OpenInterest(side),
		LastPrice:    r.LastPrice(side),
	}
	return s, s.LastPrice != 0 && s.Identifier != ""
}
