package indicators

import (
	"fmt"
	"math"

	"BreadthLab/internal/domain/models"
)

// BreadthConfig parameterizes the classifier. The original dashboard carried
// two diverging forks (strict two-state vs. neutral-band three-state, smoothed
// vs. raw); here both behaviors are one implementation behind configuration.
type BreadthConfig struct {
	// Epsilon is the neutral band as a fraction of price. Zero reproduces the
	// legacy two-state mode: above/below on strict inequality, neutral only on
	// exact equality, and a PctNet series is emitted.
	Epsilon float64

	// SmoothWindow applies a trailing simple MA (min_periods=1, so no leading
	// NaNs) to the output series. Values <= 1 disable smoothing.
	SmoothWindow int

	// SmoothCounts smooths the count series before percentage conversion
	// instead of smoothing the percentage series afterwards.
	SmoothCounts bool
}

// BreadthAggregator classifies every (date, ticker) pair as above, below or
// neutral relative to each MA/VWMA and aggregates counts and percentages per
// date. Percentages always divide by the date's active-ticker count, never by
// the static universe size.
type BreadthAggregator struct {
	cfg BreadthConfig
}

func NewBreadthAggregator(cfg BreadthConfig) (*BreadthAggregator, error) {
	if cfg.Epsilon < 0 {
		return nil, fmt.Errorf("breadth: epsilon must be >= 0, got %g", cfg.Epsilon)
	}
	if cfg.SmoothWindow < 0 {
		return nil, fmt.Errorf("breadth: smooth window must be >= 0, got %d", cfg.SmoothWindow)
	}
	return &BreadthAggregator{cfg: cfg}, nil
}

// Compute builds the breadth table from a moving-average result. The result
// is treated as immutable.
func (a *BreadthAggregator) Compute(ma *models.MAResult) (*models.BreadthResult, error) {
	if ma.PanelClose == nil {
		return nil, &models.MissingFieldError{Field: models.FieldAdjClose}
	}

	out := &models.BreadthResult{
		Dates:  ma.Dates,
		Series: make(map[models.SeriesKey]*models.BreadthSeries),
	}
	twoState := a.cfg.Epsilon == 0

	for _, kind := range []models.Kind{models.KindMA, models.KindVWMA} {
		for _, w := range ma.Windows.All() {
			key := models.SeriesKey{Kind: kind, Window: w}
			fr, ok := ma.PanelSeries(key)
			if !ok {
				return nil, &MissingWindowError{Key: key}
			}
			out.Series[key] = a.computeOne(key, ma, fr, twoState)
		}
	}
	return out, nil
}

func (a *BreadthAggregator) computeOne(key models.SeriesKey, ma *models.MAResult, fr *models.Frame, twoState bool) *models.BreadthSeries {
	n := len(ma.Dates)
	s := &models.BreadthSeries{
		Key:        key,
		NumAbove:   nanSlice(n),
		NumBelow:   nanSlice(n),
		NumNeutral: nanSlice(n),
	}

	for i := 0; i < n; i++ {
		var above, below, neutral float64
		for t := range ma.Tickers {
			price := ma.PanelClose.At(i, t)
			if math.IsNaN(price) {
				continue // inactive ticker, not part of the denominator
			}
			switch classify(price, fr.At(i, t), a.cfg.Epsilon) {
			case 1:
				above++
			case -1:
				below++
			default:
				neutral++
			}
		}
		s.NumAbove[i] = above
		s.NumBelow[i] = below
		s.NumNeutral[i] = neutral
	}

	above, below, neutral := s.NumAbove, s.NumBelow, s.NumNeutral
	activeF := make([]float64, n)
	for i, c := range ma.ActiveCount {
		activeF[i] = float64(c)
	}
	if a.cfg.SmoothCounts && a.cfg.SmoothWindow > 1 {
		above = rollingMeanSkip(above, a.cfg.SmoothWindow, 1)
		below = rollingMeanSkip(below, a.cfg.SmoothWindow, 1)
		neutral = rollingMeanSkip(neutral, a.cfg.SmoothWindow, 1)
		activeF = rollingMeanSkip(activeF, a.cfg.SmoothWindow, 1)
	}

	s.PctAbove = toPercent(above, activeF)
	s.PctBelow = toPercent(below, activeF)
	s.PctNeutral = toPercent(neutral, activeF)

	if !a.cfg.SmoothCounts && a.cfg.SmoothWindow > 1 {
		s.PctAbove = rollingMeanSkip(s.PctAbove, a.cfg.SmoothWindow, 1)
		s.PctBelow = rollingMeanSkip(s.PctBelow, a.cfg.SmoothWindow, 1)
		s.PctNeutral = rollingMeanSkip(s.PctNeutral, a.cfg.SmoothWindow, 1)
	}

	if twoState {
		s.PctNet = make([]float64, n)
		for i := range s.PctNet {
			s.PctNet[i] = s.PctAbove[i] - s.PctBelow[i]
		}
	}
	return s
}

// classify returns +1 above, -1 below, 0 neutral. A ticker whose MA is still
// NaN (insufficient history) cannot be placed on either side; it counts as
// neutral so the partition over active tickers stays exact.
func classify(price, mav, epsilon float64) int {
	if math.IsNaN(mav) {
		return 0
	}
	if epsilon > 0 {
		d := (price - mav) / price
		switch {
		case d > epsilon:
			return 1
		case d < -epsilon:
			return -1
		default:
			return 0
		}
	}
	switch {
	case price > mav:
		return 1
	case price < mav:
		return -1
	default:
		return 0
	}
}

// toPercent divides count by active and scales to 0..100. A zero-active date
// yields NaN: 0% would claim tickers were evaluated and all failed.
func toPercent(count, active []float64) []float64 {
	out := nanSlice(len(count))
	for i := range count {
		if math.IsNaN(count[i]) || math.IsNaN(active[i]) || active[i] == 0 {
			continue
		}
		out[i] = count[i] / active[i] * 100.0
	}
	return out
}
