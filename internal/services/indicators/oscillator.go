package indicators

import (
	"fmt"
	"math"

	"BreadthLab/internal/domain/models"
)

const (
	OscModeMinMax = "minmax"
	OscModeZScore = "zscore"

	ZModeSwing     = "swing"
	ZModeLongTerm  = "longterm"
	ZModeAnomalies = "anomalies"
)

// madScale converts a median absolute deviation into a stdev-consistent
// estimate for normally distributed data.
const madScale = 1.4826

// OscillatorConfig selects the normalization applied to the MA-range ratio.
type OscillatorConfig struct {
	// Mode is "minmax" or "zscore".
	Mode string

	// Lookback is the rolling window for minmax mode. Default 252 (one year).
	Lookback int

	// ZMode picks the zscore parameter preset: "swing" (20-day window,
	// 10 min periods, clip 3.5), "longterm" (50/30/4.0) or "anomalies"
	// (30/15, unclipped).
	ZMode string

	// ExcludeMax drops the longest window from the range, so a still-warming
	// 200-day average does not dominate the spread.
	ExcludeMax bool
}

type zParams struct {
	window     int
	minPeriods int
	clip       float64 // 0 means unclipped
}

func zPreset(mode string) (zParams, error) {
	switch mode {
	case ZModeSwing, "":
		return zParams{window: 20, minPeriods: 10, clip: 3.5}, nil
	case ZModeLongTerm:
		return zParams{window: 50, minPeriods: 30, clip: 4.0}, nil
	case ZModeAnomalies:
		return zParams{window: 30, minPeriods: 15, clip: 0}, nil
	}
	return zParams{}, fmt.Errorf("oscillator: unknown zscore preset %q", mode)
}

// OscillatorNormalizer turns the index-level spread of moving averages into a
// dimensionless oscillator. The raw signal per date is
// (max_w avg_w - min_w avg_w) / close: wide when trends diverge, near zero
// when the averages compress together.
type OscillatorNormalizer struct {
	windows models.WindowSet
	cfg     OscillatorConfig
}

func NewOscillatorNormalizer(ws models.WindowSet, cfg OscillatorConfig) (*OscillatorNormalizer, error) {
	switch cfg.Mode {
	case OscModeMinMax, "":
		cfg.Mode = OscModeMinMax
	case OscModeZScore:
		if _, err := zPreset(cfg.ZMode); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("oscillator: unknown mode %q", cfg.Mode)
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = 252
	}
	if cfg.Lookback < 1 {
		return nil, fmt.Errorf("oscillator: lookback must be >= 1, got %d", cfg.Lookback)
	}
	return &OscillatorNormalizer{windows: ws, cfg: cfg}, nil
}

// Compute derives the raw range ratio and its normalized form for both MA
// kinds. Every transform is causal: date t only sees rows up to t.
func (o *OscillatorNormalizer) Compute(ma *models.MAResult) (*models.OscillatorResult, error) {
	res := &models.OscillatorResult{
		Dates:    ma.Dates,
		Mode:     o.cfg.Mode,
		RangePct: make(map[models.Kind][]float64),
		Osc:      make(map[models.Kind][]float64),
	}

	windows := o.windows.All()
	if o.cfg.ExcludeMax && len(windows) > 1 {
		windows = windows[:len(windows)-1]
	}

	for _, kind := range []models.Kind{models.KindMA, models.KindVWMA} {
		raw, err := o.rangePct(ma, kind, windows)
		if err != nil {
			return nil, err
		}
		res.RangePct[kind] = raw

		switch o.cfg.Mode {
		case OscModeMinMax:
			res.Osc[kind] = o.minmax(raw)
		case OscModeZScore:
			params, _ := zPreset(o.cfg.ZMode)
			res.Osc[kind] = o.zscore(raw, params)
		}
	}
	return res, nil
}

func (o *OscillatorNormalizer) rangePct(ma *models.MAResult, kind models.Kind, windows []int) ([]float64, error) {
	series := make([][]float64, len(windows))
	for i, w := range windows {
		key := models.SeriesKey{Kind: kind, Window: w}
		s, ok := ma.IndexSeries(key)
		if !ok {
			return nil, &MissingWindowError{Key: key}
		}
		series[i] = s
	}

	out := nanSlice(len(ma.Dates))
	for i := range out {
		price := ma.IndexClose[i]
		if math.IsNaN(price) || price == 0 {
			continue
		}
		lo, hi := math.NaN(), math.NaN()
		for _, s := range series {
			v := s[i]
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(lo) || v < lo {
				lo = v
			}
			if math.IsNaN(hi) || v > hi {
				hi = v
			}
		}
		if !math.IsNaN(lo) {
			out[i] = (hi - lo) / price
		}
	}
	return out, nil
}

// minmax rescales against the rolling extremes of the lookback window. A zero
// range (flat history) maps to 0, never NaN or inf.
func (o *OscillatorNormalizer) minmax(raw []float64) []float64 {
	lo := rollingMinSkip(raw, o.cfg.Lookback, 1)
	hi := rollingMaxSkip(raw, o.cfg.Lookback, 1)
	out := make([]float64, len(raw))
	for i := range raw {
		span := hi[i] - lo[i]
		if math.IsNaN(raw[i]) || math.IsNaN(span) || span == 0 {
			out[i] = 0
			continue
		}
		out[i] = clamp((raw[i]-lo[i])/span, 0, 1)
	}
	return out
}

// zscore normalizes against a rolling median and MAD. MAD of zero means the
// window carries no dispersion to scale by; the value is filled with 0.
func (o *OscillatorNormalizer) zscore(raw []float64, p zParams) []float64 {
	med := rollingMedianSkip(raw, p.window, p.minPeriods)
	dev := make([]float64, len(raw))
	for i := range raw {
		dev[i] = math.Abs(raw[i] - med[i]) // NaN stays NaN
	}
	mad := rollingMedianSkip(dev, p.window, p.minPeriods)

	out := make([]float64, len(raw))
	for i := range raw {
		denom := madScale * mad[i]
		if math.IsNaN(raw[i]) || math.IsNaN(med[i]) || math.IsNaN(denom) || denom == 0 {
			out[i] = 0
			continue
		}
		z := (raw[i] - med[i]) / denom
		if p.clip > 0 {
			z = clamp(z, -p.clip, p.clip)
		}
		out[i] = z
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
