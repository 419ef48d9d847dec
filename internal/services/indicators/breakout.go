package indicators

import (
	"math"

	"BreadthLab/internal/domain/models"
)

// Thrust detection parameters: z-score of daily breakouts against a one-year
// trailing window, flagged at two sigmas.
const (
	breakoutThrustLookback = 252
	breakoutThrustMinObs   = 20
	breakoutThrustSigma    = 2.0
)

// BreakoutConfig tunes the crossing-event suite. Zero values fall back to the
// defaults.
type BreakoutConfig struct {
	// Conditions are the crossing rules, one output pair per entry. The first
	// condition also feeds the up/down ratio series.
	Conditions []models.BreakoutCondition

	// SmoothWindow is the rolling-mean span applied to the totals,
	// participation and impulse series.
	SmoothWindow int

	// RatioShort and RatioLong are the rolling-sum spans of the up/down
	// ratios.
	RatioShort int
	RatioLong  int
}

func (c *BreakoutConfig) applyDefaults() {
	if len(c.Conditions) == 0 {
		c.Conditions = models.DefaultBreakoutConditions()
	}
	if c.SmoothWindow <= 0 {
		c.SmoothWindow = 10
	}
	if c.RatioShort <= 0 {
		c.RatioShort = 5
	}
	if c.RatioLong <= 0 {
		c.RatioLong = 10
	}
}

// BreakoutAggregator counts per-ticker threshold crossings. An event fires on
// the first day the trailing return crosses a condition's threshold, not on
// every day it stays beyond it, so a sustained move registers once.
type BreakoutAggregator struct {
	cfg BreakoutConfig
}

func NewBreakoutAggregator(cfg BreakoutConfig) (*BreakoutAggregator, error) {
	cfg.applyDefaults()
	for _, cond := range cfg.Conditions {
		if err := cond.Validate(); err != nil {
			return nil, err
		}
	}
	return &BreakoutAggregator{cfg: cfg}, nil
}

// Compute builds the suite from the shared close panel. Dates with no active
// tickers carry NaN counts rather than a zero that would read as a quiet tape.
func (a *BreakoutAggregator) Compute(ma *models.MAResult) (*models.BreakoutResult, error) {
	if ma.PanelClose == nil {
		return nil, &models.MissingFieldError{Field: models.FieldAdjClose}
	}

	n := len(ma.Dates)
	res := &models.BreakoutResult{
		Dates:           ma.Dates,
		Up:              make(map[string][]float64, len(a.cfg.Conditions)),
		Down:            make(map[string][]float64, len(a.cfg.Conditions)),
		TotalBreakouts:  nanSlice(n),
		TotalBreakdowns: nanSlice(n),
	}

	for _, cond := range a.cfg.Conditions {
		up, down := a.countEvents(ma, cond)
		res.Up[cond.Label()] = up
		res.Down[cond.Label()] = down
		for i := 0; i < n; i++ {
			if math.IsNaN(up[i]) {
				continue
			}
			if math.IsNaN(res.TotalBreakouts[i]) {
				res.TotalBreakouts[i] = 0
				res.TotalBreakdowns[i] = 0
			}
			res.TotalBreakouts[i] += up[i]
			res.TotalBreakdowns[i] += down[i]
		}
	}

	res.MABreakouts = rollingMeanSkip(res.TotalBreakouts, a.cfg.SmoothWindow, 1)
	res.MABreakdowns = rollingMeanSkip(res.TotalBreakdowns, a.cfg.SmoothWindow, 1)

	res.PctBreakouts = participation(res.TotalBreakouts, ma.ActiveCount)
	res.PctBreakdowns = participation(res.TotalBreakdowns, ma.ActiveCount)
	res.PctImpulse = nanSlice(n)
	res.Impulse = nanSlice(n)
	for i := 0; i < n; i++ {
		res.PctImpulse[i] = res.PctBreakouts[i] - res.PctBreakdowns[i]
		res.Impulse[i] = res.TotalBreakouts[i] - res.TotalBreakdowns[i]
	}
	res.MAPctBreakouts = rollingMeanSkip(res.PctBreakouts, a.cfg.SmoothWindow, 1)
	res.MAPctBreakdowns = rollingMeanSkip(res.PctBreakdowns, a.cfg.SmoothWindow, 1)
	res.MAPctImpulse = rollingMeanSkip(res.PctImpulse, a.cfg.SmoothWindow, 1)
	res.MAImpulse = rollingMeanSkip(res.Impulse, a.cfg.SmoothWindow, 1)

	res.RiskOn = nanSlice(n)
	for i, v := range res.MAImpulse {
		if math.IsNaN(v) {
			continue
		}
		if v > 0 {
			res.RiskOn[i] = 1
		} else {
			res.RiskOn[i] = 0
		}
	}

	res.ThrustZ, res.ThrustFlag = thrustScores(res.TotalBreakouts)

	// The ratios track only the first (fastest) condition.
	first := a.cfg.Conditions[0].Label()
	res.UpDownRatioShort = upDownRatio(res.Up[first], res.Down[first], a.cfg.RatioShort)
	res.UpDownRatioLong = upDownRatio(res.Up[first], res.Down[first], a.cfg.RatioLong)

	return res, nil
}

// countEvents tallies, per date, the tickers whose trailing return crossed the
// threshold that day. A crossing needs valid returns on both the event day and
// the day before.
func (a *BreakoutAggregator) countEvents(ma *models.MAResult, cond models.BreakoutCondition) (up, down []float64) {
	n := len(ma.Dates)
	up = nanSlice(n)
	down = nanSlice(n)

	ret := models.NewFrame(ma.Dates, ma.Tickers)
	for t := range ma.Tickers {
		for i := cond.Period; i < n; i++ {
			prev := ma.PanelClose.At(i-cond.Period, t)
			cur := ma.PanelClose.At(i, t)
			if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
				continue
			}
			ret.Set(i, t, cur/prev-1)
		}
	}

	for i := 0; i < n; i++ {
		if ma.ActiveCount[i] == 0 {
			continue
		}
		var nUp, nDown float64
		for t := range ma.Tickers {
			if i == 0 {
				continue
			}
			cur := ret.At(i, t)
			prev := ret.At(i-1, t)
			if math.IsNaN(cur) || math.IsNaN(prev) {
				continue
			}
			if cur >= cond.Pct && prev < cond.Pct {
				nUp++
			}
			if cur <= -cond.Pct && prev > -cond.Pct {
				nDown++
			}
		}
		up[i] = nUp
		down[i] = nDown
	}
	return up, down
}

// participation converts event counts into a percentage of the active
// universe. Zero-active dates stay NaN.
func participation(counts []float64, active []int) []float64 {
	out := nanSlice(len(counts))
	for i, v := range counts {
		if math.IsNaN(v) || active[i] == 0 {
			continue
		}
		out[i] = v / float64(active[i]) * 100
	}
	return out
}

// thrustScores z-scores the daily breakout count against its trailing year. A
// zero-dispersion window leaves the score undefined.
func thrustScores(totals []float64) (z, flag []float64) {
	mean := rollingMeanSkip(totals, breakoutThrustLookback, breakoutThrustMinObs)
	sd := rollingStdSkip(totals, breakoutThrustLookback, breakoutThrustMinObs)
	z = nanSlice(len(totals))
	flag = nanSlice(len(totals))
	for i := range totals {
		if math.IsNaN(totals[i]) || math.IsNaN(mean[i]) || math.IsNaN(sd[i]) || sd[i] == 0 {
			continue
		}
		z[i] = (totals[i] - mean[i]) / sd[i]
		if z[i] >= breakoutThrustSigma {
			flag[i] = 1
		} else {
			flag[i] = 0
		}
	}
	return z, flag
}

// upDownRatio divides the rolling sums of up and down events. A windowed down
// sum of zero leaves the ratio undefined.
func upDownRatio(up, down []float64, w int) []float64 {
	sumUp := rollingSumSkip(up, w, 1)
	sumDown := rollingSumSkip(down, w, 1)
	out := nanSlice(len(up))
	for i := range out {
		if math.IsNaN(sumUp[i]) || math.IsNaN(sumDown[i]) || sumDown[i] == 0 {
			continue
		}
		out[i] = sumUp[i] / sumDown[i]
	}
	return out
}
