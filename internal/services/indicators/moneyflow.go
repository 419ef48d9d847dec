package indicators

import (
	"math"

	"BreadthLab/internal/domain/models"
)

// MoneyFlowAggregator builds on-balance volume and cumulative net money flow
// for the index and for an equal-weight aggregate of the components. The *Norm
// outputs rescale each cumulative series over its full sample so every ticker
// contributes on the same 0..1 scale; they are chart series, not trading
// signals on the right edge.
type MoneyFlowAggregator struct{}

func NewMoneyFlowAggregator() *MoneyFlowAggregator {
	return &MoneyFlowAggregator{}
}

// Compute needs the High/Low series on both panels; money flow is built on the
// typical price (H+L+C)/3.
func (a *MoneyFlowAggregator) Compute(idx *models.PricePanel, comp *models.ComponentPanel) (*models.MoneyFlowResult, error) {
	if !idx.HasRange() {
		return nil, &models.MissingFieldError{Field: models.FieldHigh}
	}
	closeFr, err := comp.Field(models.FieldAdjClose)
	if err != nil {
		return nil, err
	}
	volFr, err := comp.Field(models.FieldVolume)
	if err != nil {
		return nil, err
	}
	highFr, err := comp.Field(models.FieldHigh)
	if err != nil {
		return nil, err
	}
	lowFr, err := comp.Field(models.FieldLow)
	if err != nil {
		return nil, err
	}

	n := idx.Len()
	res := &models.MoneyFlowResult{Dates: idx.Dates}

	res.IndexOBV = obvSeries(idx.AdjClose, idx.Volume)
	res.IndexNMF = nmfSeries(idx.High, idx.Low, idx.AdjClose, idx.Volume)
	res.IndexOBVNorm = minMaxNorm(res.IndexOBV)
	res.IndexNMFNorm = minMaxNorm(res.IndexNMF)
	res.Bullish, res.Bearish, res.BullStrength, res.BearStrength =
		flowSignals(res.IndexOBVNorm, res.IndexNMFNorm)

	// Per-ticker cumulative series, each min-max scaled over its own history,
	// then averaged across whatever tickers have data on the date.
	obvNorms := make([][]float64, comp.NumTickers())
	nmfNorms := make([][]float64, comp.NumTickers())
	for t := range comp.Tickers {
		obvNorms[t] = minMaxNorm(obvSeries(closeFr.Column(t), volFr.Column(t)))
		nmfNorms[t] = minMaxNorm(nmfSeries(highFr.Column(t), lowFr.Column(t), closeFr.Column(t), volFr.Column(t)))
	}
	res.CompOBVNorm = crossMean(obvNorms, n)
	res.CompNMFNorm = crossMean(nmfNorms, n)
	res.CompBullish, res.CompBearish, res.CompBullStrength, res.CompBearStrength =
		flowSignals(res.CompOBVNorm, res.CompNMFNorm)

	return res, nil
}

// obvSeries is the running sum of signed dollar volume. The sign is +1 only on
// an up close; flat days, day zero and days after a gap all count as -1.
func obvSeries(closes, volumes []float64) []float64 {
	terms := nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(closes[i]) || math.IsNaN(volumes[i]) {
			continue
		}
		dir := -1.0
		if i > 0 && !math.IsNaN(closes[i-1]) && closes[i] > closes[i-1] {
			dir = 1.0
		}
		terms[i] = dir * volumes[i] * closes[i]
	}
	return cumsumSkip(terms)
}

// nmfSeries is the running sum of money flow (typical price times volume)
// signed by the typical-price change. Flat days, day zero and days after a gap
// contribute zero.
func nmfSeries(highs, lows, closes, volumes []float64) []float64 {
	terms := make([]float64, len(closes))
	typ := nanSlice(len(closes))
	for i := range closes {
		typ[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	for i := range terms {
		if i == 0 || math.IsNaN(typ[i]) || math.IsNaN(typ[i-1]) {
			continue
		}
		switch d := typ[i] - typ[i-1]; {
		case d > 0:
			terms[i] = typ[i] * volumes[i]
		case d < 0:
			terms[i] = -typ[i] * volumes[i]
		}
	}
	return cumsumSkip(terms)
}

// cumsumSkip is a running sum that leaves NaN inputs as NaN holes without
// resetting the accumulator.
func cumsumSkip(in []float64) []float64 {
	out := nanSlice(len(in))
	sum := 0.0
	for i, v := range in {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		out[i] = sum
	}
	return out
}

// minMaxNorm rescales a series to 0..1 over its full sample. A flat or empty
// series has no range and comes back all-NaN.
func minMaxNorm(in []float64) []float64 {
	lo, hi := math.NaN(), math.NaN()
	for _, v := range in {
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
	out := nanSlice(len(in))
	if math.IsNaN(lo) || hi == lo {
		return out
	}
	for i, v := range in {
		if !math.IsNaN(v) {
			out[i] = (v - lo) / (hi - lo)
		}
	}
	return out
}

// crossMean averages the per-ticker series on each date, skipping tickers
// without data.
func crossMean(cols [][]float64, n int) []float64 {
	out := nanSlice(n)
	for i := 0; i < n; i++ {
		sum := 0.0
		valid := 0
		for _, col := range cols {
			if math.IsNaN(col[i]) {
				continue
			}
			sum += col[i]
			valid++
		}
		if valid > 0 {
			out[i] = sum / float64(valid)
		}
	}
	return out
}

// flowSignals derives day-over-day agreement flags and strengths from the two
// normalized flow series. Flags are 0 when either change is missing; strengths
// stay NaN there.
func flowSignals(obvNorm, nmfNorm []float64) (bull, bear, bullStr, bearStr []float64) {
	n := len(obvNorm)
	bull = make([]float64, n)
	bear = make([]float64, n)
	bullStr = nanSlice(n)
	bearStr = nanSlice(n)
	for i := 1; i < n; i++ {
		obvCh := obvNorm[i] - obvNorm[i-1]
		nmfCh := nmfNorm[i] - nmfNorm[i-1]
		if obvCh > 0 && nmfCh > 0 {
			bull[i] = 1
		}
		if obvCh < 0 && nmfCh < 0 {
			bear[i] = 1
		}
		if math.IsNaN(obvCh) || math.IsNaN(nmfCh) {
			continue
		}
		bullStr[i] = math.Max(obvCh, 0) + math.Max(nmfCh, 0)
		bearStr[i] = -math.Min(obvCh, 0) - math.Min(nmfCh, 0)
	}
	return bull, bear, bullStr, bearStr
}
