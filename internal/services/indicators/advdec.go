package indicators

import (
	"math"

	"github.com/markcheno/go-talib"

	"BreadthLab/internal/domain/models"
)

// McClellan oscillator smoothing periods, the standard 19/39-day pair.
const (
	mcClellanFast = 19
	mcClellanSlow = 39
)

// AdvanceDeclineAggregator builds the daily advance/decline suite: raw
// advancing/declining counts, the Arms Index (TRIN), the A/D line and the
// McClellan oscillator on the smoothed A/D difference.
type AdvanceDeclineAggregator struct{}

func NewAdvanceDeclineAggregator() *AdvanceDeclineAggregator {
	return &AdvanceDeclineAggregator{}
}

// Compute derives the suite from the raw panels. Day zero has no prior close,
// so every series starts at NaN.
func (a *AdvanceDeclineAggregator) Compute(idx *models.PricePanel, comp *models.ComponentPanel) (*models.AdvanceDeclineResult, error) {
	if err := comp.Validate(); err != nil {
		return nil, err
	}
	closeFr, err := comp.Field(models.FieldAdjClose)
	if err != nil {
		return nil, err
	}
	volFr, err := comp.Field(models.FieldVolume)
	if err != nil {
		return nil, err
	}

	n := comp.Len()
	res := &models.AdvanceDeclineResult{
		Dates:      comp.Dates,
		Advancing:  nanSlice(n),
		Declining:  nanSlice(n),
		TRIN:       nanSlice(n),
		ADDiff:     nanSlice(n),
		ADCumDiff:  nanSlice(n),
		McClellan:  nanSlice(n),
		IndexClose: append([]float64(nil), idx.AdjClose...),
	}

	cum := math.NaN()
	for i := 1; i < n; i++ {
		var adv, dec, advVol, decVol float64
		any := false
		for t := range comp.Tickers {
			prev := closeFr.At(i-1, t)
			cur := closeFr.At(i, t)
			if math.IsNaN(prev) || math.IsNaN(cur) {
				continue
			}
			any = true
			vol := volFr.At(i, t)
			if math.IsNaN(vol) {
				vol = 0
			}
			switch {
			case cur > prev:
				adv++
				advVol += vol
			case cur < prev:
				dec++
				decVol += vol
			}
		}
		if !any {
			continue
		}
		res.Advancing[i] = adv
		res.Declining[i] = dec
		res.ADDiff[i] = adv - dec
		if math.IsNaN(cum) {
			cum = 0
		}
		cum += adv - dec
		res.ADCumDiff[i] = cum
		res.TRIN[i] = trin(adv, dec, advVol, decVol)
	}

	res.DiffEMA19 = emaSeries(res.ADDiff, mcClellanFast)
	res.DiffEMA39 = emaSeries(res.ADDiff, mcClellanSlow)
	for i := range res.McClellan {
		res.McClellan[i] = res.DiffEMA19[i] - res.DiffEMA39[i]
	}
	return res, nil
}

// trin is the Arms Index: (adv/dec) / (advVol/decVol). Any zero leg makes a
// ratio undefined, and the whole index follows as NaN.
func trin(adv, dec, advVol, decVol float64) float64 {
	if dec == 0 || decVol == 0 || advVol == 0 {
		return math.NaN()
	}
	return (adv / dec) / (advVol / decVol)
}

// emaSeries wraps talib.Ema with NaN handling. The input is split into
// contiguous valid runs and each run is smoothed on its own: a NaN inside the
// series (a date with no active tickers) would otherwise propagate through
// every later EMA value. Each run pays its own warm-up; outputs inside the
// first period of a run are NaN rather than zero.
func emaSeries(in []float64, period int) []float64 {
	out := nanSlice(len(in))
	i := 0
	for i < len(in) {
		if math.IsNaN(in[i]) {
			i++
			continue
		}
		j := i
		for j < len(in) && !math.IsNaN(in[j]) {
			j++
		}
		if j-i >= period {
			ema := talib.Ema(in[i:j], period)
			for k := period - 1; k < len(ema); k++ {
				out[i+k] = ema[k]
			}
		}
		i = j
	}
	return out
}
