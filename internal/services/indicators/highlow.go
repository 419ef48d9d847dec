package indicators

import (
	"math"

	"BreadthLab/internal/domain/models"
)

// Rolling high/low horizons in trading days.
const (
	horizon12M = 252
	horizon3M  = 63
	horizon1M  = 21
)

// HighLowAggregator counts, per date, how many tickers printed a fresh high or
// low over each horizon: all-time (expanding) and rolling 12/3/1 months. Low
// counts carry a negative sign so the high and low series plot as mirrored
// bars and the nets are a plain sum.
type HighLowAggregator struct{}

func NewHighLowAggregator() *HighLowAggregator {
	return &HighLowAggregator{}
}

func (a *HighLowAggregator) Compute(comp *models.ComponentPanel) (*models.HighLowResult, error) {
	if err := comp.Validate(); err != nil {
		return nil, err
	}
	closeFr, err := comp.Field(models.FieldAdjClose)
	if err != nil {
		return nil, err
	}

	n := comp.Len()
	res := &models.HighLowResult{
		Dates:       comp.Dates,
		AllTimeHigh: make([]float64, n),
		AllTimeLow:  make([]float64, n),
		High12M:     make([]float64, n),
		Low12M:      make([]float64, n),
		High3M:      make([]float64, n),
		Low3M:       make([]float64, n),
		High1M:      make([]float64, n),
		Low1M:       make([]float64, n),
	}

	for t := range comp.Tickers {
		price := closeFr.Column(t)

		countAt(res.AllTimeHigh, price, expandingMax(price))
		countAt(res.AllTimeLow, price, expandingMin(price))
		countAt(res.High12M, price, rollingMaxSkip(price, horizon12M, horizon12M))
		countAt(res.Low12M, price, rollingMinSkip(price, horizon12M, horizon12M))
		countAt(res.High3M, price, rollingMaxSkip(price, horizon3M, horizon3M))
		countAt(res.Low3M, price, rollingMinSkip(price, horizon3M, horizon3M))
		countAt(res.High1M, price, rollingMaxSkip(price, horizon1M, horizon1M))
		countAt(res.Low1M, price, rollingMinSkip(price, horizon1M, horizon1M))
	}

	negate(res.AllTimeLow)
	negate(res.Low12M)
	negate(res.Low3M)
	negate(res.Low1M)

	res.NetAllTime = netOf(res.AllTimeHigh, res.AllTimeLow)
	res.Net12M = netOf(res.High12M, res.Low12M)
	res.Net3M = netOf(res.High3M, res.Low3M)
	res.Net1M = netOf(res.High1M, res.Low1M)
	return res, nil
}

// countAt bumps out[i] whenever the price touches its extreme on date i.
func countAt(out, price, extreme []float64) {
	for i := range price {
		if math.IsNaN(price[i]) || math.IsNaN(extreme[i]) {
			continue
		}
		if price[i] == extreme[i] {
			out[i]++
		}
	}
}

func negate(s []float64) {
	for i := range s {
		s[i] = -s[i]
	}
}

func netOf(high, low []float64) []float64 {
	out := make([]float64, len(high))
	for i := range high {
		out[i] = high[i] + low[i]
	}
	return out
}
