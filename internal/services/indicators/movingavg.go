package indicators

import (
	"fmt"
	"math"

	"BreadthLab/internal/domain/models"
)

// MovingAverageEngine computes simple and volume-weighted moving averages for
// the index and every constituent ticker, for every window in the set. Its
// output is the shared input of all downstream aggregators.
type MovingAverageEngine struct {
	windows models.WindowSet
}

func NewMovingAverageEngine(ws models.WindowSet) *MovingAverageEngine {
	return &MovingAverageEngine{windows: ws}
}

// Compute derives MAResult from the raw panels. The panels are read-only;
// all derived series are freshly allocated.
func (e *MovingAverageEngine) Compute(idx *models.PricePanel, comp *models.ComponentPanel) (*models.MAResult, error) {
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("index panel: %w", err)
	}
	if err := comp.Validate(); err != nil {
		return nil, fmt.Errorf("component panel: %w", err)
	}
	if idx.Len() != comp.Len() {
		return nil, fmt.Errorf("panels are not aligned: index has %d rows, components have %d", idx.Len(), comp.Len())
	}

	closeFr, err := comp.Field(models.FieldAdjClose)
	if err != nil {
		return nil, err
	}
	volFr, err := comp.Field(models.FieldVolume)
	if err != nil {
		return nil, err
	}
	active, err := comp.ActiveCounts()
	if err != nil {
		return nil, err
	}

	res := &models.MAResult{
		Dates:       idx.Dates,
		Tickers:     comp.Tickers,
		Windows:     e.windows,
		IndexClose:  append([]float64(nil), idx.AdjClose...),
		IndexVolume: append([]float64(nil), idx.Volume...),
		Index:       make(map[models.SeriesKey][]float64),
		PanelClose:  closeFr.Truncate(closeFr.Len()),
		Panel:       make(map[models.SeriesKey]*models.Frame),
		ActiveCount: active,
	}

	for _, w := range e.windows.All() {
		res.Index[models.SeriesKey{Kind: models.KindMA, Window: w}] = rollingMean(idx.AdjClose, w)
		res.Index[models.SeriesKey{Kind: models.KindVWMA, Window: w}] = vwma(idx.AdjClose, idx.Volume, w)

		maFr := models.NewFrame(comp.Dates, comp.Tickers)
		vwmaFr := models.NewFrame(comp.Dates, comp.Tickers)
		for t := range comp.Tickers {
			price := closeFr.Column(t)
			vol := volFr.Column(t)
			maFr.SetColumn(t, rollingMean(price, w))
			vwmaFr.SetColumn(t, vwma(price, vol, w))
		}
		res.Panel[models.SeriesKey{Kind: models.KindMA, Window: w}] = maFr
		res.Panel[models.SeriesKey{Kind: models.KindVWMA, Window: w}] = vwmaFr
	}

	return res, nil
}

// vwma computes sum(price*volume, w) / sum(volume, w) over a trailing window.
// A zero volume sum makes the ratio undefined: the result is NaN, never a
// divide-by-zero panic or an inf.
func vwma(price, volume []float64, w int) []float64 {
	pv := make([]float64, len(price))
	for i := range price {
		pv[i] = price[i] * volume[i]
	}
	num := rollingSum(pv, w)
	den := rollingSum(volume, w)
	out := nanSlice(len(price))
	for i := range out {
		if math.IsNaN(num[i]) || math.IsNaN(den[i]) || den[i] == 0 {
			continue
		}
		out[i] = num[i] / den[i]
	}
	return out
}
