package indicators

import (
	"math"

	"BreadthLab/internal/domain/models"
)

// CompressionAggregator measures how tightly the universe is wound around its
// averages. Per ticker, window and average kind it takes the relative
// deviation (close - avg) / close, then sums across tickers per date: the
// absolute sum is dispersion, the signed sum is directional bias. Group-level
// sums add the signed deviations of every window in a family, per kind.
type CompressionAggregator struct {
	windows models.WindowSet
}

func NewCompressionAggregator(ws models.WindowSet) *CompressionAggregator {
	return &CompressionAggregator{windows: ws}
}

// Compute builds per-window deviation frames and their cross-sectional sums
// for both the simple and the volume-weighted averages.
func (a *CompressionAggregator) Compute(ma *models.MAResult) (*models.CompressionResult, error) {
	if ma.PanelClose == nil {
		return nil, &models.MissingFieldError{Field: models.FieldAdjClose}
	}

	n := len(ma.Dates)
	res := &models.CompressionResult{
		Dates:    ma.Dates,
		Diff:     make(map[models.SeriesKey]*models.Frame),
		Abs:      make(map[models.SeriesKey][]float64),
		Dir:      make(map[models.SeriesKey][]float64),
		GroupAbs: make(map[models.GroupKey][]float64),
		GroupDir: make(map[models.GroupKey][]float64),
	}

	for _, kind := range []models.Kind{models.KindMA, models.KindVWMA} {
		for _, w := range a.windows.All() {
			key := models.SeriesKey{Kind: kind, Window: w}
			fr, ok := ma.PanelSeries(key)
			if !ok {
				return nil, &MissingWindowError{Key: key}
			}

			diff := models.NewFrame(ma.Dates, ma.Tickers)
			abs := nanSlice(n)
			dir := nanSlice(n)
			for i := 0; i < n; i++ {
				var sumAbs, sumDir float64
				valid := 0
				for t := range ma.Tickers {
					price := ma.PanelClose.At(i, t)
					avg := fr.At(i, t)
					if math.IsNaN(price) || math.IsNaN(avg) || price == 0 {
						continue
					}
					d := (price - avg) / price
					diff.Set(i, t, d)
					sumAbs += math.Abs(d)
					sumDir += d
					valid++
				}
				// An all-NaN cross-section stays NaN: a zero here would read
				// as perfect compression on a date with no data at all.
				if valid > 0 {
					abs[i] = sumAbs
					dir[i] = sumDir
				}
			}
			res.Diff[key] = diff
			res.Abs[key] = abs
			res.Dir[key] = dir
		}

		for _, g := range a.windows.Groups() {
			gAbs := nanSlice(n)
			gDir := nanSlice(n)
			for _, w := range a.windows.Group(g) {
				key := models.SeriesKey{Kind: kind, Window: w}
				for i := 0; i < n; i++ {
					if math.IsNaN(res.Abs[key][i]) {
						continue
					}
					if math.IsNaN(gAbs[i]) {
						gAbs[i] = 0
						gDir[i] = 0
					}
					gAbs[i] += res.Abs[key][i]
					gDir[i] += res.Dir[key][i]
				}
			}
			gk := models.GroupKey{Kind: kind, Group: g}
			res.GroupAbs[gk] = gAbs
			res.GroupDir[gk] = gDir
		}
	}

	return res, nil
}
