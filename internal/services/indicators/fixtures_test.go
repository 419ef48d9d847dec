package indicators

import (
	"time"

	"BreadthLab/internal/domain/models"
)

// Shared fixture builders for the aggregator tests.

func tradingDays(n int) []time.Time {
	out := make([]time.Time, n)
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		out[i] = d
		d = d.AddDate(0, 0, 1)
	}
	return out
}

// buildComponentPanel assembles a panel from per-ticker columns. closeCols and
// volCols are indexed [ticker][date].
func buildComponentPanel(dates []time.Time, tickers []string, closeCols, volCols [][]float64) *models.ComponentPanel {
	closeFr := models.NewFrame(dates, tickers)
	volFr := models.NewFrame(dates, tickers)
	for t := range tickers {
		closeFr.SetColumn(t, closeCols[t])
		volFr.SetColumn(t, volCols[t])
	}
	return &models.ComponentPanel{
		Dates:   dates,
		Tickers: tickers,
		Fields: map[models.Field]*models.Frame{
			models.FieldAdjClose: closeFr,
			models.FieldVolume:   volFr,
		},
	}
}

func buildIndexPanel(dates []time.Time, closes, volumes []float64) *models.PricePanel {
	return &models.PricePanel{Dates: dates, AdjClose: closes, Volume: volumes}
}

func constSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func risingSeries(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func mustWindows(t interface{ Fatalf(string, ...interface{}) }, short, medium, long []int) models.WindowSet {
	ws, err := models.NewWindowSet(short, medium, long)
	if err != nil {
		t.Fatalf("window set: %v", err)
	}
	return ws
}
