package indicators

import (
	"errors"
	"math"
	"testing"

	"BreadthLab/internal/domain/models"
)

func TestMovingAverageEngineIndexSeries(t *testing.T) {
	n := 10
	dates := tradingDays(n)
	ws := mustWindows(t, []int{3}, []int{5}, []int{7})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1000))
	comp := buildComponentPanel(dates, []string{"AAA"},
		[][]float64{risingSeries(n, 50, 1)},
		[][]float64{constSeries(n, 500)},
	)

	res, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	ma3, ok := res.IndexSeries(models.SeriesKey{Kind: models.KindMA, Window: 3})
	if !ok {
		t.Fatalf("MA3 series missing")
	}
	if !math.IsNaN(ma3[0]) || !math.IsNaN(ma3[1]) {
		t.Fatalf("MA3 warm-up should be NaN, got %v %v", ma3[0], ma3[1])
	}
	if !almostEqual(ma3[2], 101) {
		t.Fatalf("MA3[2] = %v, want 101", ma3[2])
	}
	if !almostEqual(ma3[9], 108) {
		t.Fatalf("MA3[9] = %v, want 108", ma3[9])
	}
}

func TestVWMAEqualsMAUnderConstantVolume(t *testing.T) {
	n := 30
	dates := tradingDays(n)
	ws := mustWindows(t, []int{5}, []int{10}, []int{20})
	closes := risingSeries(n, 100, 0.5)
	idx := buildIndexPanel(dates, closes, constSeries(n, 12345))
	comp := buildComponentPanel(dates, []string{"AAA"},
		[][]float64{closes},
		[][]float64{constSeries(n, 777)},
	)

	res, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	for _, w := range ws.All() {
		ma, _ := res.IndexSeries(models.SeriesKey{Kind: models.KindMA, Window: w})
		vwma, _ := res.IndexSeries(models.SeriesKey{Kind: models.KindVWMA, Window: w})
		for i := range ma {
			if !almostEqual(ma[i], vwma[i]) {
				t.Fatalf("window %d index %d: MA %v != VWMA %v under constant volume", w, i, ma[i], vwma[i])
			}
		}
		maFr, _ := res.PanelSeries(models.SeriesKey{Kind: models.KindMA, Window: w})
		vwmaFr, _ := res.PanelSeries(models.SeriesKey{Kind: models.KindVWMA, Window: w})
		for i := 0; i < n; i++ {
			if !almostEqual(maFr.At(i, 0), vwmaFr.At(i, 0)) {
				t.Fatalf("window %d index %d: panel MA %v != VWMA %v", w, i, maFr.At(i, 0), vwmaFr.At(i, 0))
			}
		}
	}
}

func TestVWMAZeroVolumeWindowIsNaN(t *testing.T) {
	n := 20
	dates := tradingDays(n)
	ws := mustWindows(t, []int{5}, []int{10}, []int{20})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1000))
	comp := buildComponentPanel(dates, []string{"DEAD"},
		[][]float64{risingSeries(n, 10, 0.1)},
		[][]float64{constSeries(n, 0)},
	)

	res, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	if err != nil {
		t.Fatalf("compute should not fail on zero volume: %v", err)
	}

	fr, _ := res.PanelSeries(models.SeriesKey{Kind: models.KindVWMA, Window: 20})
	if got := fr.At(n-1, 0); !math.IsNaN(got) {
		t.Fatalf("VWMA20 over a zero-volume window = %v, want NaN", got)
	}
	// The plain MA is unaffected by volume.
	maFr, _ := res.PanelSeries(models.SeriesKey{Kind: models.KindMA, Window: 20})
	if got := maFr.At(n-1, 0); math.IsNaN(got) {
		t.Fatalf("MA20 should be defined, got NaN")
	}
}

func TestMovingAverageEngineRejectsMisalignedPanels(t *testing.T) {
	ws := mustWindows(t, []int{3}, []int{5}, []int{7})
	idx := buildIndexPanel(tradingDays(10), risingSeries(10, 100, 1), constSeries(10, 1))
	comp := buildComponentPanel(tradingDays(8), []string{"AAA"},
		[][]float64{risingSeries(8, 50, 1)},
		[][]float64{constSeries(8, 1)},
	)
	if _, err := NewMovingAverageEngine(ws).Compute(idx, comp); err == nil {
		t.Fatalf("expected alignment error")
	}
}

func TestMovingAverageEngineMissingVolumeField(t *testing.T) {
	n := 10
	dates := tradingDays(n)
	ws := mustWindows(t, []int{3}, []int{5}, []int{7})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	closeFr := models.NewFrame(dates, []string{"AAA"})
	closeFr.SetColumn(0, risingSeries(n, 50, 1))
	comp := &models.ComponentPanel{
		Dates:   dates,
		Tickers: []string{"AAA"},
		Fields:  map[models.Field]*models.Frame{models.FieldAdjClose: closeFr},
	}

	_, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	var missing *models.MissingFieldError
	if !errors.As(err, &missing) || missing.Field != models.FieldVolume {
		t.Fatalf("expected MissingFieldError for Volume, got %v", err)
	}
}
