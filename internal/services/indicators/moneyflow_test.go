package indicators

import (
	"math"
	"testing"
	"time"

	"BreadthLab/internal/domain/models"
)

// buildRangePanels attaches High/Low bands around the closes so the money-flow
// inputs are complete. Using the close itself keeps the typical price equal to
// the close, which makes the expected values easy to read.
func buildRangeIndexPanel(dates []time.Time, closes, volumes []float64) *models.PricePanel {
	p := buildIndexPanel(dates, closes, volumes)
	p.High = append([]float64(nil), closes...)
	p.Low = append([]float64(nil), closes...)
	return p
}

func buildRangeComponentPanel(dates []time.Time, tickers []string, closeCols, volCols [][]float64) *models.ComponentPanel {
	p := buildComponentPanel(dates, tickers, closeCols, volCols)
	highFr := models.NewFrame(dates, tickers)
	lowFr := models.NewFrame(dates, tickers)
	for t := range tickers {
		highFr.SetColumn(t, closeCols[t])
		lowFr.SetColumn(t, closeCols[t])
	}
	p.Fields[models.FieldHigh] = highFr
	p.Fields[models.FieldLow] = lowFr
	return p
}

func TestMoneyFlowIndexSeries(t *testing.T) {
	n := 4
	dates := tradingDays(n)
	closes := []float64{10, 11, 10, 10}
	vols := constSeries(n, 2)
	idx := buildRangeIndexPanel(dates, closes, vols)
	comp := buildRangeComponentPanel(dates, []string{"A"},
		[][]float64{append([]float64(nil), closes...)}, [][]float64{vols})

	res, err := NewMoneyFlowAggregator().Compute(idx, comp)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// Signed dollar volume: day 0 counts as down, flat day 3 counts as down.
	assertSeries(t, res.IndexOBV, []float64{-20, 2, -18, -38})
	// Typical price equals the close here; flat days contribute zero.
	assertSeries(t, res.IndexNMF, []float64{0, 22, 2, 2})
	// OBV spans [-38, 2].
	assertSeries(t, res.IndexOBVNorm, []float64{0.45, 1, 0.5, 0})
}

func TestMoneyFlowSignals(t *testing.T) {
	n := 4
	dates := tradingDays(n)
	closes := []float64{10, 11, 10, 10}
	vols := constSeries(n, 2)
	idx := buildRangeIndexPanel(dates, closes, vols)
	comp := buildRangeComponentPanel(dates, []string{"A"},
		[][]float64{append([]float64(nil), closes...)}, [][]float64{vols})

	res, err := NewMoneyFlowAggregator().Compute(idx, comp)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// Day 1: both normalized flows rise. Day 2: both fall. Day 3: OBV falls
	// but NMF is flat, so neither flag fires.
	assertSeries(t, res.Bullish, []float64{0, 1, 0, 0})
	assertSeries(t, res.Bearish, []float64{0, 0, 1, 0})

	if !math.IsNaN(res.BullStrength[0]) {
		t.Fatalf("day 0 has no change; BullStrength = %v, want NaN", res.BullStrength[0])
	}
	// OBV norm rises 0.55, NMF norm rises 1.
	if !almostEqual(res.BullStrength[1], 1.55) {
		t.Fatalf("BullStrength = %v, want 1.55", res.BullStrength[1])
	}
	if !almostEqual(res.BearStrength[1], 0) {
		t.Fatalf("BearStrength on an up day = %v, want 0", res.BearStrength[1])
	}
}

func TestMoneyFlowGapLeavesHole(t *testing.T) {
	// A missing close leaves that date NaN but the running sums continue.
	n := 6
	dates := tradingDays(n)
	closes := []float64{10, 11, math.NaN(), 12, 13, 12}
	vols := constSeries(n, 1)
	idx := buildRangeIndexPanel(dates, closes, vols)
	comp := buildRangeComponentPanel(dates, []string{"A"},
		[][]float64{append([]float64(nil), closes...)}, [][]float64{vols})

	res, err := NewMoneyFlowAggregator().Compute(idx, comp)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if !math.IsNaN(res.IndexOBV[2]) {
		t.Fatalf("OBV on the gap = %v, want NaN", res.IndexOBV[2])
	}
	// Day 3 follows a gap, so its direction falls back to down:
	// -10 + 11 - 12 = -11.
	if !almostEqual(res.IndexOBV[3], -11) {
		t.Fatalf("OBV after the gap = %v, want -11", res.IndexOBV[3])
	}
	if math.IsNaN(res.IndexOBV[n-1]) {
		t.Fatalf("OBV never recovered after the gap")
	}
}

func TestMoneyFlowComponentAggregate(t *testing.T) {
	// A single component identical to the index: the aggregate mean must equal
	// the index-level normalized series.
	n := 8
	dates := tradingDays(n)
	closes := []float64{10, 12, 11, 14, 13, 15, 14, 16}
	vols := constSeries(n, 3)
	idx := buildRangeIndexPanel(dates, closes, vols)
	comp := buildRangeComponentPanel(dates, []string{"A"},
		[][]float64{append([]float64(nil), closes...)}, [][]float64{vols})

	res, err := NewMoneyFlowAggregator().Compute(idx, comp)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	assertSeries(t, res.CompOBVNorm, res.IndexOBVNorm)
	assertSeries(t, res.CompNMFNorm, res.IndexNMFNorm)
	assertSeries(t, res.CompBullish, res.Bullish)
	assertSeries(t, res.CompBearish, res.Bearish)
}

func TestMoneyFlowRequiresRange(t *testing.T) {
	n := 4
	dates := tradingDays(n)
	idx := buildIndexPanel(dates, constSeries(n, 10), constSeries(n, 1))
	comp := buildRangeComponentPanel(dates, []string{"A"},
		[][]float64{constSeries(n, 10)}, [][]float64{constSeries(n, 1)})

	if _, err := NewMoneyFlowAggregator().Compute(idx, comp); err == nil {
		t.Fatalf("index panel without High/Low accepted")
	}

	idx = buildRangeIndexPanel(dates, constSeries(n, 10), constSeries(n, 1))
	bare := buildComponentPanel(dates, []string{"A"},
		[][]float64{constSeries(n, 10)}, [][]float64{constSeries(n, 1)})
	if _, err := NewMoneyFlowAggregator().Compute(idx, bare); err == nil {
		t.Fatalf("component panel without High/Low accepted")
	}
}

func TestMoneyFlowFlatSeriesHasNoScale(t *testing.T) {
	// Constant price and volume: NMF is all zero, so the min-max rescale has
	// no range and must stay NaN rather than divide by zero.
	n := 5
	dates := tradingDays(n)
	idx := buildRangeIndexPanel(dates, constSeries(n, 10), constSeries(n, 1))
	comp := buildRangeComponentPanel(dates, []string{"A"},
		[][]float64{constSeries(n, 10)}, [][]float64{constSeries(n, 1)})

	res, err := NewMoneyFlowAggregator().Compute(idx, comp)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := range res.IndexNMFNorm {
		if !math.IsNaN(res.IndexNMFNorm[i]) {
			t.Fatalf("flat NMF norm day %d = %v, want NaN", i, res.IndexNMFNorm[i])
		}
	}
}
