package indicators

import (
	"math"
	"testing"

	"BreadthLab/internal/domain/models"
)

func computeBreadth(t *testing.T, cfg BreadthConfig, idx *models.PricePanel, comp *models.ComponentPanel, ws models.WindowSet) (*models.MAResult, *models.BreadthResult) {
	t.Helper()
	ma, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	if err != nil {
		t.Fatalf("moving averages: %v", err)
	}
	agg, err := NewBreadthAggregator(cfg)
	if err != nil {
		t.Fatalf("aggregator: %v", err)
	}
	br, err := agg.Compute(ma)
	if err != nil {
		t.Fatalf("breadth: %v", err)
	}
	return ma, br
}

func TestBreadthPartitionCoversActiveCount(t *testing.T) {
	n := 15
	dates := tradingDays(n)
	ws := mustWindows(t, []int{3}, []int{5}, []int{8})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"UP", "DOWN", "FLAT"},
		[][]float64{risingSeries(n, 10, 1), risingSeries(n, 50, -1), constSeries(n, 30)},
		[][]float64{constSeries(n, 1), constSeries(n, 1), constSeries(n, 1)},
	)

	ma, br := computeBreadth(t, BreadthConfig{}, idx, comp, ws)

	for key, s := range br.Series {
		for i := 0; i < n; i++ {
			if ma.ActiveCount[i] == 0 {
				continue
			}
			sum := s.NumAbove[i] + s.NumBelow[i] + s.NumNeutral[i]
			if !almostEqual(sum, float64(ma.ActiveCount[i])) {
				t.Fatalf("%s date %d: above+below+neutral = %v, active = %d", key, i, sum, ma.ActiveCount[i])
			}
		}
	}
}

func TestBreadthActiveCountDenominator(t *testing.T) {
	// Three tickers; one is missing for the first 5 days. The denominator must
	// track the listing, not the static universe size.
	n := 10
	dates := tradingDays(n)
	ws := mustWindows(t, []int{2}, []int{3}, []int{4})

	late := risingSeries(n, 20, 1)
	lateVol := constSeries(n, 1)
	for i := 0; i < 5; i++ {
		late[i] = math.NaN()
		lateVol[i] = math.NaN()
	}
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"A", "B", "LATE"},
		[][]float64{risingSeries(n, 10, 1), risingSeries(n, 40, 1), late},
		[][]float64{constSeries(n, 1), constSeries(n, 1), lateVol},
	)

	ma, br := computeBreadth(t, BreadthConfig{}, idx, comp, ws)

	for i := 0; i < 5; i++ {
		if ma.ActiveCount[i] != 2 {
			t.Fatalf("day %d: active = %d, want 2", i, ma.ActiveCount[i])
		}
	}
	for i := 5; i < n; i++ {
		if ma.ActiveCount[i] != 3 {
			t.Fatalf("day %d: active = %d, want 3", i, ma.ActiveCount[i])
		}
	}

	// Rising tickers are above MA2 once it exists; on day 2 both active
	// tickers qualify, so the percentage uses denominator 2, not 3.
	s := br.Series[models.SeriesKey{Kind: models.KindMA, Window: 2}]
	if !almostEqual(s.PctAbove[2], 100) {
		t.Fatalf("day 2 PctAbove = %v, want 100 over 2 active tickers", s.PctAbove[2])
	}
	// Day 6: LATE has only 2 observations, so its MA2 exists and it counts
	// above as well; denominator is now 3.
	if !almostEqual(s.PctAbove[6], 100) {
		t.Fatalf("day 6 PctAbove = %v, want 100 over 3 active tickers", s.PctAbove[6])
	}
	// Day 5: LATE is active but its MA2 needs two observations, so it lands
	// in neutral and the partition still holds.
	if !almostEqual(s.NumNeutral[5], 1) {
		t.Fatalf("day 5 NumNeutral = %v, want 1 (warming ticker)", s.NumNeutral[5])
	}
	if !almostEqual(s.PctAbove[5], 2.0/3.0*100) {
		t.Fatalf("day 5 PctAbove = %v, want %v", s.PctAbove[5], 2.0/3.0*100)
	}
}

func TestBreadthZeroActiveDateIsNaN(t *testing.T) {
	n := 8
	dates := tradingDays(n)
	ws := mustWindows(t, []int{2}, []int{3}, []int{4})

	closes := risingSeries(n, 10, 1)
	vols := constSeries(n, 1)
	closes[3] = math.NaN()
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"ONLY"},
		[][]float64{closes}, [][]float64{vols})

	_, br := computeBreadth(t, BreadthConfig{}, idx, comp, ws)

	s := br.Series[models.SeriesKey{Kind: models.KindMA, Window: 2}]
	if !math.IsNaN(s.PctAbove[3]) {
		t.Fatalf("zero-active date PctAbove = %v, want NaN", s.PctAbove[3])
	}
}

func TestBreadthNeutralBand(t *testing.T) {
	// Price sits 0.5% above its MA; with a 1% band that is neutral, with no
	// band it is above.
	n := 12
	dates := tradingDays(n)
	ws := mustWindows(t, []int{2}, []int{3}, []int{4})

	closes := constSeries(n, 100)
	closes[n-1] = 100.5
	idx := buildIndexPanel(dates, constSeries(n, 100), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"TIGHT"},
		[][]float64{closes}, [][]float64{constSeries(n, 1)})

	_, strict := computeBreadth(t, BreadthConfig{}, idx, comp, ws)
	_, banded := computeBreadth(t, BreadthConfig{Epsilon: 0.01}, idx, comp, ws)

	key := models.SeriesKey{Kind: models.KindMA, Window: 2}
	if !almostEqual(strict.Series[key].NumAbove[n-1], 1) {
		t.Fatalf("strict mode: NumAbove = %v, want 1", strict.Series[key].NumAbove[n-1])
	}
	if !almostEqual(banded.Series[key].NumNeutral[n-1], 1) {
		t.Fatalf("banded mode: NumNeutral = %v, want 1", banded.Series[key].NumNeutral[n-1])
	}
	if banded.Series[key].PctNet != nil {
		t.Fatalf("PctNet should only exist in two-state mode")
	}
	if strict.Series[key].PctNet == nil {
		t.Fatalf("two-state mode should emit PctNet")
	}
}

func TestBreadthSmoothingHasNoLeadingNaN(t *testing.T) {
	n := 10
	dates := tradingDays(n)
	ws := mustWindows(t, []int{2}, []int{3}, []int{4})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"A"},
		[][]float64{risingSeries(n, 10, 1)}, [][]float64{constSeries(n, 1)})

	_, br := computeBreadth(t, BreadthConfig{SmoothWindow: 4}, idx, comp, ws)

	s := br.Series[models.SeriesKey{Kind: models.KindMA, Window: 2}]
	// Smoothing uses min_periods=1 semantics: date 0 is defined.
	if math.IsNaN(s.PctAbove[0]) {
		t.Fatalf("smoothed PctAbove[0] is NaN; smoothing must not introduce warm-up gaps")
	}
}

func TestBreadthRejectsNegativeEpsilon(t *testing.T) {
	if _, err := NewBreadthAggregator(BreadthConfig{Epsilon: -0.1}); err == nil {
		t.Fatalf("expected error for negative epsilon")
	}
}
