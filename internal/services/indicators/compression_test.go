package indicators

import (
	"math"
	"testing"

	"BreadthLab/internal/domain/models"
)

func computeCompression(t *testing.T, ws models.WindowSet, idx *models.PricePanel, comp *models.ComponentPanel) *models.CompressionResult {
	t.Helper()
	ma, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	if err != nil {
		t.Fatalf("moving averages: %v", err)
	}
	res, err := NewCompressionAggregator(ws).Compute(ma)
	if err != nil {
		t.Fatalf("compression: %v", err)
	}
	return res
}

func TestCompressionSignBound(t *testing.T) {
	// |Dir| <= Abs on every date and window: the signed sum can never exceed
	// the sum of magnitudes.
	n := 30
	dates := tradingDays(n)
	ws := mustWindows(t, []int{3, 5}, []int{8}, []int{13})

	choppy := make([]float64, n)
	for i := range choppy {
		choppy[i] = 40 + 6*math.Cos(float64(i)*0.9)
	}
	idx := buildIndexPanel(dates, risingSeries(n, 100, 0.5), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"UP", "DOWN", "CHOP"},
		[][]float64{risingSeries(n, 10, 1), risingSeries(n, 90, -1), choppy},
		[][]float64{constSeries(n, 1), constSeries(n, 1), constSeries(n, 1)},
	)

	res := computeCompression(t, ws, idx, comp)

	for key := range res.Abs {
		for i := 0; i < n; i++ {
			abs, dir := res.Abs[key][i], res.Dir[key][i]
			if math.IsNaN(abs) != math.IsNaN(dir) {
				t.Fatalf("%s date %d: Abs/Dir NaN mismatch (%v, %v)", key, i, abs, dir)
			}
			if math.IsNaN(abs) {
				continue
			}
			if math.Abs(dir) > abs+1e-9 {
				t.Fatalf("%s date %d: |Dir| %v exceeds Abs %v", key, i, math.Abs(dir), abs)
			}
			if abs < 0 {
				t.Fatalf("%s date %d: Abs %v is negative", key, i, abs)
			}
		}
	}
}

func TestCompressionDiffValues(t *testing.T) {
	// Constant price: diff = (close - MA)/close = 0 once the MA exists.
	n := 10
	dates := tradingDays(n)
	ws := mustWindows(t, []int{2}, []int{3}, []int{4})
	idx := buildIndexPanel(dates, constSeries(n, 100), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"FLAT"},
		[][]float64{constSeries(n, 50)}, [][]float64{constSeries(n, 1)})

	res := computeCompression(t, ws, idx, comp)

	key := models.SeriesKey{Kind: models.KindMA, Window: 2}
	if got := res.Diff[key].At(5, 0); !almostEqual(got, 0) {
		t.Fatalf("flat-series diff = %v, want 0", got)
	}
	if got := res.Abs[key][5]; !almostEqual(got, 0) {
		t.Fatalf("flat-series Abs = %v, want 0", got)
	}
}

func TestCompressionEmptyCrossSectionIsNaN(t *testing.T) {
	// Before any MA exists, the cross-section has no valid deviations; the
	// sums must be NaN, not a 0 that would read as perfect compression.
	n := 10
	dates := tradingDays(n)
	ws := mustWindows(t, []int{4}, []int{6}, []int{8})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"A"},
		[][]float64{risingSeries(n, 10, 1)}, [][]float64{constSeries(n, 1)})

	res := computeCompression(t, ws, idx, comp)

	key := models.SeriesKey{Kind: models.KindMA, Window: 4}
	if !math.IsNaN(res.Abs[key][0]) || !math.IsNaN(res.Dir[key][0]) {
		t.Fatalf("empty cross-section sums = (%v, %v), want NaN", res.Abs[key][0], res.Dir[key][0])
	}
	if math.IsNaN(res.Abs[key][n-1]) {
		t.Fatalf("Abs should be defined once the MA exists")
	}
}

func TestCompressionGroupSums(t *testing.T) {
	n := 20
	dates := tradingDays(n)
	ws := mustWindows(t, []int{2, 3}, []int{5}, []int{8})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"A", "B"},
		[][]float64{risingSeries(n, 10, 1), risingSeries(n, 60, -0.5)},
		[][]float64{constSeries(n, 1), constSeries(n, 1)},
	)

	res := computeCompression(t, ws, idx, comp)

	i := n - 1
	k2 := models.SeriesKey{Kind: models.KindMA, Window: 2}
	k3 := models.SeriesKey{Kind: models.KindMA, Window: 3}
	wantAbs := res.Abs[k2][i] + res.Abs[k3][i]
	wantDir := res.Dir[k2][i] + res.Dir[k3][i]
	gShort := models.GroupKey{Kind: models.KindMA, Group: models.GroupShort}
	if !almostEqual(res.GroupAbs[gShort][i], wantAbs) {
		t.Fatalf("short GroupAbs = %v, want %v", res.GroupAbs[gShort][i], wantAbs)
	}
	if !almostEqual(res.GroupDir[gShort][i], wantDir) {
		t.Fatalf("short GroupDir = %v, want %v", res.GroupDir[gShort][i], wantDir)
	}
	// The medium group only contains window 5.
	k5 := models.SeriesKey{Kind: models.KindMA, Window: 5}
	gMed := models.GroupKey{Kind: models.KindMA, Group: models.GroupMedium}
	if !almostEqual(res.GroupAbs[gMed][i], res.Abs[k5][i]) {
		t.Fatalf("medium GroupAbs = %v, want %v", res.GroupAbs[gMed][i], res.Abs[k5][i])
	}
}

func TestCompressionCoversBothKinds(t *testing.T) {
	// Every configured window must carry a VWMA deviation table alongside the
	// simple-MA one. With constant volume the two collapse to the same values.
	n := 20
	dates := tradingDays(n)
	ws := mustWindows(t, []int{2, 3}, []int{4}, []int{6})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"A", "B"},
		[][]float64{risingSeries(n, 10, 1), risingSeries(n, 80, -0.5)},
		[][]float64{constSeries(n, 7), constSeries(n, 7)},
	)

	res := computeCompression(t, ws, idx, comp)

	for _, w := range ws.All() {
		maKey := models.SeriesKey{Kind: models.KindMA, Window: w}
		vwKey := models.SeriesKey{Kind: models.KindVWMA, Window: w}
		vwAbs, ok := res.Abs[vwKey]
		if !ok {
			t.Fatalf("compression result has no VWMA series for window %d", w)
		}
		if _, ok := res.Diff[vwKey]; !ok {
			t.Fatalf("compression result has no VWMA diff frame for window %d", w)
		}
		for i := 0; i < n; i++ {
			if !sameNaN(res.Abs[maKey][i], vwAbs[i]) {
				t.Fatalf("window %d date %d: constant-volume VWMA Abs %v != MA Abs %v",
					w, i, vwAbs[i], res.Abs[maKey][i])
			}
		}
	}
	for _, g := range ws.Groups() {
		if _, ok := res.GroupAbs[models.GroupKey{Kind: models.KindVWMA, Group: g}]; !ok {
			t.Fatalf("compression result has no VWMA group sums for %q", string(g))
		}
	}
}

func sameNaN(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return almostEqual(a, b)
}
