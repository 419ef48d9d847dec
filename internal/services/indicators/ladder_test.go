package indicators

import (
	"errors"
	"math"
	"testing"

	"BreadthLab/internal/domain/models"
)

func TestLadderRisingPriceReachesFullParticipation(t *testing.T) {
	// Strictly rising price: once both averages have full history the chain
	// price > MA5 > MA10 holds for every ticker; before that the prefix is
	// 0% (chain broken by NaN) while at least one ticker is active.
	n := 25
	dates := tradingDays(n)
	ws := mustWindows(t, []int{5}, []int{10}, []int{20})
	closes := risingSeries(n, 100, 1)
	idx := buildIndexPanel(dates, closes, constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"UP"},
		[][]float64{closes}, [][]float64{constSeries(n, 1)})

	ma, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	if err != nil {
		t.Fatalf("moving averages: %v", err)
	}
	res, err := NewLadderAggregator(ws, models.KindMA).Compute(ma)
	if err != nil {
		t.Fatalf("ladder: %v", err)
	}

	var rung models.LadderRung
	found := false
	for _, r := range res.Main {
		if len(r.Windows) == 2 {
			rung = r
			found = true
		}
	}
	if !found {
		t.Fatalf("two-window prefix missing from main ladder")
	}
	if rung.Label != "$>V5>V10" {
		t.Fatalf("label = %q, want $>V5>V10", rung.Label)
	}

	for i := 0; i < 9; i++ {
		if !almostEqual(rung.Pct[i], 0) {
			t.Fatalf("day %d: pct = %v, want 0 before MA10 exists", i, rung.Pct[i])
		}
	}
	for i := 9; i < n; i++ {
		if !almostEqual(rung.Pct[i], 100) {
			t.Fatalf("day %d: pct = %v, want 100 once both MAs exist", i, rung.Pct[i])
		}
	}
}

func TestLadderPrefixMonotonicity(t *testing.T) {
	// A longer prefix adds a condition, so its percentage can never exceed a
	// shorter one. Mixed universe: rising, falling and choppy tickers.
	n := 40
	dates := tradingDays(n)
	ws := mustWindows(t, []int{3, 5}, []int{8}, []int{13})

	choppy := make([]float64, n)
	for i := range choppy {
		choppy[i] = 50 + 5*math.Sin(float64(i)*1.3)
	}
	idx := buildIndexPanel(dates, risingSeries(n, 100, 0.5), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"UP", "DOWN", "CHOP"},
		[][]float64{risingSeries(n, 10, 1), risingSeries(n, 90, -1), choppy},
		[][]float64{constSeries(n, 1), constSeries(n, 1), constSeries(n, 1)},
	)

	ma, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	if err != nil {
		t.Fatalf("moving averages: %v", err)
	}
	res, err := NewLadderAggregator(ws, models.KindMA).Compute(ma)
	if err != nil {
		t.Fatalf("ladder: %v", err)
	}

	check := func(rungs []models.LadderRung) {
		for k := 1; k < len(rungs); k++ {
			for i := 0; i < n; i++ {
				a, b := rungs[k-1].Pct[i], rungs[k].Pct[i]
				if math.IsNaN(a) || math.IsNaN(b) {
					continue
				}
				if b > a+1e-9 {
					t.Fatalf("date %d: prefix %q pct %v exceeds shorter prefix %q pct %v",
						i, rungs[k].Label, b, rungs[k-1].Label, a)
				}
			}
		}
	}
	check(res.Main)
	for _, g := range ws.Groups() {
		check(res.Minis[g])
	}
}

func TestLadderMiniLabels(t *testing.T) {
	n := 15
	dates := tradingDays(n)
	ws := mustWindows(t, []int{5, 12}, []int{40, 80}, []int{50, 100, 200})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"A"},
		[][]float64{risingSeries(n, 10, 1)}, [][]float64{constSeries(n, 1)})

	ma, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	if err != nil {
		t.Fatalf("moving averages: %v", err)
	}
	res, err := NewLadderAggregator(ws, models.KindVWMA).Compute(ma)
	if err != nil {
		t.Fatalf("ladder: %v", err)
	}

	medium := res.Minis[models.GroupMedium]
	if len(medium) != 2 {
		t.Fatalf("medium mini ladder has %d rungs, want 2", len(medium))
	}
	if medium[1].Label != "mini$>V40>V80" {
		t.Fatalf("mini label = %q, want mini$>V40>V80", medium[1].Label)
	}
	if res.Main[0].Label != "$>V5" {
		t.Fatalf("main label = %q, want $>V5", res.Main[0].Label)
	}
}

func TestLadderMissingWindowFails(t *testing.T) {
	n := 10
	dates := tradingDays(n)
	ws := mustWindows(t, []int{2}, []int{3}, []int{4})
	idx := buildIndexPanel(dates, risingSeries(n, 100, 1), constSeries(n, 1))
	comp := buildComponentPanel(dates, []string{"A"},
		[][]float64{risingSeries(n, 10, 1)}, [][]float64{constSeries(n, 1)})

	ma, err := NewMovingAverageEngine(ws).Compute(idx, comp)
	if err != nil {
		t.Fatalf("moving averages: %v", err)
	}
	// Ladder configured with a window the upstream never computed.
	wider := mustWindows(t, []int{2}, []int{3}, []int{9})
	_, err = NewLadderAggregator(wider, models.KindMA).Compute(ma)
	var missing *MissingWindowError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingWindowError, got %v", err)
	}
	if missing.Key.Window != 9 {
		t.Fatalf("error names window %d, want 9", missing.Key.Window)
	}
}
