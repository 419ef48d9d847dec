package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"BreadthLab/internal/domain/models"
	"BreadthLab/internal/services/indicators"
)

func testWindows(t *testing.T) models.WindowSet {
	t.Helper()
	ws, err := models.NewWindowSet([]int{3, 5}, []int{8}, []int{13})
	if err != nil {
		t.Fatalf("window set: %v", err)
	}
	return ws
}

func testPanels(n int) (*models.PricePanel, *models.ComponentPanel) {
	dates := make([]time.Time, n)
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = d.AddDate(0, 0, i)
	}

	idxClose := make([]float64, n)
	idxVol := make([]float64, n)
	for i := range idxClose {
		idxClose[i] = 1000 + 30*math.Sin(float64(i)*0.4) + float64(i)
		idxVol[i] = 1e6 + 1e5*math.Cos(float64(i)*0.7)
	}
	idxHigh := make([]float64, n)
	idxLow := make([]float64, n)
	for i := range idxClose {
		idxHigh[i] = idxClose[i] * 1.01
		idxLow[i] = idxClose[i] * 0.99
	}
	idx := &models.PricePanel{Dates: dates, AdjClose: idxClose, Volume: idxVol, High: idxHigh, Low: idxLow}

	tickers := []string{"AAA", "BBB", "CCC"}
	closeFr := models.NewFrame(dates, tickers)
	volFr := models.NewFrame(dates, tickers)
	highFr := models.NewFrame(dates, tickers)
	lowFr := models.NewFrame(dates, tickers)
	for t := range tickers {
		for i := 0; i < n; i++ {
			// BBB lists late to exercise the active-count path.
			if t == 1 && i < 7 {
				continue
			}
			c := 50 + float64(t*20) + 8*math.Sin(float64(i)*0.3+float64(t))
			closeFr.Set(i, t, c)
			volFr.Set(i, t, 1e4+float64(i*100+t))
			highFr.Set(i, t, c*1.02)
			lowFr.Set(i, t, c*0.98)
		}
	}
	comp := &models.ComponentPanel{
		Dates:   dates,
		Tickers: tickers,
		Fields: map[models.Field]*models.Frame{
			models.FieldAdjClose: closeFr,
			models.FieldVolume:   volFr,
			models.FieldHigh:     highFr,
			models.FieldLow:      lowFr,
		},
	}
	return idx, comp
}

func runPipeline(t *testing.T, idx *models.PricePanel, comp *models.ComponentPanel) *IndicatorSet {
	t.Helper()
	cfg := PipelineConfig{
		Windows:    testWindows(t),
		Breadth:    indicators.BreadthConfig{},
		Oscillator: indicators.OscillatorConfig{Mode: indicators.OscModeMinMax, Lookback: 20},
	}
	p, err := NewIndicatorPipeline(cfg, nil)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	set, err := p.Run(context.Background(), idx, comp)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return set
}

func sameValue(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) < 1e-12
}

func assertPrefixEqual(t *testing.T, name string, full, trunc []float64) {
	t.Helper()
	for i := range trunc {
		if !sameValue(full[i], trunc[i]) {
			t.Fatalf("%s date %d: full run %v != truncated run %v; later rows leaked into earlier outputs",
				name, i, full[i], trunc[i])
		}
	}
}

// Truncating the input at date t and recomputing must reproduce the full
// run's outputs up to t for every component.
func TestPipelineCausality(t *testing.T) {
	n, cut := 40, 25
	idx, comp := testPanels(n)

	full := runPipeline(t, idx, comp)
	trunc := runPipeline(t, idx.Truncate(cut), comp.Truncate(cut))

	if len(trunc.Dates) != cut {
		t.Fatalf("truncated run has %d dates, want %d", len(trunc.Dates), cut)
	}

	for key, s := range trunc.Breadth.Series {
		assertPrefixEqual(t, "breadth "+key.String(), full.Breadth.Series[key].PctAbove, s.PctAbove)
		assertPrefixEqual(t, "breadth net "+key.String(), full.Breadth.Series[key].PctNet, s.PctNet)
	}
	for k, r := range trunc.LadderMA.Main {
		assertPrefixEqual(t, "ladder "+r.Label, full.LadderMA.Main[k].Pct, r.Pct)
	}
	for key, s := range trunc.Compression.Abs {
		assertPrefixEqual(t, "compression abs "+key.String(), full.Compression.Abs[key], s)
		assertPrefixEqual(t, "compression dir "+key.String(), full.Compression.Dir[key], trunc.Compression.Dir[key])
	}
	for kind, s := range trunc.Oscillator.Osc {
		assertPrefixEqual(t, "oscillator "+string(kind), full.Oscillator.Osc[kind], s)
	}
	assertPrefixEqual(t, "advancing", full.AdvDec.Advancing, trunc.AdvDec.Advancing)
	assertPrefixEqual(t, "mcclellan", full.AdvDec.McClellan, trunc.AdvDec.McClellan)
	assertPrefixEqual(t, "net 1m highs", full.HighLow.Net1M, trunc.HighLow.Net1M)
	assertPrefixEqual(t, "net all-time", full.HighLow.NetAllTime, trunc.HighLow.NetAllTime)
	assertPrefixEqual(t, "total breakouts", full.Breakout.TotalBreakouts, trunc.Breakout.TotalBreakouts)
	assertPrefixEqual(t, "breakout impulse", full.Breakout.MAImpulse, trunc.Breakout.MAImpulse)
	// Only the cumulative money-flow series are causal; the normalized ones
	// rescale over the full sample.
	assertPrefixEqual(t, "index obv", full.MoneyFlow.IndexOBV, trunc.MoneyFlow.IndexOBV)
	assertPrefixEqual(t, "index nmf", full.MoneyFlow.IndexNMF, trunc.MoneyFlow.IndexNMF)
}

func TestPipelineProducesAllComponents(t *testing.T) {
	idx, comp := testPanels(30)
	set := runPipeline(t, idx, comp)

	if set.Breadth == nil || set.LadderMA == nil || set.LadderVWMA == nil ||
		set.Compression == nil || set.Oscillator == nil || set.AdvDec == nil || set.HighLow == nil ||
		set.Breakout == nil || set.MoneyFlow == nil {
		t.Fatalf("pipeline left components nil: %+v", set)
	}
	if len(set.Breadth.Series) != 2*len(testWindows(t).All()) {
		t.Fatalf("breadth has %d series, want MA+VWMA per window", len(set.Breadth.Series))
	}
	for _, w := range testWindows(t).All() {
		key := models.SeriesKey{Kind: models.KindVWMA, Window: w}
		if _, ok := set.Compression.Abs[key]; !ok {
			t.Fatalf("compression is missing the VWMA series for window %d", w)
		}
	}
	if len(set.Breakout.Up) == 0 {
		t.Fatalf("breakout suite has no per-condition series")
	}
	if got := set.ActiveCount[0]; got != 2 {
		t.Fatalf("day 0 active = %d, want 2 (one ticker lists late)", got)
	}
	if got := set.ActiveCount[10]; got != 3 {
		t.Fatalf("day 10 active = %d, want 3", got)
	}
}

func TestSnapshotFromResults(t *testing.T) {
	idx, comp := testPanels(30)
	set := runPipeline(t, idx, comp)

	snap := models.SnapshotFromResults("IBOV", set.Breadth, set.AdvDec, set.ActiveCount)
	if snap == nil {
		t.Fatalf("snapshot is nil")
	}
	if snap.IndexSymbol != "IBOV" {
		t.Fatalf("index = %q", snap.IndexSymbol)
	}
	if !snap.Date.Equal(set.Dates[len(set.Dates)-1]) {
		t.Fatalf("snapshot date %v != last run date", snap.Date)
	}
	if len(snap.Entries) != len(set.Breadth.Series) {
		t.Fatalf("snapshot has %d entries, want %d", len(snap.Entries), len(set.Breadth.Series))
	}
	if snap.ActiveCount != 3 {
		t.Fatalf("snapshot active = %d, want 3", snap.ActiveCount)
	}
}
