package models

import (
	"fmt"
	"time"
)

// Kind distinguishes the two moving-average flavors.
type Kind string

const (
	KindMA   Kind = "MA"
	KindVWMA Kind = "VWMA"
)

// SeriesKey identifies one derived series: (kind, window). Replaces the
// original dashboard's dynamically built column names with a typed lookup.
type SeriesKey struct {
	Kind   Kind
	Window int
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s%d", string(k.Kind), k.Window)
}

// MAResult is the shared, read-only output of the moving-average stage. Every
// aggregator reads it; none may write back into it.
type MAResult struct {
	Dates   []time.Time
	Tickers []string
	Windows WindowSet

	// Index-level series.
	IndexClose  []float64
	IndexVolume []float64
	Index       map[SeriesKey][]float64

	// Ticker-level frames.
	PanelClose *Frame
	Panel      map[SeriesKey]*Frame

	// ActiveCount[t] = tickers with a non-NaN close on date t.
	ActiveCount []int
}

// IndexSeries looks up one index-level MA/VWMA series.
func (r *MAResult) IndexSeries(k SeriesKey) ([]float64, bool) {
	s, ok := r.Index[k]
	return s, ok
}

// PanelSeries looks up one ticker-level MA/VWMA frame.
func (r *MAResult) PanelSeries(k SeriesKey) (*Frame, bool) {
	f, ok := r.Panel[k]
	return f, ok
}

// BreadthSeries holds the cross-sectional classification for one (kind,window).
// Counts are float64 so a zero-active date can carry NaN instead of a
// misleading zero. PctNet is populated only in two-state mode (epsilon == 0).
type BreadthSeries struct {
	Key        SeriesKey
	NumAbove   []float64
	NumBelow   []float64
	NumNeutral []float64
	PctAbove   []float64
	PctBelow   []float64
	PctNeutral []float64
	PctNet     []float64
}

// BreadthResult maps every (kind, window) to its breadth series.
type BreadthResult struct {
	Dates  []time.Time
	Series map[SeriesKey]*BreadthSeries
}

// LadderRung is one prefix of a strict ordering chain, e.g. price>V5>V12.
type LadderRung struct {
	Label   string
	Windows []int
	Pct     []float64
}

// LadderResult carries the main ladder (full window set) and the per-group
// mini ladders, every prefix included.
type LadderResult struct {
	Dates []time.Time
	Kind  Kind
	Main  []LadderRung
	Minis map[Group][]LadderRung
}

// GroupKey identifies one per-kind window family, e.g. the VWMA short group.
type GroupKey struct {
	Kind  Kind
	Group Group
}

// CompressionResult holds per-ticker relative deviations from each MA and
// VWMA and their per-date absolute (dispersion) and signed (bias) sums. The
// per-ticker frames are retained for heatmap consumers.
type CompressionResult struct {
	Dates    []time.Time
	Diff     map[SeriesKey]*Frame
	Abs      map[SeriesKey][]float64
	Dir      map[SeriesKey][]float64
	GroupAbs map[GroupKey][]float64
	GroupDir map[GroupKey][]float64
}

// OscillatorResult is the normalized MA-range oscillator, one series per kind.
type OscillatorResult struct {
	Dates    []time.Time
	Mode     string
	RangePct map[Kind][]float64
	Osc      map[Kind][]float64
}

// AdvanceDeclineResult carries the daily advance/decline suite.
type AdvanceDeclineResult struct {
	Dates      []time.Time
	Advancing  []float64
	Declining  []float64
	TRIN       []float64
	ADDiff     []float64
	ADCumDiff  []float64
	DiffEMA19  []float64
	DiffEMA39  []float64
	McClellan  []float64
	IndexClose []float64
}

// BreakoutResult carries the crossing-event suite: per-condition event counts,
// totals, smoothed series, participation percentages and the timing helpers
// built from them.
type BreakoutResult struct {
	Dates []time.Time

	// Per-condition daily event counts, keyed by BreakoutCondition.Label().
	Up   map[string][]float64
	Down map[string][]float64

	TotalBreakouts  []float64
	TotalBreakdowns []float64
	MABreakouts     []float64
	MABreakdowns    []float64

	PctBreakouts    []float64
	PctBreakdowns   []float64
	PctImpulse      []float64
	MAPctBreakouts  []float64
	MAPctBreakdowns []float64
	MAPctImpulse    []float64

	Impulse   []float64
	MAImpulse []float64
	RiskOn    []float64

	ThrustZ    []float64
	ThrustFlag []float64

	UpDownRatioShort []float64
	UpDownRatioLong  []float64
}

// MoneyFlowResult carries on-balance volume and net money flow for the index
// and the component aggregate. The *Norm series are full-sample min-max
// rescalings kept for chart consumers; every other series is causal.
type MoneyFlowResult struct {
	Dates []time.Time

	IndexOBV     []float64
	IndexNMF     []float64
	IndexOBVNorm []float64
	IndexNMFNorm []float64
	Bullish      []float64
	Bearish      []float64
	BullStrength []float64
	BearStrength []float64

	CompOBVNorm      []float64
	CompNMFNorm      []float64
	CompBullish      []float64
	CompBearish      []float64
	CompBullStrength []float64
	CompBearStrength []float64
}

// HighLowResult counts tickers printing fresh highs/lows per horizon. Low
// counts are negative (one per ticker at a low), matching the sign convention
// the net series are built from.
type HighLowResult struct {
	Dates []time.Time

	AllTimeHigh []float64
	AllTimeLow  []float64
	High12M     []float64
	Low12M      []float64
	High3M      []float64
	Low3M       []float64
	High1M      []float64
	Low1M       []float64

	NetAllTime []float64
	Net12M     []float64
	Net3M      []float64
	Net1M      []float64
}
