package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BreadthLab/internal/domain/models"
)

// ErrNotReady is returned before the first successful refresh.
var ErrNotReady = errors.New("no indicator run completed yet")

const (
	defaultQueryLimit = 500
	maxQueryLimit     = 5000
)

// MarketQueryUseCase serves read queries from the latest pipeline run.
type MarketQueryUseCase struct {
	refresher *RefreshUseCase
}

func NewMarketQueryUseCase(refresher *RefreshUseCase) *MarketQueryUseCase {
	return &MarketQueryUseCase{refresher: refresher}
}

func (uc *MarketQueryUseCase) set() (*IndicatorSet, error) {
	set := uc.refresher.Latest()
	if set == nil {
		return nil, ErrNotReady
	}
	return set, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultQueryLimit
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}

// tail returns the last limit elements of dates plus the matching offset.
func tail(dates []time.Time, limit int) ([]time.Time, int) {
	off := len(dates) - limit
	if off < 0 {
		off = 0
	}
	return dates[off:], off
}

type BreadthQueryParams struct {
	Kind   models.Kind
	Window int
	Limit  int
}

type BreadthQueryResult struct {
	Series     string
	Dates      []time.Time
	PctAbove   []float64
	PctBelow   []float64
	PctNeutral []float64
	PctNet     []float64 // nil unless two-state mode
}

func (uc *MarketQueryUseCase) GetBreadth(ctx context.Context, p BreadthQueryParams) (*BreadthQueryResult, error) {
	set, err := uc.set()
	if err != nil {
		return nil, err
	}
	key := models.SeriesKey{Kind: p.Kind, Window: p.Window}
	s, ok := set.Breadth.Series[key]
	if !ok {
		return nil, fmt.Errorf("unknown series %s", key)
	}
	dates, off := tail(set.Breadth.Dates, clampLimit(p.Limit))
	res := &BreadthQueryResult{
		Series:     key.String(),
		Dates:      dates,
		PctAbove:   s.PctAbove[off:],
		PctBelow:   s.PctBelow[off:],
		PctNeutral: s.PctNeutral[off:],
	}
	if s.PctNet != nil {
		res.PctNet = s.PctNet[off:]
	}
	return res, nil
}

type LadderQueryParams struct {
	Kind  models.Kind
	Group models.Group // empty selects the main ladder
	Limit int
}

type LadderQueryResult struct {
	Kind  models.Kind
	Dates []time.Time
	Rungs []models.LadderRung
}

func (uc *MarketQueryUseCase) GetLadders(ctx context.Context, p LadderQueryParams) (*LadderQueryResult, error) {
	set, err := uc.set()
	if err != nil {
		return nil, err
	}
	var lr *models.LadderResult
	switch p.Kind {
	case models.KindVWMA:
		lr = set.LadderVWMA
	default:
		lr = set.LadderMA
	}

	rungs := lr.Main
	if p.Group != "" {
		var ok bool
		rungs, ok = lr.Minis[p.Group]
		if !ok {
			return nil, fmt.Errorf("unknown ladder group %q", string(p.Group))
		}
	}

	dates, off := tail(lr.Dates, clampLimit(p.Limit))
	out := make([]models.LadderRung, len(rungs))
	for i, r := range rungs {
		out[i] = models.LadderRung{Label: r.Label, Windows: r.Windows, Pct: r.Pct[off:]}
	}
	return &LadderQueryResult{Kind: lr.Kind, Dates: dates, Rungs: out}, nil
}

type CompressionQueryParams struct {
	Kind   models.Kind // empty defaults to the simple MA
	Window int         // 0 selects group sums only
	Limit  int
}

type CompressionQueryResult struct {
	Kind     models.Kind
	Dates    []time.Time
	Abs      []float64
	Dir      []float64
	GroupAbs map[models.Group][]float64
	GroupDir map[models.Group][]float64
}

func (uc *MarketQueryUseCase) GetCompression(ctx context.Context, p CompressionQueryParams) (*CompressionQueryResult, error) {
	set, err := uc.set()
	if err != nil {
		return nil, err
	}
	kind := p.Kind
	if kind == "" {
		kind = models.KindMA
	}
	cr := set.Compression
	dates, off := tail(cr.Dates, clampLimit(p.Limit))
	res := &CompressionQueryResult{
		Kind:     kind,
		Dates:    dates,
		GroupAbs: make(map[models.Group][]float64, len(cr.GroupAbs)),
		GroupDir: make(map[models.Group][]float64, len(cr.GroupDir)),
	}
	for gk, s := range cr.GroupAbs {
		if gk.Kind == kind {
			res.GroupAbs[gk.Group] = s[off:]
		}
	}
	for gk, s := range cr.GroupDir {
		if gk.Kind == kind {
			res.GroupDir[gk.Group] = s[off:]
		}
	}
	if p.Window > 0 {
		key := models.SeriesKey{Kind: kind, Window: p.Window}
		abs, ok := cr.Abs[key]
		if !ok {
			return nil, fmt.Errorf("unknown series %s", key)
		}
		res.Abs = abs[off:]
		res.Dir = cr.Dir[key][off:]
	}
	return res, nil
}

type BreakoutQueryResult struct {
	Dates []time.Time

	Up   map[string][]float64
	Down map[string][]float64

	TotalBreakouts  []float64
	TotalBreakdowns []float64
	MABreakouts     []float64
	MABreakdowns    []float64

	PctBreakouts  []float64
	PctBreakdowns []float64
	MAPctImpulse  []float64

	Impulse   []float64
	MAImpulse []float64
	RiskOn    []float64

	ThrustZ    []float64
	ThrustFlag []float64

	UpDownRatioShort []float64
	UpDownRatioLong  []float64
}

func (uc *MarketQueryUseCase) GetBreakouts(ctx context.Context, limit int) (*BreakoutQueryResult, error) {
	set, err := uc.set()
	if err != nil {
		return nil, err
	}
	br := set.Breakout
	dates, off := tail(br.Dates, clampLimit(limit))
	res := &BreakoutQueryResult{
		Dates:            dates,
		Up:               make(map[string][]float64, len(br.Up)),
		Down:             make(map[string][]float64, len(br.Down)),
		TotalBreakouts:   br.TotalBreakouts[off:],
		TotalBreakdowns:  br.TotalBreakdowns[off:],
		MABreakouts:      br.MABreakouts[off:],
		MABreakdowns:     br.MABreakdowns[off:],
		PctBreakouts:     br.PctBreakouts[off:],
		PctBreakdowns:    br.PctBreakdowns[off:],
		MAPctImpulse:     br.MAPctImpulse[off:],
		Impulse:          br.Impulse[off:],
		MAImpulse:        br.MAImpulse[off:],
		RiskOn:           br.RiskOn[off:],
		ThrustZ:          br.ThrustZ[off:],
		ThrustFlag:       br.ThrustFlag[off:],
		UpDownRatioShort: br.UpDownRatioShort[off:],
		UpDownRatioLong:  br.UpDownRatioLong[off:],
	}
	for label, s := range br.Up {
		res.Up[label] = s[off:]
	}
	for label, s := range br.Down {
		res.Down[label] = s[off:]
	}
	return res, nil
}

type MoneyFlowQueryResult struct {
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

func (uc *MarketQueryUseCase) GetMoneyFlow(ctx context.Context, limit int) (*MoneyFlowQueryResult, error) {
	set, err := uc.set()
	if err != nil {
		return nil, err
	}
	mf := set.MoneyFlow
	dates, off := tail(mf.Dates, clampLimit(limit))
	return &MoneyFlowQueryResult{
		Dates:            dates,
		IndexOBV:         mf.IndexOBV[off:],
		IndexNMF:         mf.IndexNMF[off:],
		IndexOBVNorm:     mf.IndexOBVNorm[off:],
		IndexNMFNorm:     mf.IndexNMFNorm[off:],
		Bullish:          mf.Bullish[off:],
		Bearish:          mf.Bearish[off:],
		BullStrength:     mf.BullStrength[off:],
		BearStrength:     mf.BearStrength[off:],
		CompOBVNorm:      mf.CompOBVNorm[off:],
		CompNMFNorm:      mf.CompNMFNorm[off:],
		CompBullish:      mf.CompBullish[off:],
		CompBearish:      mf.CompBearish[off:],
		CompBullStrength: mf.CompBullStrength[off:],
		CompBearStrength: mf.CompBearStrength[off:],
	}, nil
}

type OscillatorQueryResult struct {
	Mode     string
	Dates    []time.Time
	RangePct map[models.Kind][]float64
	Osc      map[models.Kind][]float64
}

func (uc *MarketQueryUseCase) GetOscillator(ctx context.Context, limit int) (*OscillatorQueryResult, error) {
	set, err := uc.set()
	if err != nil {
		return nil, err
	}
	or := set.Oscillator
	dates, off := tail(or.Dates, clampLimit(limit))
	res := &OscillatorQueryResult{
		Mode:     or.Mode,
		Dates:    dates,
		RangePct: make(map[models.Kind][]float64, len(or.RangePct)),
		Osc:      make(map[models.Kind][]float64, len(or.Osc)),
	}
	for k, s := range or.RangePct {
		res.RangePct[k] = s[off:]
	}
	for k, s := range or.Osc {
		res.Osc[k] = s[off:]
	}
	return res, nil
}

type MarketStatsQueryResult struct {
	Dates     []time.Time
	Advancing []float64
	Declining []float64
	TRIN      []float64
	ADCumDiff []float64
	McClellan []float64

	NetAllTime []float64
	Net12M     []float64
	Net3M      []float64
	Net1M      []float64
}

func (uc *MarketQueryUseCase) GetMarketStats(ctx context.Context, limit int) (*MarketStatsQueryResult, error) {
	set, err := uc.set()
	if err != nil {
		return nil, err
	}
	ad, hl := set.AdvDec, set.HighLow
	dates, off := tail(ad.Dates, clampLimit(limit))
	return &MarketStatsQueryResult{
		Dates:      dates,
		Advancing:  ad.Advancing[off:],
		Declining:  ad.Declining[off:],
		TRIN:       ad.TRIN[off:],
		ADCumDiff:  ad.ADCumDiff[off:],
		McClellan:  ad.McClellan[off:],
		NetAllTime: hl.NetAllTime[off:],
		Net12M:     hl.Net12M[off:],
		Net3M:      hl.Net3M[off:],
		Net1M:      hl.Net1M[off:],
	}, nil
}
