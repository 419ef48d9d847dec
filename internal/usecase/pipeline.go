package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"BreadthLab/internal/domain/models"
	domrepo "BreadthLab/internal/domain/repository"
	"BreadthLab/internal/services/indicators"
)

// IndicatorSet bundles one full pipeline run over a single input window.
type IndicatorSet struct {
	Dates       []time.Time
	Tickers     []string
	ActiveCount []int

	MA          *models.MAResult
	Breadth     *models.BreadthResult
	LadderMA    *models.LadderResult
	LadderVWMA  *models.LadderResult
	Compression *models.CompressionResult
	Oscillator  *models.OscillatorResult
	AdvDec      *models.AdvanceDeclineResult
	HighLow     *models.HighLowResult
	Breakout    *models.BreakoutResult
	MoneyFlow   *models.MoneyFlowResult
}

// PipelineConfig carries the indicator parameters for one pipeline instance.
type PipelineConfig struct {
	Windows    models.WindowSet
	Breadth    indicators.BreadthConfig
	Oscillator indicators.OscillatorConfig
	Breakout   indicators.BreakoutConfig
}

// IndicatorPipeline runs the moving-average stage, then fans the independent
// aggregators out concurrently. Every aggregator only reads the shared
// MAResult, so the fan-out needs no further synchronization.
type IndicatorPipeline struct {
	engine      *indicators.MovingAverageEngine
	breadth     *indicators.BreadthAggregator
	ladderMA    *indicators.LadderAggregator
	ladderVWMA  *indicators.LadderAggregator
	compression *indicators.CompressionAggregator
	oscillator  *indicators.OscillatorNormalizer
	advdec      *indicators.AdvanceDeclineAggregator
	highlow     *indicators.HighLowAggregator
	breakout    *indicators.BreakoutAggregator
	moneyflow   *indicators.MoneyFlowAggregator
	metrics     domrepo.Metrics
}

func NewIndicatorPipeline(cfg PipelineConfig, metrics domrepo.Metrics) (*IndicatorPipeline, error) {
	breadth, err := indicators.NewBreadthAggregator(cfg.Breadth)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	osc, err := indicators.NewOscillatorNormalizer(cfg.Windows, cfg.Oscillator)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	breakout, err := indicators.NewBreakoutAggregator(cfg.Breakout)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &IndicatorPipeline{
		engine:      indicators.NewMovingAverageEngine(cfg.Windows),
		breadth:     breadth,
		ladderMA:    indicators.NewLadderAggregator(cfg.Windows, models.KindMA),
		ladderVWMA:  indicators.NewLadderAggregator(cfg.Windows, models.KindVWMA),
		compression: indicators.NewCompressionAggregator(cfg.Windows),
		oscillator:  osc,
		advdec:      indicators.NewAdvanceDeclineAggregator(),
		highlow:     indicators.NewHighLowAggregator(),
		breakout:    breakout,
		moneyflow:   indicators.NewMoneyFlowAggregator(),
		metrics:     metrics,
	}, nil
}

// Run computes the full indicator set. The input panels are not mutated.
func (p *IndicatorPipeline) Run(ctx context.Context, idx *models.PricePanel, comp *models.ComponentPanel) (*IndicatorSet, error) {
	start := time.Now()
	ma, err := p.engine.Compute(idx, comp)
	if err != nil {
		p.recordError("moving_averages")
		return nil, fmt.Errorf("moving averages: %w", err)
	}
	p.recordStage("moving_averages", start)

	set := &IndicatorSet{
		Dates:       ma.Dates,
		Tickers:     ma.Tickers,
		ActiveCount: ma.ActiveCount,
		MA:          ma,
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(p.stage("breadth", func() error {
		res, err := p.breadth.Compute(ma)
		set.Breadth = res
		return err
	}))
	g.Go(p.stage("ladder_ma", func() error {
		res, err := p.ladderMA.Compute(ma)
		set.LadderMA = res
		return err
	}))
	g.Go(p.stage("ladder_vwma", func() error {
		res, err := p.ladderVWMA.Compute(ma)
		set.LadderVWMA = res
		return err
	}))
	g.Go(p.stage("compression", func() error {
		res, err := p.compression.Compute(ma)
		set.Compression = res
		return err
	}))
	g.Go(p.stage("oscillator", func() error {
		res, err := p.oscillator.Compute(ma)
		set.Oscillator = res
		return err
	}))
	g.Go(p.stage("advance_decline", func() error {
		res, err := p.advdec.Compute(idx, comp)
		set.AdvDec = res
		return err
	}))
	g.Go(p.stage("high_low", func() error {
		res, err := p.highlow.Compute(comp)
		set.HighLow = res
		return err
	}))
	g.Go(p.stage("breakout", func() error {
		res, err := p.breakout.Compute(ma)
		set.Breakout = res
		return err
	}))
	g.Go(p.stage("money_flow", func() error {
		res, err := p.moneyflow.Compute(idx, comp)
		set.MoneyFlow = res
		return err
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

func (p *IndicatorPipeline) stage(name string, fn func() error) func() error {
	return func() error {
		start := time.Now()
		if err := fn(); err != nil {
			p.recordError(name)
			return fmt.Errorf("%s: %w", name, err)
		}
		p.recordStage(name, start)
		return nil
	}
}

func (p *IndicatorPipeline) recordStage(name string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordStageDuration(name, time.Since(start).Seconds())
	}
}

func (p *IndicatorPipeline) recordError(name string) {
	if p.metrics != nil {
		p.metrics.RecordError(name)
	}
}
