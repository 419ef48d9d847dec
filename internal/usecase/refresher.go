package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BreadthLab/internal/domain/models"
	domrepo "BreadthLab/internal/domain/repository"
	"BreadthLab/pkg/cache"
	applogger "BreadthLab/pkg/logger"
)

// RefreshUseCase drives one end-to-end recompute: load panels, run the
// pipeline, persist the snapshots, publish the summary, and swap the
// in-memory result the query layer serves from.
type RefreshUseCase struct {
	index     string
	history   time.Duration
	pipeline  *IndicatorPipeline
	panels    domrepo.PanelStore
	snapshots domrepo.SnapshotStore
	publisher domrepo.Publisher
	cache     cache.Service
	metrics   domrepo.Metrics
	l         *applogger.Logger

	mu     sync.RWMutex
	latest *IndicatorSet
}

func NewRefreshUseCase(
	index string,
	history time.Duration,
	pipeline *IndicatorPipeline,
	panels domrepo.PanelStore,
	snapshots domrepo.SnapshotStore,
	publisher domrepo.Publisher,
	c cache.Service,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *RefreshUseCase {
	return &RefreshUseCase{
		index:     index,
		history:   history,
		pipeline:  pipeline,
		panels:    panels,
		snapshots: snapshots,
		publisher: publisher,
		cache:     c,
		metrics:   metrics,
		l:         l,
	}
}

// Latest returns the most recent successful run, or nil before the first one.
func (uc *RefreshUseCase) Latest() *IndicatorSet {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.latest
}

// Refresh runs the full recompute. Persistence and publish failures are
// logged and counted but do not fail the run: the in-memory result is still
// swapped so the API serves fresh data.
func (uc *RefreshUseCase) Refresh(ctx context.Context) error {
	start := time.Now()
	to := time.Now().UTC()
	from := to.Add(-uc.history)

	idx, err := uc.panels.LoadIndexPanel(ctx, uc.index, from, to)
	if err != nil {
		uc.fail("load_index_panel")
		return fmt.Errorf("load index panel: %w", err)
	}
	comp, err := uc.panels.LoadComponentPanel(ctx, uc.index, from, to)
	if err != nil {
		uc.fail("load_component_panel")
		return fmt.Errorf("load component panel: %w", err)
	}

	set, err := uc.pipeline.Run(ctx, idx, comp)
	if err != nil {
		uc.fail("pipeline")
		return fmt.Errorf("pipeline: %w", err)
	}

	uc.mu.Lock()
	uc.latest = set
	uc.mu.Unlock()

	if uc.metrics != nil {
		uc.metrics.RecordRun(uc.index, "ok")
		if n := len(set.Dates); n > 0 {
			uc.metrics.RecordLastComputedDate(uc.index, set.Dates[n-1])
			uc.metrics.RecordActiveTickers(uc.index, set.ActiveCount[n-1])
		}
	}

	snap := models.SnapshotFromResults(uc.index, set.Breadth, set.AdvDec, set.ActiveCount)
	if snap != nil {
		uc.persist(ctx, set, snap)
	}

	uc.l.Info("refresh complete",
		applogger.String("index", uc.index),
		applogger.Int("dates", len(set.Dates)),
		applogger.Int("tickers", len(set.Tickers)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (uc *RefreshUseCase) persist(ctx context.Context, set *IndicatorSet, snap *models.BreadthSnapshot) {
	if uc.snapshots != nil {
		if err := uc.snapshots.StoreBreadth(ctx, uc.index, set.Breadth); err != nil {
			uc.fail("store_breadth")
			uc.l.Error("store breadth failed", applogger.Error(err))
		}
		if err := uc.snapshots.StoreLadders(ctx, uc.index, set.LadderMA); err != nil {
			uc.fail("store_ladders")
			uc.l.Error("store ladders failed", applogger.Error(err))
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishSnapshot(ctx, snap); err != nil {
			uc.fail("publish_snapshot")
			uc.l.Error("publish snapshot failed", applogger.Error(err))
		}
	}
	if uc.cache != nil {
		key := cache.SnapshotKey(uc.index)
		if err := uc.cache.Set(ctx, key, snap, cache.SnapshotTTL); err != nil {
			uc.l.Warn("cache snapshot failed", applogger.Error(err))
		}
	}
}

func (uc *RefreshUseCase) fail(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}
