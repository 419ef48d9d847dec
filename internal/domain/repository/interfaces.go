package repository

import (
	"context"
	"time"

	"BreadthLab/internal/domain/models"
)

// PanelStore loads the aligned input panels for one index universe.
type PanelStore interface {
	LoadIndexPanel(ctx context.Context, index string, from, to time.Time) (*models.PricePanel, error)
	LoadComponentPanel(ctx context.Context, index string, from, to time.Time) (*models.ComponentPanel, error)
	Health(ctx context.Context) error
	Close() error
}

// SnapshotStore persists computed indicator rows.
type SnapshotStore interface {
	Init(ctx context.Context) error // ensure tables
	StoreBreadth(ctx context.Context, index string, br *models.BreadthResult) error
	StoreLadders(ctx context.Context, index string, lr *models.LadderResult) error
	LatestComputedDate(ctx context.Context, index string) (time.Time, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher fans the per-run snapshot out to downstream consumers.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap *models.BreadthSnapshot) error
	Close() error
}

// Metrics is the instrumentation surface the pipeline reports through.
type Metrics interface {
	RecordRun(index, status string)
	RecordStageDuration(stage string, seconds float64)
	RecordError(kind string)
	RecordLastComputedDate(index string, ts time.Time)
	RecordActiveTickers(index string, n int)
}
