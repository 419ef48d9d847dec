package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BreadthLab/internal/domain/models"
	pkgch "BreadthLab/pkg/clickhouse"
	applogger "BreadthLab/pkg/logger"
)

var snapshotSchema = []string{
	`CREATE DATABASE IF NOT EXISTS market`,
	`CREATE TABLE IF NOT EXISTS market.breadth_snapshots (
        index_symbol LowCardinality(String),
        date         Date,
        series       LowCardinality(String),
        num_above    Float64,
        num_below    Float64,
        num_neutral  Float64,
        pct_above    Float64,
        pct_below    Float64,
        pct_neutral  Float64,
        pct_net      Float64,
        computed_at  DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(computed_at)
    ORDER BY (index_symbol, series, date)`,
	`CREATE TABLE IF NOT EXISTS market.ladder_snapshots (
        index_symbol LowCardinality(String),
        date         Date,
        kind         LowCardinality(String),
        label        LowCardinality(String),
        pct          Float64,
        computed_at  DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(computed_at)
    ORDER BY (index_symbol, kind, label, date)`,
}

// CHSnapshotStore persists indicator output to ClickHouse.
type CHSnapshotStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client) *CHSnapshotStore {
	return &CHSnapshotStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSnapshotStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, snapshotSchema)
}

func (s *CHSnapshotStore) StoreBreadth(ctx context.Context, index string, br *models.BreadthResult) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO market.breadth_snapshots
            (index_symbol, date, series, num_above, num_below, num_neutral, pct_above, pct_below, pct_neutral, pct_net)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare breadth insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, series := range br.Series {
		for i, date := range br.Dates {
			net := 0.0
			if series.PctNet != nil {
				net = series.PctNet[i]
			}
			if _, err := stmt.ExecContext(ctx,
				index, date, series.Key.String(),
				series.NumAbove[i], series.NumBelow[i], series.NumNeutral[i],
				series.PctAbove[i], series.PctBelow[i], series.PctNeutral[i], net,
			); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert breadth row: %w", err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit breadth: %w", err)
	}

	if s.l != nil {
		s.l.Info("breadth snapshots stored",
			applogger.String("index", index),
			applogger.Int("rows", n),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHSnapshotStore) StoreLadders(ctx context.Context, index string, lr *models.LadderResult) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO market.ladder_snapshots (index_symbol, date, kind, label, pct)
        VALUES (?, ?, ?, ?, ?)
    `)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare ladder insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	insert := func(rungs []models.LadderRung) error {
		for _, r := range rungs {
			for i, date := range lr.Dates {
				if _, err := stmt.ExecContext(ctx, index, date, string(lr.Kind), r.Label, r.Pct[i]); err != nil {
					return fmt.Errorf("insert ladder row: %w", err)
				}
				n++
			}
		}
		return nil
	}
	if err := insert(lr.Main); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, rungs := range lr.Minis {
		if err := insert(rungs); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ladders: %w", err)
	}

	if s.l != nil {
		s.l.Info("ladder snapshots stored",
			applogger.String("index", index),
			applogger.Int("rows", n),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHSnapshotStore) LatestComputedDate(ctx context.Context, index string) (time.Time, error) {
	const q = `
        SELECT max(date)
        FROM market.breadth_snapshots
        WHERE index_symbol = ?
    `
	var latest time.Time
	if err := s.db.QueryRowContext(ctx, q, index).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("latest computed date: %w", err)
	}
	return latest, nil
}

func (s *CHSnapshotStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHSnapshotStore) Close() error {
	return s.client.Close()
}
