package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"BreadthLab/internal/domain/models"
	pkgch "BreadthLab/pkg/clickhouse"
	applogger "BreadthLab/pkg/logger"
)

// CHPanelStore loads price panels from ClickHouse EOD tables.
type CHPanelStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHPanelStore(ch *pkgch.Client) *CHPanelStore {
	return &CHPanelStore{client: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHPanelStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPanelStore) LoadIndexPanel(ctx context.Context, index string, from, to time.Time) (*models.PricePanel, error) {
	start := time.Now()
	const q = `
        SELECT date, adj_close, volume, high, low
        FROM market.eod_index
        WHERE index_symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, index, from, to)
	if err != nil {
		s.logErr("clickhouse index panel query error", index, err)
		return nil, fmt.Errorf("load index panel: %w", err)
	}
	defer rows.Close()

	panel := &models.PricePanel{}
	for rows.Next() {
		var (
			date                  time.Time
			close, vol, high, low float64
		)
		if err := rows.Scan(&date, &close, &vol, &high, &low); err != nil {
			s.logErr("clickhouse index panel scan error", index, err)
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		panel.Dates = append(panel.Dates, date)
		panel.AdjClose = append(panel.AdjClose, sanitize(close))
		panel.Volume = append(panel.Volume, vol)
		panel.High = append(panel.High, sanitize(high))
		panel.Low = append(panel.Low, sanitize(low))
	}
	if err := rows.Err(); err != nil {
		s.logErr("clickhouse index panel rows error", index, err)
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("index panel loaded",
			applogger.String("index", index),
			applogger.Int("rows", panel.Len()),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return panel, nil
}

func (s *CHPanelStore) LoadComponentPanel(ctx context.Context, index string, from, to time.Time) (*models.ComponentPanel, error) {
	start := time.Now()
	const q = `
        SELECT date, ticker, adj_close, volume, high, low
        FROM market.eod_components
        WHERE index_symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC, ticker ASC
    `
	rows, err := s.db.QueryContext(ctx, q, index, from, to)
	if err != nil {
		s.logErr("clickhouse component panel query error", index, err)
		return nil, fmt.Errorf("load component panel: %w", err)
	}
	defer rows.Close()

	type cell struct {
		close, vol, high, low float64
	}
	byDate := make(map[time.Time]map[string]cell)
	var dates []time.Time
	tickerSet := make(map[string]struct{})
	var tickers []string

	for rows.Next() {
		var (
			date                  time.Time
			ticker                string
			close, vol, high, low float64
		)
		if err := rows.Scan(&date, &ticker, &close, &vol, &high, &low); err != nil {
			s.logErr("clickhouse component panel scan error", index, err)
			return nil, fmt.Errorf("scan component row: %w", err)
		}
		if _, ok := byDate[date]; !ok {
			byDate[date] = make(map[string]cell)
			dates = append(dates, date)
		}
		byDate[date][ticker] = cell{close: close, vol: vol, high: high, low: low}
		if _, ok := tickerSet[ticker]; !ok {
			tickerSet[ticker] = struct{}{}
			tickers = append(tickers, ticker)
		}
	}
	if err := rows.Err(); err != nil {
		s.logErr("clickhouse component panel rows error", index, err)
		return nil, fmt.Errorf("rows: %w", err)
	}

	closeFr := models.NewFrame(dates, tickers)
	volFr := models.NewFrame(dates, tickers)
	highFr := models.NewFrame(dates, tickers)
	lowFr := models.NewFrame(dates, tickers)
	for i, d := range dates {
		row := byDate[d]
		for t, ticker := range tickers {
			c, ok := row[ticker]
			if !ok {
				continue // stays NaN: ticker not listed that day
			}
			closeFr.Set(i, t, sanitize(c.close))
			volFr.Set(i, t, c.vol)
			highFr.Set(i, t, sanitize(c.high))
			lowFr.Set(i, t, sanitize(c.low))
		}
	}

	if s.l != nil {
		s.l.Info("component panel loaded",
			applogger.String("index", index),
			applogger.Int("rows", len(dates)),
			applogger.Int("tickers", len(tickers)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return &models.ComponentPanel{
		Dates:   dates,
		Tickers: tickers,
		Fields: map[models.Field]*models.Frame{
			models.FieldAdjClose: closeFr,
			models.FieldVolume:   volFr,
			models.FieldHigh:     highFr,
			models.FieldLow:      lowFr,
		},
	}, nil
}

func (s *CHPanelStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHPanelStore) Close() error {
	return s.client.Close()
}

func (s *CHPanelStore) logErr(msg, index string, err error) {
	if s.l != nil {
		s.l.Error(msg, applogger.String("index", index), applogger.Error(err))
	}
}

// sanitize replaces zero-value sentinel closes with NaN so downstream math
// treats them as missing rather than as a real zero price.
func sanitize(v float64) float64 {
	if v <= 0 {
		return math.NaN()
	}
	return v
}
