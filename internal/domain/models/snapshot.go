package models

import (
	"math"
	"sort"
	"time"
)

// NullableFloat maps NaN to nil for JSON and storage boundaries. encoding/json
// refuses NaN outright, so every outbound float crosses through this.
func NullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// SnapshotEntry is the last-date reading for one (kind, window) series.
type SnapshotEntry struct {
	Series     string   `json:"series"`
	PctAbove   *float64 `json:"pct_above"`
	PctBelow   *float64 `json:"pct_below"`
	PctNeutral *float64 `json:"pct_neutral"`
	PctNet     *float64 `json:"pct_net,omitempty"`
}

// BreadthSnapshot is the compact per-run summary published to Kafka and kept
// hot in cache: the latest date's breadth readings plus headline stats.
type BreadthSnapshot struct {
	IndexSymbol string          `json:"index"`
	Date        time.Time       `json:"date"`
	ActiveCount int             `json:"active_count"`
	Entries     []SnapshotEntry `json:"entries"`
	Advancing   *float64        `json:"advancing,omitempty"`
	Declining   *float64        `json:"declining,omitempty"`
	TRIN        *float64        `json:"trin,omitempty"`
	McClellan   *float64        `json:"mcclellan,omitempty"`
	ComputedAt  time.Time       `json:"computed_at"`
}

// SnapshotFromResults assembles the publishable summary for the latest date.
// Returns nil when the run produced no rows.
func SnapshotFromResults(index string, br *BreadthResult, ad *AdvanceDeclineResult, active []int) *BreadthSnapshot {
	n := len(br.Dates)
	if n == 0 {
		return nil
	}
	last := n - 1

	snap := &BreadthSnapshot{
		IndexSymbol: index,
		Date:        br.Dates[last],
		ComputedAt:  time.Now().UTC(),
	}
	if last < len(active) {
		snap.ActiveCount = active[last]
	}
	for _, s := range br.Series {
		e := SnapshotEntry{
			Series:     s.Key.String(),
			PctAbove:   NullableFloat(s.PctAbove[last]),
			PctBelow:   NullableFloat(s.PctBelow[last]),
			PctNeutral: NullableFloat(s.PctNeutral[last]),
		}
		if s.PctNet != nil {
			e.PctNet = NullableFloat(s.PctNet[last])
		}
		snap.Entries = append(snap.Entries, e)
	}
	sort.Slice(snap.Entries, func(i, j int) bool { return snap.Entries[i].Series < snap.Entries[j].Series })
	if ad != nil && len(ad.Dates) == n {
		snap.Advancing = NullableFloat(ad.Advancing[last])
		snap.Declining = NullableFloat(ad.Declining[last])
		snap.TRIN = NullableFloat(ad.TRIN[last])
		snap.McClellan = NullableFloat(ad.McClellan[last])
	}
	return snap
}
