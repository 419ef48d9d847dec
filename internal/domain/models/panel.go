package models

import (
	"fmt"
	"math"
	"time"
)

// Field names a per-ticker price field in a ComponentPanel.
type Field string

const (
	FieldAdjClose Field = "AdjClose"
	FieldVolume   Field = "Volume"
	FieldHigh     Field = "High"
	FieldLow      Field = "Low"
)

// MissingFieldError reports a required field absent from a panel.
type MissingFieldError struct {
	Field Field
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("panel is missing required field %q", string(e.Field))
}

// PricePanel holds the index-level series. One row per trading day, ordered by
// date. High and Low are optional; only the money-flow stage needs them.
// Downstream stages never mutate the panel; they work on derived copies.
type PricePanel struct {
	Dates    []time.Time
	AdjClose []float64
	Volume   []float64
	High     []float64
	Low      []float64
}

func (p *PricePanel) Len() int { return len(p.Dates) }

func (p *PricePanel) Validate() error {
	if p.AdjClose == nil {
		return &MissingFieldError{Field: FieldAdjClose}
	}
	if p.Volume == nil {
		return &MissingFieldError{Field: FieldVolume}
	}
	if len(p.AdjClose) != len(p.Dates) || len(p.Volume) != len(p.Dates) {
		return fmt.Errorf("price panel is ragged: %d dates, %d closes, %d volumes",
			len(p.Dates), len(p.AdjClose), len(p.Volume))
	}
	if p.High != nil && len(p.High) != len(p.Dates) {
		return fmt.Errorf("price panel is ragged: %d dates, %d highs", len(p.Dates), len(p.High))
	}
	if p.Low != nil && len(p.Low) != len(p.Dates) {
		return fmt.Errorf("price panel is ragged: %d dates, %d lows", len(p.Dates), len(p.Low))
	}
	return nil
}

// HasRange reports whether the optional High/Low series are populated.
func (p *PricePanel) HasRange() bool {
	return len(p.High) == len(p.Dates) && len(p.Low) == len(p.Dates) && p.High != nil
}

// Truncate returns a copy containing only the first n rows.
func (p *PricePanel) Truncate(n int) *PricePanel {
	if n > p.Len() {
		n = p.Len()
	}
	out := &PricePanel{
		Dates:    make([]time.Time, n),
		AdjClose: make([]float64, n),
		Volume:   make([]float64, n),
	}
	copy(out.Dates, p.Dates[:n])
	copy(out.AdjClose, p.AdjClose[:n])
	copy(out.Volume, p.Volume[:n])
	if p.High != nil {
		out.High = append([]float64(nil), p.High[:min(n, len(p.High))]...)
	}
	if p.Low != nil {
		out.Low = append([]float64(nil), p.Low[:min(n, len(p.Low))]...)
	}
	return out
}

// Frame is a date x ticker matrix of float64 values. NaN marks missing
// observations (not yet listed, delisted, or no trade that day).
type Frame struct {
	Dates   []time.Time
	Tickers []string
	Data    [][]float64 // Data[dateIdx][tickerIdx]
}

// NewFrame allocates a NaN-filled frame over the given axes.
func NewFrame(dates []time.Time, tickers []string) *Frame {
	data := make([][]float64, len(dates))
	for i := range data {
		row := make([]float64, len(tickers))
		for j := range row {
			row[j] = math.NaN()
		}
		data[i] = row
	}
	return &Frame{Dates: dates, Tickers: tickers, Data: data}
}

func (f *Frame) Len() int                        { return len(f.Dates) }
func (f *Frame) At(date, ticker int) float64     { return f.Data[date][ticker] }
func (f *Frame) Set(date, ticker int, v float64) { f.Data[date][ticker] = v }

// Column returns a copy of one ticker's series.
func (f *Frame) Column(ticker int) []float64 {
	out := make([]float64, len(f.Dates))
	for i := range f.Data {
		out[i] = f.Data[i][ticker]
	}
	return out
}

// SetColumn writes a full series for one ticker.
func (f *Frame) SetColumn(ticker int, vals []float64) {
	for i := range f.Data {
		f.Data[i][ticker] = vals[i]
	}
}

// Truncate returns a copy containing only the first n rows.
func (f *Frame) Truncate(n int) *Frame {
	if n > len(f.Dates) {
		n = len(f.Dates)
	}
	out := NewFrame(f.Dates[:n], f.Tickers)
	for i := 0; i < n; i++ {
		copy(out.Data[i], f.Data[i])
	}
	return out
}

// ComponentPanel is the two-level (field x ticker) table: one Frame per field,
// all sharing the same date and ticker axes.
type ComponentPanel struct {
	Dates   []time.Time
	Tickers []string
	Fields  map[Field]*Frame
}

// Field returns the frame for a field, or a MissingFieldError.
func (p *ComponentPanel) Field(f Field) (*Frame, error) {
	fr, ok := p.Fields[f]
	if !ok || fr == nil {
		return nil, &MissingFieldError{Field: f}
	}
	return fr, nil
}

func (p *ComponentPanel) Len() int        { return len(p.Dates) }
func (p *ComponentPanel) NumTickers() int { return len(p.Tickers) }

func (p *ComponentPanel) Validate() error {
	for _, required := range []Field{FieldAdjClose, FieldVolume} {
		if _, err := p.Field(required); err != nil {
			return err
		}
	}
	for name, fr := range p.Fields {
		if len(fr.Dates) != len(p.Dates) || len(fr.Tickers) != len(p.Tickers) {
			return fmt.Errorf("component panel field %q is misaligned: %dx%d frame on %dx%d panel",
				string(name), len(fr.Dates), len(fr.Tickers), len(p.Dates), len(p.Tickers))
		}
	}
	return nil
}

// ActiveCounts returns, per date, the number of tickers with a non-NaN
// adjusted close. This is the breadth denominator: it tracks listings and
// delistings instead of assuming a static universe size.
func (p *ComponentPanel) ActiveCounts() ([]int, error) {
	closeFr, err := p.Field(FieldAdjClose)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(p.Dates))
	for i, row := range closeFr.Data {
		n := 0
		for _, v := range row {
			if !math.IsNaN(v) {
				n++
			}
		}
		out[i] = n
	}
	return out, nil
}

// Truncate returns a copy containing only the first n rows of every field.
func (p *ComponentPanel) Truncate(n int) *ComponentPanel {
	if n > p.Len() {
		n = p.Len()
	}
	fields := make(map[Field]*Frame, len(p.Fields))
	for name, fr := range p.Fields {
		fields[name] = fr.Truncate(n)
	}
	return &ComponentPanel{Dates: p.Dates[:n], Tickers: p.Tickers, Fields: fields}
}
