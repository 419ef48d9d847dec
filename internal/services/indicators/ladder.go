package indicators

import (
	"fmt"
	"math"
	"strings"

	"BreadthLab/internal/domain/models"
)

// MissingWindowError reports an MA series absent from the upstream result.
// Aggregators never compute fallbacks for a missing window; the pipeline is
// misconfigured and the caller must know.
type MissingWindowError struct {
	Key models.SeriesKey
}

func (e *MissingWindowError) Error() string {
	return fmt.Sprintf("upstream result is missing series %s", e.Key)
}

// LadderAggregator measures, per date, the share of tickers whose averages are
// stacked in strict ascending-period order under the price: price > V5,
// price > V5 > V12, and so on through every prefix of the window chain. The
// main ladder spans the whole window set; each group also gets a mini ladder
// over just its own periods.
type LadderAggregator struct {
	windows models.WindowSet
	kind    models.Kind
}

func NewLadderAggregator(ws models.WindowSet, kind models.Kind) *LadderAggregator {
	return &LadderAggregator{windows: ws, kind: kind}
}

// Compute builds the main and mini ladders from a moving-average result.
func (a *LadderAggregator) Compute(ma *models.MAResult) (*models.LadderResult, error) {
	if ma.PanelClose == nil {
		return nil, &models.MissingFieldError{Field: models.FieldAdjClose}
	}

	main, err := a.chain(ma, a.windows.All(), "")
	if err != nil {
		return nil, err
	}

	minis := make(map[models.Group][]models.LadderRung)
	for _, g := range a.windows.Groups() {
		rungs, err := a.chain(ma, a.windows.Group(g), "mini")
		if err != nil {
			return nil, err
		}
		minis[g] = rungs
	}

	return &models.LadderResult{
		Dates: ma.Dates,
		Kind:  a.kind,
		Main:  main,
		Minis: minis,
	}, nil
}

// chain evaluates every prefix of the given window order. Prefix k requires
// price > avg[w0] > avg[w1] > ... > avg[wk], all legs strict. A NaN anywhere
// in the chain fails the condition for that ticker.
func (a *LadderAggregator) chain(ma *models.MAResult, windows []int, prefix string) ([]models.LadderRung, error) {
	frames := make([]*models.Frame, len(windows))
	for i, w := range windows {
		key := models.SeriesKey{Kind: a.kind, Window: w}
		fr, ok := ma.PanelSeries(key)
		if !ok {
			return nil, &MissingWindowError{Key: key}
		}
		frames[i] = fr
	}

	n := len(ma.Dates)
	rungs := make([]models.LadderRung, len(windows))
	for k := range windows {
		rungs[k] = models.LadderRung{
			Label:   ladderLabel(prefix, windows[:k+1]),
			Windows: append([]int(nil), windows[:k+1]...),
			Pct:     nanSlice(n),
		}
	}

	for i := 0; i < n; i++ {
		counts := make([]int, len(windows))
		for t := range ma.Tickers {
			price := ma.PanelClose.At(i, t)
			if math.IsNaN(price) {
				continue
			}
			upper := price
			for k, fr := range frames {
				v := fr.At(i, t)
				if math.IsNaN(v) || !(upper > v) {
					break
				}
				counts[k]++
				upper = v
			}
		}
		active := ma.ActiveCount[i]
		if active == 0 {
			continue
		}
		for k := range windows {
			rungs[k].Pct[i] = float64(counts[k]) / float64(active) * 100.0
		}
	}
	return rungs, nil
}

// ladderLabel renders the chain in the dashboard's column notation,
// e.g. "$>V5>V12" or "mini$>V40>V80".
func ladderLabel(prefix string, windows []int) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString("$")
	for _, w := range windows {
		fmt.Fprintf(&b, ">V%d", w)
	}
	return b.String()
}
