package models

import "fmt"

// BreakoutCondition defines one crossing rule: a breakout fires on the first
// day the trailing Period-day return crosses above +Pct, a breakdown on the
// first day it crosses below -Pct. The crossing requirement keeps a move that
// stays beyond the threshold from re-triggering every day.
type BreakoutCondition struct {
	Period int     // lookback in trading days for the percent change
	Pct    float64 // threshold as a fraction, e.g. 0.04 for 4%
}

// Label names the condition the way its output series are keyed, e.g. "4pct_1d".
func (c BreakoutCondition) Label() string {
	return fmt.Sprintf("%dpct_%dd", int(c.Pct*100+0.5), c.Period)
}

// Validate rejects non-positive horizons and thresholds.
func (c BreakoutCondition) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("breakout condition: period must be positive, got %d", c.Period)
	}
	if c.Pct <= 0 {
		return fmt.Errorf("breakout condition: pct must be positive, got %v", c.Pct)
	}
	return nil
}

// DefaultBreakoutConditions is the classic pair: 4% in a day, 10% in a week.
func DefaultBreakoutConditions() []BreakoutCondition {
	return []BreakoutCondition{
		{Period: 1, Pct: 0.04},
		{Period: 5, Pct: 0.10},
	}
}
