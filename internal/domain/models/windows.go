package models

import (
	"fmt"
	"sort"
)

// Group names a window family. Group membership decides which windows join a
// mini ladder and which compression sums roll up together.
type Group string

const (
	GroupShort  Group = "short"
	GroupMedium Group = "medium"
	GroupLong   Group = "long"
)

// WindowSet is the immutable set of lookback lengths (trading days) the whole
// pipeline runs on, partitioned into short/medium/long families. Construct it
// once and pass it by value; there is no shared mutable window state anywhere.
type WindowSet struct {
	short  []int
	medium []int
	long   []int
	all    []int
}

// NewWindowSet builds and validates a window set. Each group must be strictly
// ascending with positive periods, and no period may appear in two groups.
func NewWindowSet(short, medium, long []int) (WindowSet, error) {
	groups := map[Group][]int{GroupShort: short, GroupMedium: medium, GroupLong: long}
	seen := make(map[int]Group)
	for _, g := range []Group{GroupShort, GroupMedium, GroupLong} {
		periods := groups[g]
		if len(periods) == 0 {
			return WindowSet{}, fmt.Errorf("window group %q is empty", string(g))
		}
		prev := 0
		for _, w := range periods {
			if w <= 0 {
				return WindowSet{}, fmt.Errorf("window group %q has non-positive period %d", string(g), w)
			}
			if w <= prev {
				return WindowSet{}, fmt.Errorf("window group %q is not strictly ascending at %d", string(g), w)
			}
			if other, dup := seen[w]; dup {
				return WindowSet{}, fmt.Errorf("period %d appears in both %q and %q", w, string(other), string(g))
			}
			seen[w] = g
			prev = w
		}
	}

	ws := WindowSet{
		short:  append([]int(nil), short...),
		medium: append([]int(nil), medium...),
		long:   append([]int(nil), long...),
	}
	ws.all = append(append(append([]int(nil), short...), medium...), long...)
	sort.Ints(ws.all)
	return ws, nil
}

// DefaultWindowSet mirrors the classic Bovespa breadth study configuration.
func DefaultWindowSet() WindowSet {
	ws, err := NewWindowSet([]int{5, 12, 25}, []int{40, 80}, []int{50, 100, 200})
	if err != nil {
		panic(err) // static input, cannot fail
	}
	return ws
}

// All returns every period, ascending.
func (ws WindowSet) All() []int { return append([]int(nil), ws.all...) }

// Group returns the periods of one family, in configured (ascending) order.
func (ws WindowSet) Group(g Group) []int {
	switch g {
	case GroupShort:
		return append([]int(nil), ws.short...)
	case GroupMedium:
		return append([]int(nil), ws.medium...)
	case GroupLong:
		return append([]int(nil), ws.long...)
	}
	return nil
}

// Groups lists the families in short/medium/long order.
func (ws WindowSet) Groups() []Group {
	return []Group{GroupShort, GroupMedium, GroupLong}
}

// Max returns the longest period in the set.
func (ws WindowSet) Max() int {
	if len(ws.all) == 0 {
		return 0
	}
	return ws.all[len(ws.all)-1]
}

// Contains reports whether w is a configured period.
func (ws WindowSet) Contains(w int) bool {
	for _, p := range ws.all {
		if p == w {
			return true
		}
	}
	return false
}
