// Package passes finds the intervals in which a satellite is visible
// above a minimum elevation from a fixed observer, and aggregates them
// into presentable passes.
package passes

import (
	"time"

	"github.com/kemski/iss-position-checker/internal/transform"
)

// EventKind classifies a visibility event.
type EventKind int

const (
	// Rise is an upward crossing of the elevation threshold.
	Rise EventKind = iota
	// Culminate is the elevation maximum between a rise and a set.
	Culminate
	// Set is a downward crossing of the elevation threshold.
	Set
)

func (k EventKind) String() string {
	switch k {
	case Rise:
		return "rise"
	case Culminate:
		return "culminate"
	case Set:
		return "set"
	}
	return "unknown"
}

// Event is one visibility event with the geometry at its refined instant.
type Event struct {
	Kind EventKind
	Look transform.LookAngle
}

// SampleFunc evaluates the observer-to-satellite look angle at an instant.
type SampleFunc func(t time.Time) (transform.LookAngle, error)

const (
	defaultCoarseStep = 30 * time.Second
	refineTolerance   = time.Second
)

// FindEvents scans [start, start+window] at coarseStep looking for
// crossings of thresholdDeg, refines each crossing to within a second by
// bisection, and inserts the culmination between each rise/set pair by
// ternary search. Events are returned in time order as alternating
// Rise, Culminate, Set triples: an unmatched leading Set (already above
// the threshold at the window start) and an unmatched trailing Rise
// (still above at the window end) are discarded.
//
// Any sampling error aborts the scan; no partial event list is returned.
func FindEvents(sample SampleFunc, start time.Time, window time.Duration, thresholdDeg float64, coarseStep time.Duration) ([]Event, error) {
	if coarseStep <= 0 {
		coarseStep = defaultCoarseStep
	}
	end := start.Add(window)

	prev, err := sample(start)
	if err != nil {
		return nil, err
	}
	prevAbove := prev.ElevationDeg >= thresholdDeg

	// Collect the threshold crossings first.
	var crossings []Event
	for t := start.Add(coarseStep); !t.After(end); t = t.Add(coarseStep) {
		cur, err := sample(t)
		if err != nil {
			return nil, err
		}
		curAbove := cur.ElevationDeg >= thresholdDeg

		if curAbove != prevAbove {
			ev, err := refineCrossing(sample, prev.Time, t, thresholdDeg, curAbove)
			if err != nil {
				return nil, err
			}
			crossings = append(crossings, ev)
		}

		prev = cur
		prevAbove = curAbove
	}

	// Drop a leading Set: the rise happened before the window opened.
	if len(crossings) > 0 && crossings[0].Kind == Set {
		crossings = crossings[1:]
	}
	// Drop a trailing Rise: the set lies beyond the window.
	if len(crossings) > 0 && crossings[len(crossings)-1].Kind == Rise {
		crossings = crossings[:len(crossings)-1]
	}

	// Insert the culmination between each rise/set pair.
	var events []Event
	for i := 0; i+1 < len(crossings); i += 2 {
		rise, set := crossings[i], crossings[i+1]
		culm, err := findCulmination(sample, rise.Look.Time, set.Look.Time)
		if err != nil {
			return nil, err
		}
		events = append(events, rise)
		if culm.Look.ElevationDeg >= thresholdDeg {
			events = append(events, culm)
		}
		events = append(events, set)
	}

	return events, nil
}

// refineCrossing bisects (lo, hi) down to a second. rising tells which
// side of the threshold the upper bound is on. The returned event is
// evaluated at the above-threshold end of the final bracket, so a rise
// or set always reports an elevation at or just above the threshold.
func refineCrossing(sample SampleFunc, lo, hi time.Time, thresholdDeg float64, rising bool) (Event, error) {
	for i := 0; i < 30 && hi.Sub(lo) > refineTolerance; i++ {
		mid := lo.Add(hi.Sub(lo) / 2)
		la, err := sample(mid)
		if err != nil {
			return Event{}, err
		}
		midAbove := la.ElevationDeg >= thresholdDeg
		// Keep the bracket endpoints on opposite sides of the threshold.
		if midAbove == rising {
			hi = mid
		} else {
			lo = mid
		}
	}

	at := hi
	kind := Rise
	if !rising {
		at = lo
		kind = Set
	}
	la, err := sample(at)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: kind, Look: la}, nil
}

// findCulmination locates the elevation maximum in [lo, hi] by ternary
// search. Elevation is unimodal between a rise and the following set for
// any orbit this service deals with.
func findCulmination(sample SampleFunc, lo, hi time.Time) (Event, error) {
	for i := 0; i < 60 && hi.Sub(lo) > refineTolerance; i++ {
		third := hi.Sub(lo) / 3
		m1 := lo.Add(third)
		m2 := hi.Add(-third)

		la1, err := sample(m1)
		if err != nil {
			return Event{}, err
		}
		la2, err := sample(m2)
		if err != nil {
			return Event{}, err
		}
		if la1.ElevationDeg < la2.ElevationDeg {
			lo = m1
		} else {
			hi = m2
		}
	}

	mid := lo.Add(hi.Sub(lo) / 2)
	la, err := sample(mid)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: Culminate, Look: la}, nil
}
