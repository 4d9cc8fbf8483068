package tle

import (
	"fmt"
	"time"
)

// TLE is a decoded two-line element set. Values are stored in the units
// the format prints them in (degrees, revolutions per day); the propagator
// converts to radians per minute at initialization. Immutable once parsed.
type TLE struct {
	Name           string
	CatalogNumber  int
	Classification byte
	IntlDesignator string

	// EpochYear is the full four-digit year; EpochDay the 1-based
	// fractional day of year exactly as printed. Epoch is derived.
	EpochYear int
	EpochDay  float64
	Epoch     time.Time

	MeanMotionDot  float64 // rev/day², first derivative over two, as printed
	MeanMotionDDot float64 // rev/day³, second derivative over six, as printed
	BStar          float64 // drag term, 1/earth radii
	ElementSet     int

	Inclination  float64 // degrees
	RAAN         float64 // degrees
	Eccentricity float64
	ArgPerigee   float64 // degrees
	MeanAnomaly  float64 // degrees
	MeanMotion   float64 // rev/day
	Revolution   int
}

// Set is one fetched element set together with its provenance.
type Set struct {
	TLE       *TLE
	Source    string
	FetchedAt time.Time
}

// ParseError describes a rejected element set. Line is 1 or 2 (0 when the
// problem spans both lines), Field names the offending column group.
type ParseError struct {
	Line  int
	Field string
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("tle: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("tle: line %d, %s: %s", e.Line, e.Field, e.Msg)
}

func parseErrorf(line int, field, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Field: field, Msg: fmt.Sprintf(format, args...)}
}
