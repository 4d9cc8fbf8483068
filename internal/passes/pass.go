package passes

import (
	"fmt"
	"math"
	"time"
)

// Pass is one complete visibility interval: rise, culmination, set.
type Pass struct {
	Rise      Event
	Culminate Event
	Set       Event
}

// Duration is the time the satellite spends above the threshold.
func (p Pass) Duration() time.Duration {
	return p.Set.Look.Time.Sub(p.Rise.Look.Time)
}

// BuildPasses groups an ordered event list into passes and truncates to
// max (0 means no limit). Rise/set pairs without a culmination between
// them are skipped.
func BuildPasses(events []Event, max int) []Pass {
	var passes []Pass
	var cur Pass
	var haveRise, haveCulm bool

	for _, ev := range events {
		switch ev.Kind {
		case Rise:
			cur = Pass{Rise: ev}
			haveRise = true
			haveCulm = false
		case Culminate:
			if haveRise {
				cur.Culminate = ev
				haveCulm = true
			}
		case Set:
			if haveRise && haveCulm {
				cur.Set = ev
				passes = append(passes, cur)
				if max > 0 && len(passes) >= max {
					return passes
				}
			}
			haveRise = false
			haveCulm = false
		}
	}

	return passes
}

// compassLabels are the 8-point compass directions, 45° apart, north first.
var compassLabels = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Compass maps an azimuth in degrees to its nearest 8-point label.
// Sector boundaries fall halfway between points, so 22.4° is still N
// and 22.6° is already NE.
func Compass(azDeg float64) string {
	az := math.Mod(azDeg, 360.0)
	if az < 0 {
		az += 360.0
	}
	idx := int(az/45.0+0.5) % 8
	return compassLabels[idx]
}

// Summary is the presentation form of a pass: civil-time fields rendered
// in the service's display zone. The zone is cosmetic; all computation
// upstream of this point is UTC.
type Summary struct {
	Date         string  `json:"date"`       // DD.MM in the display zone
	From         string  `json:"from"`       // HH:MM
	To           string  `json:"to"`         // HH:MM
	Direction    string  `json:"direction"`  // e.g. "from NW to SE"
	MaxElevation float64 `json:"max_elevation"` // degrees, one decimal
	DurationSec  int     `json:"duration_seconds"`
}

// Summarize renders one pass in the given display zone.
func Summarize(p Pass, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	rise := p.Rise.Look.Time.In(loc)
	set := p.Set.Look.Time.In(loc)

	return Summary{
		Date:         rise.Format("02.01"),
		From:         rise.Format("15:04"),
		To:           set.Format("15:04"),
		Direction:    fmt.Sprintf("from %s to %s", Compass(p.Rise.Look.AzimuthDeg), Compass(p.Set.Look.AzimuthDeg)),
		MaxElevation: math.Round(p.Culminate.Look.ElevationDeg*10) / 10,
		DurationSec:  int(p.Duration().Round(time.Second).Seconds()),
	}
}
