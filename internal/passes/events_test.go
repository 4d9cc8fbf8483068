package passes

import (
	"math"
	"testing"
	"time"

	"github.com/kemski/iss-position-checker/internal/transform"
)

// sineSample builds a synthetic elevation profile: a sinusoid with the
// given amplitude (degrees) and period, phase-shifted by offset. Azimuth
// sweeps linearly so direction fields stay distinguishable.
func sineSample(t0 time.Time, amplitude float64, period, offset time.Duration) SampleFunc {
	return func(t time.Time) (transform.LookAngle, error) {
		phase := 2 * math.Pi * (t.Sub(t0) + offset).Seconds() / period.Seconds()
		return transform.LookAngle{
			Time:         t,
			ElevationDeg: amplitude * math.Sin(phase),
			AzimuthDeg:   math.Mod(t.Sub(t0).Seconds()/10.0, 360.0),
			RangeKm:      1000,
		}, nil
	}
}

var eventStart = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

func TestFindEventsTwoPasses(t *testing.T) {
	// 40° amplitude, 40 min period: above 10° twice within a 70 min window.
	sample := sineSample(eventStart, 40, 40*time.Minute, 0)

	events, err := FindEvents(sample, eventStart, 70*time.Minute, 10, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 6 {
		t.Fatalf("expected 6 events (2 passes), got %d: %v", len(events), kinds(events))
	}
	wantKinds := []EventKind{Rise, Culminate, Set, Rise, Culminate, Set}
	for i, ev := range events {
		if ev.Kind != wantKinds[i] {
			t.Errorf("event %d kind = %v, want %v", i, ev.Kind, wantKinds[i])
		}
	}

	// Events must be strictly time-ordered.
	for i := 1; i < len(events); i++ {
		if !events[i-1].Look.Time.Before(events[i].Look.Time) {
			t.Errorf("events %d and %d out of order", i-1, i)
		}
	}
}

func TestFindEventsRefinement(t *testing.T) {
	// Analytic rise time: sin(x) = 10/40 at x = asin(0.25), so the rise is
	// asin(0.25)/2π of the 40 min period after start.
	sample := sineSample(eventStart, 40, 40*time.Minute, 0)

	events, err := FindEvents(sample, eventStart, 30*time.Minute, 10, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) < 3 {
		t.Fatalf("expected a full pass, got %v", kinds(events))
	}

	analyticRise := eventStart.Add(time.Duration(math.Asin(0.25) / (2 * math.Pi) * float64(40*time.Minute)))
	if d := events[0].Look.Time.Sub(analyticRise); d < -1500*time.Millisecond || d > 1500*time.Millisecond {
		t.Errorf("rise refined to %v, analytic %v (off by %v)", events[0].Look.Time, analyticRise, d)
	}

	// The reported rise elevation sits at or just above the threshold.
	if el := events[0].Look.ElevationDeg; el < 10 || el > 10.5 {
		t.Errorf("rise elevation = %.3f, want just above 10", el)
	}

	// Culmination at the sinusoid peak: quarter period, elevation ~40.
	analyticCulm := eventStart.Add(10 * time.Minute)
	if d := events[1].Look.Time.Sub(analyticCulm); d < -2*time.Second || d > 2*time.Second {
		t.Errorf("culmination refined to %v, analytic %v", events[1].Look.Time, analyticCulm)
	}
	if el := events[1].Look.ElevationDeg; math.Abs(el-40) > 0.01 {
		t.Errorf("culmination elevation = %.3f, want ~40", el)
	}
}

func TestFindEventsDropsLeadingSet(t *testing.T) {
	// Offset puts the window start mid-pass: elevation is already above
	// the threshold, so the first crossing found is a Set and must go.
	sample := sineSample(eventStart, 40, 40*time.Minute, 5*time.Minute)

	events, err := FindEvents(sample, eventStart, 55*time.Minute, 10, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	if events[0].Kind != Rise {
		t.Errorf("first event = %v, want Rise (leading Set dropped)", events[0].Kind)
	}
	if len(events)%3 != 0 {
		t.Errorf("events not in full triples: %v", kinds(events))
	}
}

func TestFindEventsDropsTrailingRise(t *testing.T) {
	// Window ends shortly after the second rise, before its set.
	sample := sineSample(eventStart, 40, 40*time.Minute, 0)

	events, err := FindEvents(sample, eventStart, 45*time.Minute, 10, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected exactly one full pass, got %v", kinds(events))
	}
	if events[len(events)-1].Kind != Set {
		t.Errorf("last event = %v, want Set (trailing Rise dropped)", events[len(events)-1].Kind)
	}
}

func TestFindEventsNearZenithCulmination(t *testing.T) {
	// Peak elevation exactly 90: the culmination must be found and sit at
	// the zenith, not above it.
	sample := sineSample(eventStart, 90, 40*time.Minute, 0)

	events, err := FindEvents(sample, eventStart, 20*time.Minute, 85, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected one full pass, got %v", kinds(events))
	}
	culm := events[1]
	if culm.Kind != Culminate {
		t.Fatalf("middle event = %v, want Culminate", culm.Kind)
	}
	if el := culm.Look.ElevationDeg; el < 89.9 || el > 90 {
		t.Errorf("culmination elevation = %.4f, want just below 90", el)
	}
}

func TestFindEventsNothingVisible(t *testing.T) {
	// Amplitude below the threshold: no events at all.
	sample := sineSample(eventStart, 5, 40*time.Minute, 0)

	events, err := FindEvents(sample, eventStart, 2*time.Hour, 10, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %v", kinds(events))
	}
}

func TestFindEventsSampleError(t *testing.T) {
	calls := 0
	sample := func(tm time.Time) (transform.LookAngle, error) {
		calls++
		if calls > 10 {
			return transform.LookAngle{}, errTest
		}
		return transform.LookAngle{Time: tm, ElevationDeg: -10}, nil
	}

	_, err := FindEvents(sample, eventStart, 2*time.Hour, 10, 30*time.Second)
	if err == nil {
		t.Fatal("expected sampling error to abort the scan")
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "sample failed" }

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}
