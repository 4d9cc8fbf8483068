package passes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kemski/iss-position-checker/internal/tle"
	"github.com/kemski/iss-position-checker/internal/transform"
)

// Real ISS element set, epoch 2025-02-14 04:19:40 UTC.
const (
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9996"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495057"
)

var predictStart = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

func issStore(t *testing.T) *tle.Store {
	t.Helper()
	parsed, err := tle.Parse(issLine1, issLine2, "ISS (ZARYA)")
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	store := tle.NewStore()
	store.Put(&tle.Set{TLE: parsed, Source: "test", FetchedAt: predictStart})
	return store
}

func warsawPredictor(t *testing.T, cfg Config) *Predictor {
	t.Helper()
	observer := transform.NewObserver(52.158026, 21.558577, 100)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPredictor(issStore(t), observer, cfg, logger)
}

func TestPredictISSOverWarsaw(t *testing.T) {
	p := warsawPredictor(t, Config{
		MinElevationDeg: 10,
		Horizon:         48 * time.Hour,
		MaxPasses:       10,
	})

	passes, err := p.Predict(context.Background(), predictStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The ISS passes over central Europe several times in any 48 h window.
	if len(passes) == 0 {
		t.Fatal("expected at least one pass in 48 hours")
	}
	if len(passes) > 10 {
		t.Fatalf("got %d passes, cap is 10", len(passes))
	}

	end := predictStart.Add(48 * time.Hour)
	var prevSet time.Time
	for i, pass := range passes {
		rise, culm, set := pass.Rise.Look, pass.Culminate.Look, pass.Set.Look

		if !rise.Time.Before(culm.Time) || !culm.Time.Before(set.Time) {
			t.Errorf("pass %d events out of order: %v / %v / %v", i, rise.Time, culm.Time, set.Time)
		}
		if rise.Time.Before(predictStart) || set.Time.After(end) {
			t.Errorf("pass %d outside the requested window", i)
		}
		if !prevSet.IsZero() && !prevSet.Before(rise.Time) {
			t.Errorf("pass %d overlaps the previous pass", i)
		}
		prevSet = set.Time

		// Rise and set sit at the visibility threshold.
		if rise.ElevationDeg < 10 || rise.ElevationDeg > 10.75 {
			t.Errorf("pass %d rise elevation = %.3f, want ~10", i, rise.ElevationDeg)
		}
		if set.ElevationDeg < 10 || set.ElevationDeg > 10.75 {
			t.Errorf("pass %d set elevation = %.3f, want ~10", i, set.ElevationDeg)
		}
		if culm.ElevationDeg < rise.ElevationDeg {
			t.Errorf("pass %d culmination below rise elevation", i)
		}
		if culm.ElevationDeg > 90 {
			t.Errorf("pass %d culmination = %.1f, above zenith", i, culm.ElevationDeg)
		}

		// A 10°-threshold ISS pass lasts a couple of minutes, never more
		// than ~10.
		if d := pass.Duration(); d < 30*time.Second || d > 10*time.Minute {
			t.Errorf("pass %d duration = %v, implausible for the ISS", i, d)
		}
	}
}

func TestPredictMaxPassesCap(t *testing.T) {
	p := warsawPredictor(t, Config{
		MinElevationDeg: 10,
		Horizon:         48 * time.Hour,
		MaxPasses:       1,
	})

	passes, err := p.Predict(context.Background(), predictStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passes) != 1 {
		t.Errorf("got %d passes with cap 1, want 1", len(passes))
	}
}

func TestPredictZenithThreshold(t *testing.T) {
	// A 90° threshold means only a mathematically perfect overhead pass
	// qualifies; no real geometry reaches it.
	p := warsawPredictor(t, Config{
		MinElevationDeg: 90,
		Horizon:         48 * time.Hour,
	})

	passes, err := p.Predict(context.Background(), predictStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passes) != 0 {
		t.Errorf("got %d passes at a 90° threshold, want none", len(passes))
	}
}

func TestPredictEmptyStore(t *testing.T) {
	observer := transform.NewObserver(52.158026, 21.558577, 100)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPredictor(tle.NewStore(), observer, Config{
		MinElevationDeg: 10,
		Horizon:         48 * time.Hour,
	}, logger)

	_, err := p.Predict(context.Background(), predictStart)
	if !errors.Is(err, ErrNoElementSet) {
		t.Fatalf("expected ErrNoElementSet, got %v", err)
	}
}

func TestPredictCancelledContext(t *testing.T) {
	p := warsawPredictor(t, Config{
		MinElevationDeg: 10,
		Horizon:         48 * time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Predict(ctx, predictStart)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSummariesInWarsawZone(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("loading zone: %v", err)
	}
	p := warsawPredictor(t, Config{
		MinElevationDeg: 10,
		Horizon:         48 * time.Hour,
		MaxPasses:       10,
		Location:        warsaw,
	})

	passes, err := p.Predict(context.Background(), predictStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sums := p.Summaries(passes)
	if len(sums) != len(passes) {
		t.Fatalf("got %d summaries for %d passes", len(sums), len(passes))
	}
	for i, s := range sums {
		localRise := passes[i].Rise.Look.Time.In(warsaw)
		if want := localRise.Format("02.01"); s.Date != want {
			t.Errorf("summary %d date = %q, want %q", i, s.Date, want)
		}
		if want := localRise.Format("15:04"); s.From != want {
			t.Errorf("summary %d from = %q, want %q", i, s.From, want)
		}
		if s.DurationSec <= 0 {
			t.Errorf("summary %d duration = %d, want positive", i, s.DurationSec)
		}
	}
}
