package passes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kemski/iss-position-checker/internal/metrics"
	"github.com/kemski/iss-position-checker/internal/propagation"
	"github.com/kemski/iss-position-checker/internal/tle"
	"github.com/kemski/iss-position-checker/internal/transform"
)

// ErrNoElementSet is returned when prediction is requested before any
// element set has been loaded.
var ErrNoElementSet = errors.New("no element set loaded")

// Config holds the prediction parameters.
type Config struct {
	MinElevationDeg float64        // visibility threshold
	Horizon         time.Duration  // how far ahead to search
	MaxPasses       int            // truncate the result (0 = no limit)
	CoarseStep      time.Duration  // coarse scan interval
	Location        *time.Location // display zone for summaries only
}

// Predictor computes upcoming passes of the tracked satellite over a
// fixed observer. It reads the current element set from the store on
// every call, so a refresh mid-flight simply takes effect on the next
// request.
type Predictor struct {
	store    *tle.Store
	observer transform.Observer
	cfg      Config
	logger   *slog.Logger
}

// NewPredictor creates a Predictor for one observer location.
func NewPredictor(store *tle.Store, observer transform.Observer, cfg Config, logger *slog.Logger) *Predictor {
	if cfg.CoarseStep <= 0 {
		cfg.CoarseStep = defaultCoarseStep
	}
	return &Predictor{
		store:    store,
		observer: observer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Predict finds the passes starting from the given instant over the
// configured horizon. Propagation failures (decay, model breakdown)
// surface as typed errors from the propagation package.
func (p *Predictor) Predict(ctx context.Context, start time.Time) ([]Pass, error) {
	set := p.store.Get()
	if set == nil {
		return nil, ErrNoElementSet
	}

	model, err := propagation.NewModel(set.TLE)
	if err != nil {
		return nil, err
	}

	sample := func(t time.Time) (transform.LookAngle, error) {
		if err := ctx.Err(); err != nil {
			return transform.LookAngle{}, err
		}
		evalStart := time.Now()
		state, err := model.StateAt(t)
		metrics.RecordPropagation(time.Since(evalStart))
		if err != nil {
			return transform.LookAngle{}, err
		}
		ecef := transform.TEMEToECEF(state, t)
		if !transform.ValidateECEF(ecef) {
			return transform.LookAngle{}, &propagation.ModelError{
				CatalogNumber: model.CatalogNumber(),
				Reason:        "propagated position outside plausible orbit range",
			}
		}
		return transform.ComputeLookAngle(p.observer, ecef.X, ecef.Y, ecef.Z, t), nil
	}

	predStart := time.Now()
	events, err := FindEvents(sample, start.UTC(), p.cfg.Horizon, p.cfg.MinElevationDeg, p.cfg.CoarseStep)
	if err != nil {
		return nil, err
	}
	passes := BuildPasses(events, p.cfg.MaxPasses)
	elapsed := time.Since(predStart)
	metrics.RecordPassPrediction(elapsed)

	p.logger.Debug("pass prediction complete",
		"component", "passes",
		"catalog_number", set.TLE.CatalogNumber,
		"epoch_age_hours", start.Sub(set.TLE.Epoch).Hours(),
		"passes", len(passes),
		"duration_ms", elapsed.Milliseconds(),
	)
	return passes, nil
}

// MinElevationDeg exposes the configured visibility threshold.
func (p *Predictor) MinElevationDeg() float64 { return p.cfg.MinElevationDeg }

// Summaries renders passes for display in the configured zone.
func (p *Predictor) Summaries(passes []Pass) []Summary {
	out := make([]Summary, 0, len(passes))
	for _, pass := range passes {
		out = append(out, Summarize(pass, p.cfg.Location))
	}
	return out
}
