package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kemski/iss-position-checker/internal/crew"
	"github.com/kemski/iss-position-checker/internal/passes"
	"github.com/kemski/iss-position-checker/internal/propagation"
	"github.com/kemski/iss-position-checker/internal/upstream"
)

// Orbit facts echoed in status payloads.
const (
	orbitMinutes      = 92
	typicalAltitudeKm = 420
)

type statusResponse struct {
	ISS    statusISS   `json:"iss"`
	People int         `json:"people_in_space"`
	Facts  statusFacts `json:"facts"`
	Home   statusHome  `json:"home"`
	TLE    *statusTLE  `json:"tle,omitempty"`
}

type statusISS struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
	SpeedKmh  *float64 `json:"speed_kmh"`
}

type statusFacts struct {
	OrbitMinutes      int `json:"iss_orbit_minutes"`
	TypicalAltitudeKm int `json:"iss_typical_altitude_km"`
}

type statusHome struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type statusTLE struct {
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetched_at"`
	Epoch      time.Time `json:"epoch"`
	AgeSeconds float64   `json:"age_seconds"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fix, err := s.deps.Position.Current(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	count, err := s.deps.Crew.Count(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := statusResponse{
		ISS: statusISS{
			Latitude:  fix.Latitude,
			Longitude: fix.Longitude,
			Timestamp: fix.Timestamp,
		},
		People: count,
		Facts: statusFacts{
			OrbitMinutes:      orbitMinutes,
			TypicalAltitudeKm: typicalAltitudeKm,
		},
		Home: statusHome{Lat: s.deps.HomeLat, Lon: s.deps.HomeLon},
	}
	if fix.HasSpeed {
		speed := fix.SpeedKmh
		resp.ISS.SpeedKmh = &speed
	}
	if set := s.deps.Store.Get(); set != nil {
		resp.TLE = &statusTLE{
			Source:     set.Source,
			FetchedAt:  set.FetchedAt,
			Epoch:      set.TLE.Epoch,
			AgeSeconds: s.deps.Store.AgeSeconds(),
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePeople(w http.ResponseWriter, r *http.Request) {
	roster, err := s.deps.Crew.Roster(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, roster)
}

func (s *Server) handlePerson(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "person id must be a positive integer"})
		return
	}
	detail, err := s.deps.Crew.Detail(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

type passesResponse struct {
	Home            statusHome       `json:"home"`
	MinElevationDeg float64          `json:"min_elevation_deg"`
	Passes          []passes.Summary `json:"passes"`
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	found, err := s.deps.Predictor.Predict(r.Context(), time.Now().UTC())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	resp := passesResponse{
		Home:            statusHome{Lat: s.deps.HomeLat, Lon: s.deps.HomeLon},
		MinElevationDeg: s.deps.Predictor.MinElevationDeg(),
		Passes:          s.deps.Predictor.Summaries(found),
	}
	if resp.Passes == nil {
		resp.Passes = []passes.Summary{}
	}
	respondJSON(w, http.StatusOK, resp)
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps domain errors onto HTTP statuses: missing person to
// 404, upstream trouble to 502, a missing element set to 503, and a
// propagation breakdown to 502 with the model's message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, crew.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, passes.ErrNoElementSet):
		status = http.StatusServiceUnavailable
	case errors.Is(err, upstream.ErrUpstream):
		status = http.StatusBadGateway
	case isPropagationError(err):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away or the request timed out mid-computation.
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		s.deps.Logger.Error("request failed",
			"component", "api",
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	respondJSON(w, status, errorBody{Error: err.Error()})
}

func isPropagationError(err error) bool {
	var derr *propagation.DecayedError
	var merr *propagation.ModelError
	return errors.As(err, &derr) || errors.As(err, &merr)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
