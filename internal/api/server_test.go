package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kemski/iss-position-checker/internal/auth"
	"github.com/kemski/iss-position-checker/internal/crew"
	"github.com/kemski/iss-position-checker/internal/passes"
	"github.com/kemski/iss-position-checker/internal/position"
	"github.com/kemski/iss-position-checker/internal/tle"
	"github.com/kemski/iss-position-checker/internal/transform"
	"github.com/kemski/iss-position-checker/internal/upstream"
)

// Real ISS element set, epoch 2025-02-14 04:19:40 UTC.
const (
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9996"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495057"
)

// freshISS reparses the fixture and moves its epoch to now, so handlers
// that predict from the wall clock stay near the element set's validity
// window no matter when the test runs.
func freshISS(t *testing.T) *tle.TLE {
	t.Helper()
	parsed, err := tle.Parse(issLine1, issLine2, "ISS (ZARYA)")
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	now := time.Now().UTC()
	parsed.Epoch = now
	parsed.EpochYear = now.Year()
	parsed.EpochDay = float64(now.YearDay()) +
		(time.Duration(now.Hour())*time.Hour +
			time.Duration(now.Minute())*time.Minute +
			time.Duration(now.Second())*time.Second).Hours()/24.0
	return parsed
}

type testEnv struct {
	server *Server
}

type envOptions struct {
	emptyStore   bool
	positionDown bool
	auth         auth.Config
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rosterSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":2,"people":[
			{"id":1,"name":"Jane Vogel","country":"Germany","agency":"ESA","position":"Flight Engineer","spacecraft":"Crew Dragon","url":"https://example.org/jane"},
			{"id":2,"name":"Li Wei","country":"China","agency":"CNSA","spacecraft":"Shenzhou"}
		],"iss_expedition":72}`)
	}))
	t.Cleanup(rosterSrv.Close)

	positionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"message":"success","timestamp":%d,"iss_position":{"latitude":"51.1000","longitude":"17.0300"}}`,
			time.Now().Unix())
	}))
	t.Cleanup(positionSrv.Close)

	store := tle.NewStore()
	if !opts.emptyStore {
		store.Put(&tle.Set{TLE: freshISS(t), Source: "test", FetchedAt: time.Now().UTC()})
	}

	observer := transform.NewObserver(52.158026, 21.558577, 100)
	predictor := passes.NewPredictor(store, observer, passes.Config{
		MinElevationDeg: 10,
		Horizon:         12 * time.Hour,
		MaxPasses:       10,
	}, logger)

	crewSvc := crew.NewService(
		upstream.New("crew-roster", 2*time.Second, logger),
		upstream.New("wikipedia", 2*time.Second, logger),
		rosterSrv.URL, "pl", time.Hour, time.Hour, logger,
	)

	posURL := positionSrv.URL
	if opts.positionDown {
		posURL = "http://127.0.0.1:1/iss-now.json"
	}
	tracker := position.NewTracker(upstream.New("position", 2*time.Second, logger), posURL, logger)

	srv := NewServer(":0", Deps{
		Logger:    logger,
		Store:     store,
		Predictor: predictor,
		Crew:      crewSvc,
		Position:  tracker,
		Auth:      opts.auth,
		HomeLat:   52.158026,
		HomeLon:   21.558577,
	})
	return &testEnv{server: srv}
}

func (e *testEnv) get(t *testing.T, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestProbes(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	if rec := env.get(t, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}
	if rec := env.get(t, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d, want 200", rec.Code)
	}
}

func TestReadyzBeforeElementSet(t *testing.T) {
	env := newTestEnv(t, envOptions{emptyStore: true})
	if rec := env.get(t, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503 before any element set", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.get(t, "/api/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}

	var resp statusResponse
	decodeBody(t, rec, &resp)
	if resp.ISS.Latitude != 51.1 || resp.ISS.Longitude != 17.03 {
		t.Errorf("position = %.4f, %.4f", resp.ISS.Latitude, resp.ISS.Longitude)
	}
	if resp.ISS.SpeedKmh != nil {
		t.Error("first status call should carry no speed estimate")
	}
	if resp.People != 2 {
		t.Errorf("people_in_space = %d, want 2", resp.People)
	}
	if resp.Facts.OrbitMinutes != 92 || resp.Facts.TypicalAltitudeKm != 420 {
		t.Errorf("facts = %+v", resp.Facts)
	}
	if resp.Home.Lat != 52.158026 {
		t.Errorf("home lat = %v", resp.Home.Lat)
	}
	if resp.TLE == nil || resp.TLE.Source != "test" {
		t.Errorf("tle block = %+v", resp.TLE)
	}
}

func TestStatusUpstreamDown(t *testing.T) {
	env := newTestEnv(t, envOptions{positionDown: true})

	rec := env.get(t, "/api/v1/status", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 when the position feed is down", rec.Code)
	}
	var body errorBody
	decodeBody(t, rec, &body)
	if body.Error == "" {
		t.Error("expected an error message in the body")
	}
}

func TestPeople(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.get(t, "/api/v1/people", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("people = %d", rec.Code)
	}
	var roster crew.Roster
	decodeBody(t, rec, &roster)
	if roster.Number != 2 || len(roster.People) != 2 {
		t.Errorf("roster = %+v", roster)
	}
	if roster.People[0].Name != "Jane Vogel" {
		t.Errorf("first person = %q", roster.People[0].Name)
	}
}

func TestPersonByID(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.get(t, "/api/v1/people/2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("person = %d, body %s", rec.Code, rec.Body)
	}
	var detail crew.Detail
	decodeBody(t, rec, &detail)
	if detail.Name != "Li Wei" {
		t.Errorf("person name = %q", detail.Name)
	}
	if detail.Blurb == "" {
		t.Error("expected an assembled blurb")
	}

	if rec := env.get(t, "/api/v1/people/99", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown person = %d, want 404", rec.Code)
	}
	if rec := env.get(t, "/api/v1/people/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad person id = %d, want 400", rec.Code)
	}
	if rec := env.get(t, "/api/v1/people/-1", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("negative person id = %d, want 400", rec.Code)
	}
}

func TestPasses(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.get(t, "/api/v1/passes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("passes = %d, body %s", rec.Code, rec.Body)
	}
	var resp passesResponse
	decodeBody(t, rec, &resp)
	if resp.MinElevationDeg != 10 {
		t.Errorf("min_elevation_deg = %v", resp.MinElevationDeg)
	}
	if resp.Passes == nil {
		t.Error("passes must be a list, not null")
	}
	for i, s := range resp.Passes {
		if s.Date == "" || s.From == "" || s.To == "" || s.DurationSec <= 0 {
			t.Errorf("summary %d incomplete: %+v", i, s)
		}
	}
}

func TestPassesWithoutElementSet(t *testing.T) {
	env := newTestEnv(t, envOptions{emptyStore: true})

	rec := env.get(t, "/api/v1/passes", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("passes = %d, want 503 without an element set", rec.Code)
	}
}

func TestAuthEnforcement(t *testing.T) {
	env := newTestEnv(t, envOptions{
		auth: auth.Config{Enabled: true, Token: "sekrit"},
	})

	if rec := env.get(t, "/api/v1/people", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", rec.Code)
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer wrong")
	if rec := env.get(t, "/api/v1/people", h); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", rec.Code)
	}

	h.Set("Authorization", "Bearer sekrit")
	if rec := env.get(t, "/api/v1/people", h); rec.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", rec.Code)
	}

	// Probes and metrics stay public.
	if rec := env.get(t, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz with auth on = %d, want 200", rec.Code)
	}
	if rec := env.get(t, "/metrics", nil); rec.Code != http.StatusOK {
		t.Errorf("metrics with auth on = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.get(t, "/healthz", nil)

	rec := env.get(t, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty metrics exposition")
	}
}
