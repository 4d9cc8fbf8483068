// Package position reports the satellite's live subpoint from the
// public position feed and estimates ground speed from consecutive fixes.
package position

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/kemski/iss-position-checker/internal/upstream"
)

// DefaultFeedURL is the open-notify live position endpoint.
const DefaultFeedURL = "http://api.open-notify.org/iss-now.json"

// earthRadiusKm is the mean radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Fix is one observation of the subpoint. SpeedKmh is the ground-track
// speed estimated against the previous fix; HasSpeed is false on the
// first observation and whenever the feed timestamp did not advance.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp int64     `json:"timestamp"`
	Time      time.Time `json:"-"`
	SpeedKmh  float64   `json:"speed_kmh,omitempty"`
	HasSpeed  bool      `json:"-"`
}

// feedPayload is the wire shape of the feed: coordinates arrive as
// decimal strings.
type feedPayload struct {
	ISSPosition struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"iss_position"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// Tracker fetches the live subpoint. The previous fix is the only
// mutable state and lives here, behind a mutex.
type Tracker struct {
	client *upstream.Client
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	last *Fix
}

// NewTracker builds a tracker for the given feed URL.
func NewTracker(client *upstream.Client, url string, logger *slog.Logger) *Tracker {
	return &Tracker{client: client, url: url, logger: logger}
}

// Current fetches a fresh fix and attaches a speed estimate computed
// from the distance to the previous fix over the feed-time elapsed.
func (t *Tracker) Current(ctx context.Context) (Fix, error) {
	var payload feedPayload
	if err := t.client.GetJSON(ctx, t.url, &payload); err != nil {
		return Fix{}, err
	}

	lat, err := strconv.ParseFloat(payload.ISSPosition.Latitude, 64)
	if err != nil {
		return Fix{}, fmt.Errorf("position feed: bad latitude %q: %w", payload.ISSPosition.Latitude, err)
	}
	lon, err := strconv.ParseFloat(payload.ISSPosition.Longitude, 64)
	if err != nil {
		return Fix{}, fmt.Errorf("position feed: bad longitude %q: %w", payload.ISSPosition.Longitude, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Fix{}, fmt.Errorf("position feed: coordinates out of range: %.4f, %.4f", lat, lon)
	}

	fix := Fix{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: payload.Timestamp,
		Time:      time.Unix(payload.Timestamp, 0).UTC(),
	}

	t.mu.Lock()
	if t.last != nil {
		dt := fix.Timestamp - t.last.Timestamp
		if dt > 0 {
			dist := HaversineKm(t.last.Latitude, t.last.Longitude, lat, lon)
			fix.SpeedKmh = dist / float64(dt) * 3600.0
			fix.HasSpeed = true
		}
	}
	t.last = &fix
	t.mu.Unlock()

	return fix, nil
}

// HaversineKm is the great-circle distance between two points given in
// degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const deg2rad = math.Pi / 180.0
	phi1 := lat1 * deg2rad
	phi2 := lat2 * deg2rad
	dphi := (lat2 - lat1) * deg2rad
	dlam := (lon2 - lon1) * deg2rad

	sinPhi := math.Sin(dphi / 2)
	sinLam := math.Sin(dlam / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLam*sinLam
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
