package tle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kemski/iss-position-checker/internal/upstream"
)

// Feed keeps the Store loaded with the current ISS element set. The
// upstream endpoint returns JSON {name, line1, line2}; every successful
// refresh is snapshotted to the disk cache.
type Feed struct {
	client *upstream.Client
	url    string
	store  *Store
	cache  *Cache
	logger *slog.Logger
}

// feedPayload is the JSON body of the element set endpoint.
type feedPayload struct {
	Name  string `json:"name"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// NewFeed creates a Feed for the given endpoint.
func NewFeed(client *upstream.Client, url string, store *Store, cache *Cache, logger *slog.Logger) *Feed {
	return &Feed{
		client: client,
		url:    url,
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Bootstrap loads the newest disk snapshot into the store, then refreshes
// from upstream when the snapshot is older than ttl or absent. A failed
// refresh on top of a loaded snapshot is not an error; the stale set
// keeps serving.
func (f *Feed) Bootstrap(ctx context.Context, ttl time.Duration) error {
	t, ts, err := f.cache.LoadLatest()
	if err != nil {
		f.logger.Info("no element set cache, fetching from upstream", "error", err)
		return f.Refresh(ctx)
	}

	f.store.Put(&Set{TLE: t, Source: "cache", FetchedAt: ts})
	f.logger.Info("loaded element set from cache",
		"component", "tle",
		"catalog_number", t.CatalogNumber,
		"epoch", t.Epoch.Format(time.RFC3339),
		"cached_at", ts.Format(time.RFC3339),
	)

	if time.Since(ts) < ttl {
		return nil
	}
	if err := f.Refresh(ctx); err != nil {
		f.logger.Warn("refresh after stale cache load failed, keeping cached set", "error", err)
	}
	return nil
}

// Refresh fetches the element set from upstream, parses it, swaps it into
// the store, and snapshots it to disk. Refreshes are serialized by the
// store's fetch mutex.
func (f *Feed) Refresh(ctx context.Context) error {
	f.store.Lock()
	defer f.store.Unlock()

	var payload feedPayload
	if err := f.client.GetJSON(ctx, f.url, &payload); err != nil {
		return err
	}

	t, err := Parse(payload.Line1, payload.Line2, payload.Name)
	if err != nil {
		return fmt.Errorf("upstream element set rejected: %w", err)
	}

	now := time.Now().UTC()
	f.store.Put(&Set{TLE: t, Source: f.url, FetchedAt: now})

	if err := f.cache.Write(t, now); err != nil {
		f.logger.Warn("element set cache write failed", "error", err)
	}

	f.logger.Info("element set refreshed",
		"component", "tle",
		"catalog_number", t.CatalogNumber,
		"epoch", t.Epoch.Format(time.RFC3339),
		"element_set", t.ElementSet,
	)
	return nil
}
