package crew

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kemski/iss-position-checker/internal/fetchcache"
	"github.com/kemski/iss-position-checker/internal/upstream"
)

// DefaultRosterURL is the people-in-space feed the service tracks.
const DefaultRosterURL = "https://corquaid.github.io/international-space-station-APIs/JSON/people-in-space.json"

// Service serves the cached crew roster and enriched per-person detail.
type Service struct {
	roster *fetchcache.Cache[Roster]
	wiki   *wikiClient
	logger *slog.Logger
}

// NewService builds the crew service. rosterClient and wikiClient get
// separate circuit breakers: a missing target-language article is routine
// and must not poison roster fetches.
func NewService(rosterClient, wikiUpstream *upstream.Client, rosterURL, lang string, ttl, grace time.Duration, logger *slog.Logger) *Service {
	fetch := func(ctx context.Context) (Roster, error) {
		var r Roster
		if err := rosterClient.GetJSON(ctx, rosterURL, &r); err != nil {
			return Roster{}, err
		}
		if r.Number > 0 && len(r.People) == 0 {
			return Roster{}, fmt.Errorf("roster payload claims %d people but lists none", r.Number)
		}
		return r, nil
	}
	return &Service{
		roster: fetchcache.New[Roster]("crew-roster", ttl, grace, fetch, logger),
		wiki: &wikiClient{
			client:     wikiUpstream,
			lang:       lang,
			hostFormat: defaultWikiHostFormat,
			logger:     logger,
		},
		logger: logger,
	}
}

// Roster returns the current people-in-space roster.
func (s *Service) Roster(ctx context.Context) (Roster, error) {
	return s.roster.Get(ctx)
}

// Count returns how many people are in space right now.
func (s *Service) Count(ctx context.Context) (int, error) {
	r, err := s.roster.Get(ctx)
	if err != nil {
		return 0, err
	}
	return r.Number, nil
}

// Person looks one roster entry up by id.
func (s *Service) Person(ctx context.Context, id int) (Person, error) {
	r, err := s.roster.Get(ctx)
	if err != nil {
		return Person{}, err
	}
	for _, p := range r.People {
		if p.ID == id {
			return p, nil
		}
	}
	return Person{}, ErrNotFound
}

// Detail returns a person with Wikipedia enrichment and an assembled
// plain-language blurb. Enrichment failures degrade the detail, they do
// not fail it.
func (s *Service) Detail(ctx context.Context, id int) (Detail, error) {
	p, err := s.Person(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	wiki := s.wiki.enrich(ctx, p.URL)
	if !wiki.OK {
		s.logger.Debug("wikipedia enrichment unavailable",
			"component", "crew",
			"person_id", p.ID,
			"url", p.URL,
		)
	}
	return Detail{
		Person: p,
		Wiki:   wiki,
		Blurb:  buildBlurb(p, wiki.Extract),
	}, nil
}

// maxExtractLen caps how much of the Wikipedia extract goes into the blurb.
const maxExtractLen = 420

func buildBlurb(p Person, extract string) string {
	parts := []string{p.Name + " is currently in space."}
	if p.Agency != "" {
		parts = append(parts, "They work for "+p.Agency+".")
	}
	if p.Country != "" {
		parts = append(parts, "They come from "+p.Country+".")
	}
	if p.Position != "" {
		parts = append(parts, "Their role on the mission is "+p.Position+".")
	}
	if p.Spacecraft != "" {
		parts = append(parts, "They flew up on "+p.Spacecraft+".")
	}
	if extract != "" {
		parts = append(parts, truncateAtWord(strings.TrimSpace(extract), maxExtractLen))
	}
	return strings.Join(parts, " ")
}

// truncateAtWord shortens s to at most max bytes, cutting back to the
// last full word and appending an ellipsis. When there is no space to
// cut at, the cut backs up to a rune boundary instead so the result
// stays valid UTF-8.
func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	} else {
		for max > 0 && !utf8.RuneStart(s[max]) {
			max--
		}
		cut = s[:max]
	}
	return cut + "…"
}
