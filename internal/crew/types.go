// Package crew tracks who is currently in space. It wraps the
// people-in-space JSON feed behind a TTL cache and enriches per-person
// detail with a Wikipedia summary in the configured language.
package crew

import "errors"

// ErrNotFound is returned when no person in the current roster has the
// requested id.
var ErrNotFound = errors.New("person not found")

// Person is one roster entry as the upstream feed publishes it.
type Person struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Country    string `json:"country,omitempty"`
	Agency     string `json:"agency,omitempty"`
	Position   string `json:"position,omitempty"`
	Spacecraft string `json:"spacecraft,omitempty"`
	Image      string `json:"image,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Roster is the full people-in-space payload.
type Roster struct {
	Number          int      `json:"number"`
	People          []Person `json:"people"`
	Expedition      int      `json:"iss_expedition,omitempty"`
	ExpeditionPatch string   `json:"expedition_patch,omitempty"`
}

// WikiSummary is the enrichment attached to a person detail. OK is false
// when no summary could be fetched; Link still points at the best page
// we know of.
type WikiSummary struct {
	OK        bool   `json:"ok"`
	Link      string `json:"link,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Extract   string `json:"extract,omitempty"`
}

// Detail is the enriched per-person view.
type Detail struct {
	Person
	Wiki  WikiSummary `json:"wiki"`
	Blurb string      `json:"summary"`
}
