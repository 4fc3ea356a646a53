// Package sites holds the per-site HTML extractors. Each source website has
// distinct markup; every extractor implements the same capability: given
// page content, produce raw listings and a next-page pointer.
package sites

import (
	"github.com/rotisserie/eris"

	"github.com/propscout/propscout/internal/model"
)

// Page is the outcome of extracting one fetched page.
type Page struct {
	Listings []model.RawListing

	// Next points at the following result page, nil when exhausted.
	Next *model.FetchRequest

	// Skipped counts listing blocks dropped for missing required fields.
	Skipped int
}

// Extractor parses one site's pages. Implementations must tolerate partial
// or malformed markup: a bad page yields an empty Page, never a panic or an
// error that could abort the run.
type Extractor interface {
	Site() model.SiteID

	// SearchURL builds the city search URL for the given 1-based page.
	SearchURL(city string, page int) string

	// Extract parses a fetched page. Non-Ok results and unparseable bodies
	// yield an empty Page.
	Extract(res model.FetchResult) Page
}

// Registry maps site IDs to extractors, preserving the fixed site iteration
// order that keeps dedup tie-breaks deterministic.
type Registry struct {
	order      []model.SiteID
	extractors map[model.SiteID]Extractor
}

// NewRegistry returns a registry of all production extractors.
func NewRegistry() *Registry {
	return NewRegistryOf(
		NewMagicbricks(""),
		NewMakaan(""),
		NewCommonfloor(""),
	)
}

// NewRegistryOf builds a registry from explicit extractors, in order.
func NewRegistryOf(exts ...Extractor) *Registry {
	r := &Registry{extractors: make(map[model.SiteID]Extractor, len(exts))}
	for _, e := range exts {
		if _, dup := r.extractors[e.Site()]; dup {
			continue
		}
		r.order = append(r.order, e.Site())
		r.extractors[e.Site()] = e
	}
	return r
}

// Get returns the extractor for a site.
func (r *Registry) Get(id model.SiteID) (Extractor, bool) {
	e, ok := r.extractors[id]
	return e, ok
}

// Select returns extractors for the requested sites in registry order.
func (r *Registry) Select(ids []model.SiteID) ([]Extractor, error) {
	wanted := make(map[model.SiteID]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.extractors[id]; !ok {
			return nil, eris.Errorf("sites: no extractor registered for %q", id)
		}
		wanted[id] = true
	}

	out := make([]Extractor, 0, len(wanted))
	for _, id := range r.order {
		if wanted[id] {
			out = append(out, r.extractors[id])
		}
	}
	return out, nil
}
