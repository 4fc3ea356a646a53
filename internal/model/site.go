package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// SiteID identifies one supported source website.
type SiteID string

const (
	SiteMagicbricks SiteID = "magicbricks"
	SiteMakaan      SiteID = "makaan"
	SiteCommonfloor SiteID = "commonfloor"
)

// AllSites returns every supported site in the fixed iteration order used
// for deterministic aggregation and dedup tie-breaks.
func AllSites() []SiteID {
	return []SiteID{SiteMagicbricks, SiteMakaan, SiteCommonfloor}
}

// ParseSite converts a string into a SiteID.
func ParseSite(s string) (SiteID, error) {
	switch SiteID(strings.ToLower(strings.TrimSpace(s))) {
	case SiteMagicbricks:
		return SiteMagicbricks, nil
	case SiteMakaan:
		return SiteMakaan, nil
	case SiteCommonfloor:
		return SiteCommonfloor, nil
	default:
		return "", eris.Errorf("unknown site: %q (valid: magicbricks, makaan, commonfloor)", s)
	}
}

// ParseSiteSelection parses a comma-separated site list. The value "all"
// selects every supported site. Output preserves the fixed iteration order
// regardless of input order.
func ParseSiteSelection(s string) ([]SiteID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, eris.New("at least one site must be selected")
	}
	if s == "all" {
		return AllSites(), nil
	}

	wanted := make(map[SiteID]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := ParseSite(part)
		if err != nil {
			return nil, err
		}
		wanted[id] = true
	}
	if len(wanted) == 0 {
		return nil, eris.New("at least one site must be selected")
	}

	out := make([]SiteID, 0, len(wanted))
	for _, id := range AllSites() {
		if wanted[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
