// Package aggregate merges raw listings from every site into a normalized,
// deduplicated record set. Identity is built from normalized structured
// fields (price, area, location, title tokens), not raw strings, because
// identical physical listings are frequently re-posted with minor text
// variation.
package aggregate

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/propscout/propscout/internal/model"
)

// Options tunes how coarse the identity key is. Two listings whose price
// and area land in the same bucket (and share location and title tokens)
// are treated as the same physical unit.
type Options struct {
	// PriceTolerance is the multiplicative bucket width, as a fraction.
	// Default: 0.01 (prices within ~1% collide).
	PriceTolerance float64

	// AreaToleranceSqFt is the additive area bucket width. Default: 10.
	AreaToleranceSqFt float64
}

func (o Options) withDefaults() Options {
	if o.PriceTolerance <= 0 {
		o.PriceTolerance = 0.01
	}
	if o.AreaToleranceSqFt <= 0 {
		o.AreaToleranceSqFt = 10
	}
	return o
}

// Aggregator normalizes and deduplicates raw listings.
type Aggregator struct {
	opts Options
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	return &Aggregator{opts: opts.withDefaults()}
}

// Aggregate normalizes each raw listing and collapses duplicates by derived
// identity key. First-seen wins; output preserves first-seen order, so a
// fixed input order yields an identical output (same order, same ids).
// Listings whose price or area cannot be parsed are dropped and recorded as
// data-quality errors.
func (a *Aggregator) Aggregate(city string, raws []model.RawListing) ([]model.NormalizedListing, []model.ScrapeError) {
	var (
		out       []model.NormalizedListing
		errs      []model.ScrapeError
		seen      = make(map[string]int, len(raws))
		scrapedAt = time.Now().UTC()
	)

	for _, raw := range raws {
		price, err := ParsePrice(raw.PriceText)
		if err != nil {
			errs = append(errs, dataQualityError(raw, "price", raw.PriceText))
			continue
		}

		area := 0.0
		if raw.AreaText != "" {
			area, err = ParseArea(raw.AreaText)
			if err != nil {
				errs = append(errs, dataQualityError(raw, "area", raw.AreaText))
				continue
			}
		}

		location := NormalizeLocation(raw.Location)
		id := a.identityKey(location, price, area, raw.Title)

		if prev, dup := seen[id]; dup {
			zap.L().Debug("duplicate listing collapsed",
				zap.String("id", id),
				zap.String("kept_site", string(out[prev].Site)),
				zap.String("dropped_site", string(raw.Site)),
			)
			continue
		}

		seen[id] = len(out)
		out = append(out, model.NormalizedListing{
			ID:        id,
			Site:      raw.Site,
			Title:     strings.TrimSpace(raw.Title),
			Price:     price,
			AreaSqFt:  area,
			City:      NormalizeLocation(city),
			Location:  location,
			Bedrooms:  ParseBedrooms(raw.Title),
			URL:       raw.SourceURL,
			ScrapedAt: scrapedAt,
		})
	}

	return out, errs
}

// identityKey hashes the normalized identity tuple. Price buckets are
// multiplicative (log-spaced by the tolerance); area buckets are additive.
func (a *Aggregator) identityKey(location string, price, area float64, title string) string {
	priceBucket := int64(math.Floor(math.Log(price) / math.Log1p(a.opts.PriceTolerance)))
	areaBucket := int64(math.Round(area / a.opts.AreaToleranceSqFt))

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d|%s", location, priceBucket, areaBucket, strings.Join(titleTokens(title), " "))
	return fmt.Sprintf("%016x", h.Sum64())
}

func dataQualityError(raw model.RawListing, field, value string) model.ScrapeError {
	return model.ScrapeError{
		Site:    raw.Site,
		URL:     raw.SourceURL,
		Kind:    model.ErrDataQuality,
		Message: fmt.Sprintf("unparseable %s %q in listing %q", field, value, raw.Title),
	}
}
