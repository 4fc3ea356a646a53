// Package paginate drives the per-site page loop: fetch, extract, follow
// the next-page pointer until exhaustion or a stop condition.
package paginate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/propscout/propscout/internal/fetcher"
	"github.com/propscout/propscout/internal/model"
	"github.com/propscout/propscout/internal/sites"
)

// Options bounds the page loop.
type Options struct {
	// MaxPages caps pages fetched per site. Default: 10.
	MaxPages int

	// MaxConsecutiveMisses stops the loop after this many failed or empty
	// pages in a row, guarding against sites that always report a next
	// page. Default: 2.
	MaxConsecutiveMisses int
}

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = 10
	}
	if o.MaxConsecutiveMisses <= 0 {
		o.MaxConsecutiveMisses = 2
	}
	return o
}

// Result accumulates one site's raw listings and recovered errors.
type Result struct {
	Site       model.SiteID
	Listings   []model.RawListing
	Errors     []model.ScrapeError
	PagesTried int // pages requested, successful or not
	PagesOK    int // pages fetched and parsed successfully
}

// Driver walks one site's result pages sequentially. Pages within a site are
// strictly ordered; sites run concurrently under the orchestrator.
type Driver struct {
	fetcher fetcher.Fetcher
	opts    Options
}

// New creates a Driver.
func New(f fetcher.Fetcher, opts Options) *Driver {
	return &Driver{fetcher: f, opts: opts.withDefaults()}
}

// Run pages through one site's search results for a city. Every failure is
// recovered into Result.Errors; Run never fails the run itself.
func (d *Driver) Run(ctx context.Context, ext sites.Extractor, city string) Result {
	log := zap.L().With(
		zap.String("component", "paginate.driver"),
		zap.String("site", string(ext.Site())),
		zap.String("city", city),
	)

	result := Result{Site: ext.Site()}
	req := model.FetchRequest{
		URL:  ext.SearchURL(city, 1),
		Site: ext.Site(),
		Page: 1,
	}

	misses := 0
	for result.PagesTried < d.opts.MaxPages {
		if ctx.Err() != nil {
			log.Info("pagination cancelled", zap.Int("pages", result.PagesTried))
			return result
		}

		res := d.fetcher.Fetch(ctx, req)
		result.PagesTried++

		if !res.OK() {
			result.Errors = append(result.Errors, model.ScrapeError{
				Site:    ext.Site(),
				URL:     req.URL,
				Kind:    model.KindForStatus(res.Status),
				Message: fetchFailureMessage(res),
			})
			misses++
			if misses >= d.opts.MaxConsecutiveMisses {
				log.Warn("stopping after consecutive failed pages", zap.Int("misses", misses))
				break
			}
			// A failed page has no next pointer; synthesize the following
			// page so one bad page does not end the walk.
			req = model.FetchRequest{
				URL:  ext.SearchURL(city, req.Page+1),
				Site: ext.Site(),
				Page: req.Page + 1,
			}
			continue
		}

		page := ext.Extract(res)
		result.PagesOK++
		result.Listings = append(result.Listings, page.Listings...)

		for range page.Skipped {
			result.Errors = append(result.Errors, model.ScrapeError{
				Site:    ext.Site(),
				URL:     req.URL,
				Kind:    model.ErrParseSkip,
				Message: "listing block missing required field",
			})
		}
		if page.Skipped > 0 {
			log.Warn("extraction skipped listing blocks",
				zap.Int("page", req.Page),
				zap.Int("skipped", page.Skipped),
			)
		}

		log.Debug("page extracted",
			zap.Int("page", req.Page),
			zap.Int("listings", len(page.Listings)),
		)

		if page.Next == nil {
			break
		}
		if len(page.Listings) == 0 {
			misses++
			if misses >= d.opts.MaxConsecutiveMisses {
				log.Warn("stopping after consecutive empty pages", zap.Int("misses", misses))
				break
			}
		} else {
			misses = 0
		}
		req = *page.Next
	}

	log.Info("site pagination complete",
		zap.Int("pages_tried", result.PagesTried),
		zap.Int("pages_ok", result.PagesOK),
		zap.Int("listings", len(result.Listings)),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

func fetchFailureMessage(res model.FetchResult) string {
	if res.Status == model.StatusHTTPError {
		return fmt.Sprintf("http %d", res.StatusCode)
	}
	return string(res.Status)
}
