// Package engine orchestrates a scrape run: it fans one pagination driver
// out per selected site, aggregates and deduplicates the raw listings, and
// assembles the final RunResult with run metrics.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/propscout/propscout/internal/aggregate"
	"github.com/propscout/propscout/internal/fetchcache"
	"github.com/propscout/propscout/internal/fetcher"
	"github.com/propscout/propscout/internal/model"
	"github.com/propscout/propscout/internal/monitoring"
	"github.com/propscout/propscout/internal/paginate"
	"github.com/propscout/propscout/internal/sites"
)

// ErrRunFailure marks a run where no site produced any data at all. It is
// the only error a run surfaces; per-site failures are recorded on the
// RunResult and never abort siblings.
var ErrRunFailure = eris.New("run failed: no site produced any data")

// Options configures a run.
type Options struct {
	Driver paginate.Options

	// MemorySampleInterval controls the memory monitor cadence.
	MemorySampleInterval time.Duration
}

// Engine executes scrape runs. One engine serves one run at a time.
type Engine struct {
	fetcher *fetcher.HTTPFetcher
	cache   *fetchcache.Cache
	reg     *sites.Registry
	agg     *aggregate.Aggregator
	opts    Options

	mu     sync.Mutex
	status model.RunStatus
}

// New creates an Engine.
func New(f *fetcher.HTTPFetcher, cache *fetchcache.Cache, reg *sites.Registry, agg *aggregate.Aggregator, opts Options) *Engine {
	return &Engine{
		fetcher: f,
		cache:   cache,
		reg:     reg,
		agg:     agg,
		opts:    opts,
		status:  model.RunStatusIdle,
	}
}

// Status returns the current run state.
func (e *Engine) Status() model.RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) setStatus(s model.RunStatus) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// Run scrapes the selected sites for a city. Cancellation is cooperative:
// in-flight fetches finish or time out, pending pages are abandoned, and
// the partial result is returned. The returned error is non-nil only for
// invalid input or a total RunFailure; the RunResult is valid either way
// once the run has started.
func (e *Engine) Run(ctx context.Context, city string, siteIDs []model.SiteID) (*model.RunResult, error) {
	if city == "" {
		return nil, eris.New("engine: city is required")
	}
	extractors, err := e.reg.Select(siteIDs)
	if err != nil {
		return nil, err
	}
	if len(extractors) == 0 {
		return nil, eris.New("engine: at least one site must be selected")
	}

	log := zap.L().With(
		zap.String("component", "engine"),
		zap.String("city", city),
	)
	log.Info("run starting", zap.Int("sites", len(extractors)))

	e.setStatus(model.RunStatusRunning)
	startedAt := time.Now().UTC()
	monitor := monitoring.Start(e.opts.MemorySampleInterval)

	// Fetcher and cache counters are cumulative; metrics report this run's
	// share so a reused engine does not inflate them.
	startRequests := e.fetcher.Requests()
	startHits := e.cache.Hits()

	// Per-site results land in fixed positions so aggregation order follows
	// the registry's site iteration order, not wall-clock arrival.
	results := make([]paginate.Result, len(extractors))
	driver := paginate.New(e.fetcher, e.opts.Driver)

	g, gctx := errgroup.WithContext(ctx)
	for i, ext := range extractors {
		g.Go(func() error {
			results[i] = driver.Run(gctx, ext, city)
			return nil
		})
	}
	_ = g.Wait() // drivers recover their own failures

	snap := monitor.Stop()

	var (
		raws    []model.RawListing
		runErrs []model.ScrapeError
		pagesOK int
		scraped []model.SiteID
	)
	for _, r := range results {
		raws = append(raws, r.Listings...)
		runErrs = append(runErrs, r.Errors...)
		pagesOK += r.PagesOK
		scraped = append(scraped, r.Site)
	}

	listings, aggErrs := e.agg.Aggregate(city, raws)
	runErrs = append(runErrs, aggErrs...)

	result := &model.RunResult{
		ID:       uuid.New().String(),
		City:     city,
		Status:   model.RunStatusCompleted,
		Sites:    scraped,
		Listings: listings,
		Errors:   runErrs,
		Metrics: model.RunMetrics{
			ElapsedMs:        snap.Elapsed.Milliseconds(),
			PeakMemoryBytes:  snap.PeakHeap,
			MemoryDeltaBytes: snap.HeapDelta,
			RequestCount:     e.fetcher.Requests() - startRequests,
			CacheHitCount:    e.cache.Hits() - startHits,
			PagesFetched:     int64(pagesOK),
		},
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}

	// Failed only when the result is meaningless: nothing fetched, nothing
	// listed, across every site.
	if len(listings) == 0 && pagesOK == 0 && ctx.Err() == nil {
		result.Status = model.RunStatusFailed
		result.Errors = append(result.Errors, model.ScrapeError{
			Kind:    model.ErrRunFailure,
			Message: "no site produced any data",
		})
		e.setStatus(model.RunStatusFailed)
		log.Error("run failed",
			zap.Int64("requests", result.Metrics.RequestCount),
			zap.Int("errors", len(result.Errors)),
		)
		return result, ErrRunFailure
	}

	e.setStatus(model.RunStatusCompleted)
	log.Info("run complete",
		zap.Int("listings", len(listings)),
		zap.Int("raw_listings", len(raws)),
		zap.Int("errors", len(result.Errors)),
		zap.Int64("requests", result.Metrics.RequestCount),
		zap.Int64("cache_hits", result.Metrics.CacheHitCount),
		zap.Int64("elapsed_ms", result.Metrics.ElapsedMs),
		zap.Uint64("peak_memory_bytes", result.Metrics.PeakMemoryBytes),
		zap.Bool("cancelled", ctx.Err() != nil),
	)
	return result, nil
}
