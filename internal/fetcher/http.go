package fetcher

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/propscout/propscout/internal/fetchcache"
	"github.com/propscout/propscout/internal/model"
	"github.com/propscout/propscout/internal/resilience"
)

const maxBodyBytes = 2 << 20 // 2MB per page

// Options configures the HTTP fetcher.
type Options struct {
	UserAgent string
	Timeout   time.Duration

	// MaxAttempts is the per-request retry budget, including the first try.
	MaxAttempts int

	// InitialBackoff seeds the exponential backoff between attempts.
	InitialBackoff time.Duration

	// RequestsPerSecond and Burst bound the request rate per site.
	RequestsPerSecond float64
	Burst             int

	// PerSiteConcurrency bounds simultaneous in-flight fetches per site.
	// Cross-site parallelism is unconstrained.
	PerSiteConcurrency int64
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (compatible; propscout/1.0)"
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 2
	}
	if o.Burst <= 0 {
		o.Burst = 2
	}
	if o.PerSiteConcurrency <= 0 {
		o.PerSiteConcurrency = 2
	}
	return o
}

// HTTPFetcher implements Fetcher using net/http with per-site rate limiting,
// bounded per-site concurrency, retry with exponential backoff and jitter,
// and a shared run-scoped cache.
type HTTPFetcher struct {
	client   *http.Client
	opts     Options
	cache    *fetchcache.Cache
	limiters map[model.SiteID]*rate.Limiter
	slots    map[model.SiteID]*semaphore.Weighted
	requests atomic.Int64
}

// New creates an HTTPFetcher over the given cache.
func New(cache *fetchcache.Cache, opts Options) *HTTPFetcher {
	opts = opts.withDefaults()

	limiters := make(map[model.SiteID]*rate.Limiter)
	slots := make(map[model.SiteID]*semaphore.Weighted)
	for _, site := range model.AllSites() {
		limiters[site] = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
		slots[site] = semaphore.NewWeighted(opts.PerSiteConcurrency)
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		cache:    cache,
		limiters: limiters,
		slots:    slots,
	}
}

// Fetch resolves the request through the cache, issuing at most one network
// call per normalized URL. Never returns an error; failures are encoded in
// the result status.
func (f *HTTPFetcher) Fetch(ctx context.Context, req model.FetchRequest) model.FetchResult {
	return f.cache.GetOrFetch(req.Key(), func() model.FetchResult {
		return f.fetchFresh(ctx, req)
	})
}

// Requests returns the number of fetches that reached the network.
func (f *HTTPFetcher) Requests() int64 {
	return f.requests.Load()
}

func (f *HTTPFetcher) fetchFresh(ctx context.Context, req model.FetchRequest) model.FetchResult {
	f.requests.Add(1)

	if sem := f.slots[req.Site]; sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return failure(req, err)
		}
		defer sem.Release(1)
	}

	cfg := resilience.RetryConfig{
		MaxAttempts:    f.opts.MaxAttempts,
		InitialBackoff: f.opts.InitialBackoff,
		OnRetry:        resilience.RetryLogger(string(req.Site), req.URL),
	}

	res, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (model.FetchResult, error) {
		return f.attempt(ctx, req)
	})
	if err != nil {
		return failure(req, err)
	}
	return res
}

// attempt issues one HTTP GET. Transient failures (network errors, timeouts,
// 429/5xx) come back as errors so the retry layer sees them; terminal
// outcomes (2xx, 4xx) come back as results.
func (f *HTTPFetcher) attempt(ctx context.Context, req model.FetchRequest) (model.FetchResult, error) {
	var zero model.FetchResult

	if lim := f.limiters[req.Site]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return zero, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return zero, eris.Wrap(err, "fetcher: create request")
	}
	httpReq.Header.Set("User-Agent", f.opts.UserAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		zap.L().Warn("fetch attempt failed",
			zap.String("site", string(req.Site)),
			zap.String("url", req.URL),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return zero, err
	}
	defer func() { _ = resp.Body.Close() }()

	zap.L().Debug("fetch attempt",
		zap.String("site", string(req.Site)),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", latency),
	)

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return zero, resilience.NewTransientError(
			eris.Errorf("fetcher: http %d from %s", resp.StatusCode, req.URL),
			resp.StatusCode,
		)
	}

	if resp.StatusCode >= 400 {
		// Stable negative result; cached so the rest of the run does not
		// re-hit a URL known to be unavailable.
		return model.FetchResult{
			Request:    req,
			Status:     model.StatusHTTPError,
			StatusCode: resp.StatusCode,
			FetchedAt:  time.Now().UTC(),
		}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return zero, err
	}

	return model.FetchResult{
		Request:    req,
		Status:     model.StatusOK,
		StatusCode: resp.StatusCode,
		Body:       body,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// failure translates the final error of an exhausted retry loop into a
// status-bearing result.
func failure(req model.FetchRequest, err error) model.FetchResult {
	res := model.FetchResult{
		Request:   req,
		Status:    model.StatusNetworkError,
		FetchedAt: time.Now().UTC(),
	}

	var te *resilience.TransientError
	switch {
	case eris.As(err, &te) && te.StatusCode > 0:
		res.Status = model.StatusHTTPError
		res.StatusCode = te.StatusCode
	case resilience.IsTimeout(err):
		res.Status = model.StatusTimeout
	}

	zap.L().Warn("fetch failed",
		zap.String("site", string(req.Site)),
		zap.String("url", req.URL),
		zap.String("status", string(res.Status)),
		zap.Error(err),
	)
	return res
}
