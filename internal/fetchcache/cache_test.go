package fetchcache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscout/propscout/internal/model"
)

func okResult(url string) model.FetchResult {
	return model.FetchResult{
		Request:   model.FetchRequest{URL: url, Site: model.SiteMagicbricks, Page: 1},
		Status:    model.StatusOK,
		Body:      []byte("<html></html>"),
		FetchedAt: time.Now().UTC(),
	}
}

func TestPutGet(t *testing.T) {
	c := New()
	res := okResult("https://example.com/p1")
	c.Put("k", res)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, res.Request.URL, got.Request.URL)
	assert.Equal(t, int64(1), c.Hits())
	assert.Equal(t, 1, c.Len())
}

func TestNeverCachesTransientFailures(t *testing.T) {
	c := New()
	c.Put("net", model.FetchResult{Status: model.StatusNetworkError})
	c.Put("to", model.FetchResult{Status: model.StatusTimeout})
	c.Put("5xx", model.FetchResult{Status: model.StatusHTTPError, StatusCode: 503})

	assert.Equal(t, 0, c.Len())
}

func TestCachesStable4xx(t *testing.T) {
	c := New()
	c.Put("gone", model.FetchResult{Status: model.StatusHTTPError, StatusCode: 404})

	got, ok := c.Get("gone")
	require.True(t, ok)
	assert.Equal(t, 404, got.StatusCode)
}

func TestGetOrFetchMemoizes(t *testing.T) {
	c := New()
	calls := 0
	fetch := func() model.FetchResult {
		calls++
		return okResult("https://example.com")
	}

	c.GetOrFetch("k", fetch)
	c.GetOrFetch("k", fetch)
	c.GetOrFetch("k", fetch)

	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(2), c.Hits())
}

func TestGetOrFetchDoesNotMemoizeFailures(t *testing.T) {
	c := New()
	calls := 0
	fetch := func() model.FetchResult {
		calls++
		return model.FetchResult{Status: model.StatusTimeout}
	}

	c.GetOrFetch("k", fetch)
	c.GetOrFetch("k", fetch)

	// Failed results are retried fresh.
	assert.Equal(t, 2, calls)
}

func TestConcurrentFetchesCoalesce(t *testing.T) {
	c := New()
	var calls atomic.Int64
	release := make(chan struct{})

	fetch := func() model.FetchResult {
		calls.Add(1)
		<-release
		return okResult("https://example.com")
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make([]model.FetchResult, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.GetOrFetch("k", fetch)
		}()
	}

	// Let all workers pile onto the in-flight key, then release the fetch.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "must issue at most one underlying fetch")
	for _, r := range results {
		assert.Equal(t, model.StatusOK, r.Status)
	}
	assert.Equal(t, int64(workers-1), c.Hits())
}
