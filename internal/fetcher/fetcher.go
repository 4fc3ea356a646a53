// Package fetcher performs rate-limited, retrying page fetches with
// run-scoped response caching.
package fetcher

import (
	"context"

	"github.com/propscout/propscout/internal/model"
)

// Fetcher fetches one page. Implementations never return an error; every
// failure state is encoded in FetchResult.Status.
type Fetcher interface {
	Fetch(ctx context.Context, req model.FetchRequest) model.FetchResult
}

// Func adapts a function to the Fetcher interface.
type Func func(ctx context.Context, req model.FetchRequest) model.FetchResult

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, req model.FetchRequest) model.FetchResult {
	return f(ctx, req)
}
