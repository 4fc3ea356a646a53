package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscout/propscout/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRun(id string) *model.RunResult {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return &model.RunResult{
		ID:     id,
		City:   "pune",
		Status: model.RunStatusCompleted,
		Sites:  []model.SiteID{model.SiteMagicbricks, model.SiteMakaan},
		Listings: []model.NormalizedListing{
			{
				ID:        "a1b2c3d4e5f60718",
				Site:      model.SiteMagicbricks,
				Title:     "2 BHK Flat for Sale in Kharadi, Pune",
				Price:     4500000,
				AreaSqFt:  650,
				City:      "pune",
				Location:  "kharadi pune",
				Bedrooms:  2,
				URL:       "https://example.test/magicbricks",
				ScrapedAt: now,
			},
			{
				ID:        "ffeeddccbbaa0099",
				Site:      model.SiteMakaan,
				Title:     "3 BHK Flat Baner",
				Price:     8000000,
				AreaSqFt:  1100,
				City:      "pune",
				Location:  "baner",
				Bedrooms:  3,
				URL:       "https://example.test/makaan",
				ScrapedAt: now,
			},
		},
		Errors: []model.ScrapeError{
			{Site: model.SiteCommonfloor, Kind: model.ErrHTTP, Message: "http 404"},
		},
		Metrics: model.RunMetrics{
			ElapsedMs:    1200,
			RequestCount: 5,
			PagesFetched: 4,
		},
		StartedAt:  now,
		FinishedAt: now.Add(1200 * time.Millisecond),
	}
}

func TestSQLiteSaveAndGetRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := sampleRun("run-1")
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.City, got.City)
	assert.Equal(t, run.Status, got.Status)
	assert.Equal(t, run.Sites, got.Sites)
	assert.Equal(t, run.Metrics, got.Metrics)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, model.ErrHTTP, got.Errors[0].Kind)

	require.Len(t, got.Listings, 2)
	for i := range run.Listings {
		assert.Equal(t, run.Listings[i].ID, got.Listings[i].ID)
		assert.Equal(t, run.Listings[i].Site, got.Listings[i].Site)
		assert.Equal(t, run.Listings[i].Title, got.Listings[i].Title)
		assert.InDelta(t, run.Listings[i].Price, got.Listings[i].Price, 0.001)
		assert.Equal(t, run.Listings[i].Bedrooms, got.Listings[i].Bedrooms)
	}
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.GetRun(context.Background(), "nope")
	assert.Error(t, err)
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, sampleRun("run-1")))

	second := sampleRun("run-2")
	second.City = "mumbai"
	second.Listings = second.Listings[:1]
	require.NoError(t, s.SaveRun(ctx, second))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	pune, err := s.ListRuns(ctx, RunFilter{City: "pune"})
	require.NoError(t, err)
	require.Len(t, pune, 1)
	assert.Equal(t, "run-1", pune[0].ID)
	assert.Equal(t, 2, pune[0].ListingCount)
	assert.Equal(t, 1, pune[0].ErrorCount)
}

func TestSQLiteListRunsLimit(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SaveRun(ctx, sampleRun(id)))
	}

	out, err := s.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
