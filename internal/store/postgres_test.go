package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscout/propscout/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresSaveRun(t *testing.T) {
	s, mock := newMockPostgres(t)
	run := sampleRun("run-1")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").
		WithArgs(run.ID, run.City, string(run.Status), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), run.StartedAt, run.FinishedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for i, l := range run.Listings {
		mock.ExpectExec("INSERT INTO listings").
			WithArgs(run.ID, i, l.ID, string(l.Site), l.Title, l.Price, l.AreaSqFt,
				l.City, l.Location, l.Bedrooms, l.URL, l.ScrapedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()
	mock.ExpectRollback()

	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveRunInsertFails(t *testing.T) {
	s, mock := newMockPostgres(t)
	run := sampleRun("run-1")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").
		WithArgs(run.ID, run.City, string(run.Status), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), run.StartedAt, run.FinishedAt).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	assert.Error(t, s.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRun(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, city, status").
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "city", "status", "sites", "errors", "metrics", "started_at", "finished_at",
		}).AddRow(
			"run-1", "pune", "completed",
			[]byte(`["magicbricks"]`), []byte(`[]`), []byte(`{"elapsed_ms":100}`),
			now, now.Add(time.Second),
		))
	mock.ExpectQuery("SELECT listing_id, site, title").
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"listing_id", "site", "title", "price", "area_sqft", "city", "location", "bedrooms", "url", "scraped_at",
		}).AddRow(
			"a1b2", "magicbricks", "2 BHK Flat Kharadi", 4500000.0, 650.0,
			"pune", "kharadi", 2, "https://example.test/x", now,
		))

	got, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	assert.Equal(t, []model.SiteID{model.SiteMagicbricks}, got.Sites)
	assert.Equal(t, int64(100), got.Metrics.ElapsedMs)
	require.Len(t, got.Listings, 1)
	assert.Equal(t, model.SiteMagicbricks, got.Listings[0].Site)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRunNotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT id, city, status").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "city", "status", "sites", "errors", "metrics", "started_at", "finished_at",
		}))

	_, err := s.GetRun(context.Background(), "nope")
	assert.Error(t, err)
}

func TestPostgresListRuns(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT r.id, r.city, r.status").
		WithArgs("pune", 50, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "city", "status", "error_count", "created_at", "listing_count",
		}).AddRow("run-1", "pune", "completed", 1, now, 2))

	out, err := s.ListRuns(context.Background(), RunFilter{City: "pune"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "run-1", out[0].ID)
	assert.Equal(t, 2, out[0].ListingCount)
	assert.Equal(t, 1, out[0].ErrorCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
