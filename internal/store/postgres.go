package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/propscout/propscout/internal/model"
)

// PgxPool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	status      TEXT NOT NULL,
	sites       JSONB NOT NULL,
	errors      JSONB,
	metrics     JSONB NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS listings (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	position   INTEGER NOT NULL,
	listing_id TEXT NOT NULL,
	site       TEXT NOT NULL,
	title      TEXT NOT NULL,
	price      DOUBLE PRECISION NOT NULL,
	area_sqft  DOUBLE PRECISION NOT NULL,
	city       TEXT NOT NULL,
	location   TEXT,
	bedrooms   INTEGER,
	url        TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_city ON runs(city);
CREATE INDEX IF NOT EXISTS idx_listings_listing_id ON listings(listing_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, result *model.RunResult) error {
	sitesJSON, err := json.Marshal(result.Sites)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal sites")
	}
	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal errors")
	}
	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metrics")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, city, status, sites, errors, metrics, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.ID, result.City, string(result.Status), sitesJSON,
		errorsJSON, metricsJSON, result.StartedAt, result.FinishedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert run")
	}

	for i, l := range result.Listings {
		_, err = tx.Exec(ctx,
			`INSERT INTO listings (run_id, position, listing_id, site, title, price, area_sqft, city, location, bedrooms, url, scraped_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			result.ID, i, l.ID, string(l.Site), l.Title, l.Price, l.AreaSqFt,
			l.City, l.Location, l.Bedrooms, l.URL, l.ScrapedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert listing %d", i)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.RunResult, error) {
	var (
		result      model.RunResult
		status      string
		sitesJSON   []byte
		errsJSON    []byte
		metricsJSON []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, city, status, sites, errors, metrics, started_at, finished_at
		 FROM runs WHERE id = $1`, runID,
	).Scan(&result.ID, &result.City, &status, &sitesJSON, &errsJSON,
		&metricsJSON, &result.StartedAt, &result.FinishedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Errorf("postgres: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	result.Status = model.RunStatus(status)
	if err := json.Unmarshal(sitesJSON, &result.Sites); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal sites")
	}
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &result.Errors); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal errors")
		}
	}
	if err := json.Unmarshal(metricsJSON, &result.Metrics); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal metrics")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT listing_id, site, title, price, area_sqft, city, location, bedrooms, url, scraped_at
		 FROM listings WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list listings")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l    model.NormalizedListing
			site string
		)
		if err := rows.Scan(&l.ID, &site, &l.Title, &l.Price, &l.AreaSqFt,
			&l.City, &l.Location, &l.Bedrooms, &l.URL, &l.ScrapedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan listing")
		}
		l.Site = model.SiteID(site)
		result.Listings = append(result.Listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate listings")
	}

	return &result, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT r.id, r.city, r.status, COALESCE(jsonb_array_length(r.errors), 0), r.created_at,
		(SELECT COUNT(*) FROM listings l WHERE l.run_id = r.id)
		FROM runs r`
	args := []any{}
	if filter.City != "" {
		query += ` WHERE r.city = $1 ORDER BY r.created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, filter.City, limit, filter.Offset)
	} else {
		query += ` ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var (
			sum    model.RunSummary
			status string
		)
		if err := rows.Scan(&sum.ID, &sum.City, &status, &sum.ErrorCount, &sum.CreatedAt, &sum.ListingCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		sum.Status = model.RunStatus(status)
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
