package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/propscout/propscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	status      TEXT NOT NULL,
	sites       TEXT NOT NULL,
	errors      TEXT,
	metrics     TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS listings (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	position   INTEGER NOT NULL,
	listing_id TEXT NOT NULL,
	site       TEXT NOT NULL,
	title      TEXT NOT NULL,
	price      REAL NOT NULL,
	area_sqft  REAL NOT NULL,
	city       TEXT NOT NULL,
	location   TEXT,
	bedrooms   INTEGER,
	url        TEXT NOT NULL,
	scraped_at DATETIME NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_city ON runs(city);
CREATE INDEX IF NOT EXISTS idx_listings_listing_id ON listings(listing_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, result *model.RunResult) error {
	sitesJSON, err := json.Marshal(result.Sites)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sites")
	}
	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal errors")
	}
	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metrics")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, city, status, sites, errors, metrics, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.City, string(result.Status), string(sitesJSON),
		string(errorsJSON), string(metricsJSON), result.StartedAt, result.FinishedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	for i, l := range result.Listings {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO listings (run_id, position, listing_id, site, title, price, area_sqft, city, location, bedrooms, url, scraped_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.ID, i, l.ID, string(l.Site), l.Title, l.Price, l.AreaSqFt,
			l.City, l.Location, l.Bedrooms, l.URL, l.ScrapedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert listing %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.RunResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, city, status, sites, errors, metrics, started_at, finished_at
		 FROM runs WHERE id = ?`, runID)

	var (
		result                          model.RunResult
		status                          string
		sitesJSON, errsJSON, metricsJSON string
	)
	err := row.Scan(&result.ID, &result.City, &status, &sitesJSON, &errsJSON,
		&metricsJSON, &result.StartedAt, &result.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	result.Status = model.RunStatus(status)
	if err := json.Unmarshal([]byte(sitesJSON), &result.Sites); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal sites")
	}
	if errsJSON != "" {
		if err := json.Unmarshal([]byte(errsJSON), &result.Errors); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal errors")
		}
	}
	if err := json.Unmarshal([]byte(metricsJSON), &result.Metrics); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal metrics")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT listing_id, site, title, price, area_sqft, city, location, bedrooms, url, scraped_at
		 FROM listings WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list listings")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l    model.NormalizedListing
			site string
		)
		if err := rows.Scan(&l.ID, &site, &l.Title, &l.Price, &l.AreaSqFt,
			&l.City, &l.Location, &l.Bedrooms, &l.URL, &l.ScrapedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan listing")
		}
		l.Site = model.SiteID(site)
		result.Listings = append(result.Listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate listings")
	}

	return &result, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT r.id, r.city, r.status, r.errors, r.created_at,
		(SELECT COUNT(*) FROM listings l WHERE l.run_id = r.id)
		FROM runs r`
	args := []any{}
	if filter.City != "" {
		query += ` WHERE r.city = ?`
		args = append(args, filter.City)
	}
	query += ` ORDER BY r.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var (
			sum      model.RunSummary
			status   string
			errsJSON sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.City, &status, &errsJSON, &sum.CreatedAt, &sum.ListingCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		sum.Status = model.RunStatus(status)
		if errsJSON.Valid && errsJSON.String != "" && errsJSON.String != "null" {
			var errs []model.ScrapeError
			if err := json.Unmarshal([]byte(errsJSON.String), &errs); err == nil {
				sum.ErrorCount = len(errs)
			}
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}
