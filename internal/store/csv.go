package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/propscout/propscout/internal/model"
)

// CSVFileName builds the dated, city-named output artifact path, e.g.
// data/pune_listings_2026-08-31.csv.
func CSVFileName(dir, city string, t time.Time) string {
	slug := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(city))), "-")
	return filepath.Join(dir, fmt.Sprintf("%s_listings_%s.csv", slug, t.Format("2006-01-02")))
}

// ExportCSV writes one row per normalized listing, in aggregation order.
func ExportCSV(path string, listings []model.NormalizedListing) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "csv: create output dir")
	}

	data, err := csvutil.Marshal(listings)
	if err != nil {
		return eris.Wrap(err, "csv: marshal listings")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "csv: write file")
	}
	return nil
}
