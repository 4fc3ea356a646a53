package model

import "time"

// RawListing is a pre-normalization record extracted from one site's markup.
// All fields are raw strings; the aggregator owns numeric conversion.
type RawListing struct {
	Site      SiteID            `json:"site"`
	SourceURL string            `json:"source_url"`
	Title     string            `json:"title"`
	PriceText string            `json:"price_text"`
	AreaText  string            `json:"area_text"`
	Location  string            `json:"location"`
	RawFields map[string]string `json:"raw_fields,omitempty"`
}

// NormalizedListing is the canonical, deduplicated output record.
type NormalizedListing struct {
	ID        string    `json:"id" csv:"id"`
	Site      SiteID    `json:"site" csv:"site"`
	Title     string    `json:"title" csv:"title"`
	Price     float64   `json:"price" csv:"price"`
	AreaSqFt  float64   `json:"area_sqft" csv:"area_sqft"`
	City      string    `json:"city" csv:"city"`
	Location  string    `json:"location" csv:"location"`
	Bedrooms  int       `json:"bedrooms,omitempty" csv:"bedrooms"`
	URL       string    `json:"url" csv:"url"`
	ScrapedAt time.Time `json:"scraped_at" csv:"scraped_at"`
}
