package sites

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscout/propscout/internal/model"
)

const magicbricksFixture = `
<html><body>
<div class="mb-srp__card">
  <h2 class="mb-srp__card--title">2 BHK Flat for Sale in Kharadi, Pune</h2>
  <div class="mb-srp__card__price--amount">&#8377;45 Lac</div>
  <div class="mb-srp__card__ads--name">Owner: Sharma</div>
  <div class="mb-srp__card__summary--item">
    <div class="mb-srp__card__summary--label">Carpet Area</div>
    <div class="mb-srp__card__summary--value">650 sqft</div>
  </div>
  <div class="mb-srp__card__summary--item">
    <div class="mb-srp__card__summary--label">Status</div>
    <div class="mb-srp__card__summary--value">Ready to Move</div>
  </div>
</div>
<div class="mb-srp__card">
  <div class="mb-srp__card__price--amount">&#8377;60 Lac</div>
</div>
<div class="mb-srp__card">
  <h2 class="mb-srp__card--title">3 BHK Flat for Sale in Baner, Pune</h2>
</div>
<a class="mb-srp__pagination--next" href="?page=2">Next</a>
</body></html>`

func okResult(site model.SiteID, url, body string) model.FetchResult {
	return model.FetchResult{
		Request:    model.FetchRequest{URL: url, Site: site, Page: 1},
		Status:     model.StatusOK,
		StatusCode: 200,
		Body:       []byte(body),
		FetchedAt:  time.Now().UTC(),
	}
}

func TestMagicbricksSearchURL(t *testing.T) {
	m := NewMagicbricks("")
	assert.Equal(t,
		"https://www.magicbricks.com/ready-to-move-flats-in-pune-pppfs",
		m.SearchURL("Pune", 1))
	assert.Equal(t,
		"https://www.magicbricks.com/ready-to-move-flats-in-pune-pppfs?page=3",
		m.SearchURL("Pune", 3))
	assert.Equal(t,
		"https://www.magicbricks.com/ready-to-move-flats-in-navi-mumbai-pppfs",
		m.SearchURL("Navi Mumbai", 1))
}

func TestMagicbricksExtract(t *testing.T) {
	m := NewMagicbricks("")
	url := m.SearchURL("pune", 1)
	page := m.Extract(okResult(model.SiteMagicbricks, url, magicbricksFixture))

	require.Len(t, page.Listings, 2)
	assert.Equal(t, 1, page.Skipped, "titleless card must be skipped")

	first := page.Listings[0]
	assert.Equal(t, model.SiteMagicbricks, first.Site)
	assert.Equal(t, "2 BHK Flat for Sale in Kharadi, Pune", first.Title)
	assert.Equal(t, "₹45 Lac", first.PriceText)
	assert.Equal(t, "650 sqft", first.AreaText)
	assert.Equal(t, "Kharadi, Pune", first.Location)
	assert.Equal(t, "Sharma", first.RawFields["owner"])
	assert.Equal(t, "Ready to Move", first.RawFields["status"])
	assert.Equal(t, url, first.SourceURL)

	// Priceless card survives extraction; dropping it is the aggregator's call.
	second := page.Listings[1]
	assert.Equal(t, "3 BHK Flat for Sale in Baner, Pune", second.Title)
	assert.Empty(t, second.PriceText)

	require.NotNil(t, page.Next)
	assert.Equal(t, url+"?page=2", page.Next.URL)
	assert.Equal(t, 2, page.Next.Page)
}

func TestMagicbricksExtractNonOK(t *testing.T) {
	m := NewMagicbricks("")
	page := m.Extract(model.FetchResult{
		Request:    model.FetchRequest{URL: m.SearchURL("pune", 1), Site: model.SiteMagicbricks},
		Status:     model.StatusHTTPError,
		StatusCode: 404,
	})
	assert.Empty(t, page.Listings)
	assert.Nil(t, page.Next)
}

func TestMagicbricksExtractNoNextPage(t *testing.T) {
	m := NewMagicbricks("")
	page := m.Extract(okResult(model.SiteMagicbricks, m.SearchURL("pune", 1),
		`<html><body><div class="mb-srp__card"><h2 class="mb-srp__card--title">1 BHK in Wakad</h2></div></body></html>`))
	require.Len(t, page.Listings, 1)
	assert.Nil(t, page.Next)
}
