package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscout/propscout/internal/model"
)

const makaanFixture = `
<html><body>
<div class="search-result-wrap">
<ul>
<li class="cardholder">
  <a class="typelink"><span class="val">2 BHK Apartment, Kharadi</span></a>
  <table><tbody><tr>
    <td class="price"><span class="val">45</span> <span class="unit">L</span></td>
    <td class="size"><span class="val">650</span> <span class="unit">sq ft</span></td>
    <td class="val-status">Ready to move</td>
  </tr></tbody></table>
  <span class="locName">Kharadi</span>
  <div class="seller-info"><span class="seller-name">PrestigeBUILDER0</span></div>
</li>
<li class="cardholder">
  <a class="seller-name">Godrej Properties</a>
  <table><tbody><tr>
    <td class="price"><span class="val">1.2</span> <span class="unit">Cr</span></td>
  </tr></tbody></table>
  <span class="locName">Baner</span>
</li>
<li class="cardholder">
  <table><tbody><tr><td class="price"><span class="val">30</span></td></tr></tbody></table>
</li>
</ul>
</div>
<ul class="pagination"><a class="pag-next" href="?page=2">Next</a></ul>
</body></html>`

func TestMakaanSearchURL(t *testing.T) {
	m := NewMakaan("")
	assert.Equal(t,
		"https://www.makaan.com/pune-residential-property/buy-property-in-pune-city",
		m.SearchURL("Pune", 1))
	assert.Equal(t,
		"https://www.makaan.com/pune-residential-property/buy-property-in-pune-city?page=2",
		m.SearchURL("Pune", 2))
}

func TestMakaanExtract(t *testing.T) {
	m := NewMakaan("")
	url := m.SearchURL("pune", 1)
	page := m.Extract(okResult(model.SiteMakaan, url, makaanFixture))

	require.Len(t, page.Listings, 2)
	assert.Equal(t, 1, page.Skipped)

	first := page.Listings[0]
	assert.Equal(t, model.SiteMakaan, first.Site)
	assert.Equal(t, "2 BHK Apartment, Kharadi", first.Title)
	assert.Equal(t, "₹45 L", first.PriceText)
	assert.Equal(t, "650 sq ft", first.AreaText)
	assert.Equal(t, "Kharadi", first.Location)
	assert.Equal(t, "Prestige", first.RawFields["owner"])
	assert.Equal(t, "Ready to move", first.RawFields["status"])

	// Seller name stands in for a title when the type link is missing.
	second := page.Listings[1]
	assert.Equal(t, "Godrej Properties", second.Title)
	assert.Equal(t, "₹1.2 Cr", second.PriceText)
	assert.Equal(t, "Baner", second.Location)

	require.NotNil(t, page.Next)
	assert.Equal(t, url+"?page=2", page.Next.URL)
}

func TestMakaanNextViaRelAttr(t *testing.T) {
	m := NewMakaan("")
	url := m.SearchURL("pune", 1)
	page := m.Extract(okResult(model.SiteMakaan, url,
		`<html><body><a rel="next" href="/pune-residential-property/buy-property-in-pune-city?page=2">2</a></body></html>`))
	require.NotNil(t, page.Next)
	assert.Equal(t, url+"?page=2", page.Next.URL)
}
