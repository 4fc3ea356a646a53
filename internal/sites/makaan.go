package sites

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/propscout/propscout/internal/model"
)

const makaanBaseURL = "https://www.makaan.com"

// Makaan extracts listings from makaan.com buy-property search pages.
type Makaan struct {
	baseURL string
}

// NewMakaan creates the extractor. An empty baseURL uses the live site.
func NewMakaan(baseURL string) *Makaan {
	if baseURL == "" {
		baseURL = makaanBaseURL
	}
	return &Makaan{baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *Makaan) Site() model.SiteID { return model.SiteMakaan }

func (m *Makaan) SearchURL(city string, page int) string {
	slug := citySlug(city)
	u := fmt.Sprintf("%s/%s-residential-property/buy-property-in-%s-city", m.baseURL, slug, slug)
	if page > 1 {
		u = fmt.Sprintf("%s?page=%d", u, page)
	}
	return u
}

func (m *Makaan) Extract(res model.FetchResult) Page {
	doc := document(res)
	if doc == nil {
		return Page{}
	}

	var page Page
	doc.Find("div.search-result-wrap li.cardholder").Each(func(_ int, card *goquery.Selection) {
		title := text(card, "a.typelink span.val")
		if title == "" {
			title = text(card, "a.seller-name")
		}

		if title == "" {
			page.Skipped++
			return
		}

		// Price is split into value and denomination ("45" + "L", "1.2" + "Cr").
		priceVal := text(card, "td.price span.val")
		priceUnit := text(card, "td.price span.unit")
		var price string
		if priceVal != "" {
			price = "₹" + priceVal
			if priceUnit != "" {
				price += " " + priceUnit
			}
		}

		raw := model.RawListing{
			Site:      model.SiteMakaan,
			SourceURL: res.Request.URL,
			Title:     title,
			PriceText: price,
			AreaText:  strings.TrimSpace(text(card, "td.size span.val") + " " + text(card, "td.size span.unit")),
			Location:  text(card, "span.locName"),
			RawFields: map[string]string{},
		}

		if owner := text(card, "div.seller-info span.seller-name"); owner != "" {
			raw.RawFields["owner"] = strings.TrimSuffix(owner, "BUILDER0")
		}
		if status := text(card, "td.val-status"); status != "" {
			raw.RawFields["status"] = status
		}

		page.Listings = append(page.Listings, raw)
	})

	href, _ := doc.Find("ul.pagination a.pag-next").First().Attr("href")
	if href == "" {
		href, _ = doc.Find("a[rel=next]").First().Attr("href")
	}
	page.Next = nextRequest(res, href)
	return page
}
