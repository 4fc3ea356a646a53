package sites

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/propscout/propscout/internal/model"
)

const commonfloorBaseURL = "https://www.commonfloor.com"

// Commonfloor extracts listings from commonfloor.com project search pages.
type Commonfloor struct {
	baseURL string
}

// NewCommonfloor creates the extractor. An empty baseURL uses the live site.
func NewCommonfloor(baseURL string) *Commonfloor {
	if baseURL == "" {
		baseURL = commonfloorBaseURL
	}
	return &Commonfloor{baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Commonfloor) Site() model.SiteID { return model.SiteCommonfloor }

func (c *Commonfloor) SearchURL(city string, page int) string {
	u := fmt.Sprintf("%s/%s-property/projects", c.baseURL, citySlug(city))
	if page > 1 {
		u = fmt.Sprintf("%s?page=%d", u, page)
	}
	return u
}

func (c *Commonfloor) Extract(res model.FetchResult) Page {
	doc := document(res)
	if doc == nil {
		return Page{}
	}

	var page Page
	doc.Find("div.snb-content-list").Each(func(_ int, card *goquery.Selection) {
		title := text(card, "div.snb-projecttile-top a h2")
		if title == "" {
			page.Skipped++
			return
		}

		// The tile table carries price in the first cell and area in the
		// second, both prefixed with unit icons.
		cells := card.Find("tbody td")
		price := strings.TrimSpace(cells.Eq(0).Text())
		area := strings.TrimSpace(cells.Eq(1).Text())

		raw := model.RawListing{
			Site:      model.SiteCommonfloor,
			SourceURL: res.Request.URL,
			Title:     title,
			PriceText: price,
			AreaText:  area,
			Location:  text(card, "span.locality"),
			RawFields: map[string]string{},
		}
		if owner := text(card, "h3.proSnbp"); owner != "" {
			raw.RawFields["owner"] = owner
		}

		page.Listings = append(page.Listings, raw)
	})

	href, _ := doc.Find("div.pagination a.next").First().Attr("href")
	page.Next = nextRequest(res, href)
	return page
}
