package sites

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/propscout/propscout/internal/model"
)

const magicbricksBaseURL = "https://www.magicbricks.com"

// Magicbricks extracts listings from magicbricks.com search result pages.
type Magicbricks struct {
	baseURL string
}

// NewMagicbricks creates the extractor. An empty baseURL uses the live site.
func NewMagicbricks(baseURL string) *Magicbricks {
	if baseURL == "" {
		baseURL = magicbricksBaseURL
	}
	return &Magicbricks{baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *Magicbricks) Site() model.SiteID { return model.SiteMagicbricks }

func (m *Magicbricks) SearchURL(city string, page int) string {
	u := fmt.Sprintf("%s/ready-to-move-flats-in-%s-pppfs", m.baseURL, citySlug(city))
	if page > 1 {
		u = fmt.Sprintf("%s?page=%d", u, page)
	}
	return u
}

func (m *Magicbricks) Extract(res model.FetchResult) Page {
	doc := document(res)
	if doc == nil {
		return Page{}
	}

	var page Page
	doc.Find("div.mb-srp__card").Each(func(_ int, card *goquery.Selection) {
		title := text(card, "h2.mb-srp__card--title")
		if title == "" {
			page.Skipped++
			return
		}
		// Price may be absent; the aggregator drops priceless listings as
		// data-quality errors rather than the extractor guessing.
		price := text(card, "div.mb-srp__card__price--amount")

		raw := model.RawListing{
			Site:      model.SiteMagicbricks,
			SourceURL: res.Request.URL,
			Title:     title,
			PriceText: price,
			Location:  locationFromTitle(title),
			RawFields: map[string]string{},
		}

		if owner := text(card, "div.mb-srp__card__ads--name"); owner != "" {
			raw.RawFields["owner"] = strings.TrimSpace(strings.TrimPrefix(owner, "Owner:"))
		}

		// The summary strip carries labeled values; carpet/super area is the
		// one the aggregator needs, the rest ride along as raw fields.
		card.Find("div.mb-srp__card__summary--item").Each(func(_ int, item *goquery.Selection) {
			label := text(item, "div.mb-srp__card__summary--label")
			value := text(item, "div.mb-srp__card__summary--value")
			if label == "" || value == "" {
				return
			}
			switch strings.ToLower(label) {
			case "carpet area", "super area", "super built-up area":
				if raw.AreaText == "" {
					raw.AreaText = value
				}
			default:
				raw.RawFields[strings.ToLower(strings.ReplaceAll(label, " ", "_"))] = value
			}
		})

		page.Listings = append(page.Listings, raw)
	})

	href, _ := doc.Find("a.mb-srp__pagination--next").First().Attr("href")
	page.Next = nextRequest(res, href)
	return page
}

// locationFromTitle pulls the locality out of titles shaped like
// "2 BHK Flat for Sale in Kharadi, Pune".
func locationFromTitle(title string) string {
	lower := strings.ToLower(title)
	idx := strings.LastIndex(lower, " in ")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(title[idx+4:])
}
