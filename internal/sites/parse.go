package sites

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/propscout/propscout/internal/model"
)

// document parses a fetched page into a goquery document. Returns nil for
// non-Ok results, empty bodies, and unparseable markup.
func document(res model.FetchResult) *goquery.Document {
	if !res.OK() || len(res.Body) == 0 {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil
	}
	return doc
}

// text returns the trimmed text of the first node matching sel.
func text(s *goquery.Selection, sel string) string {
	return strings.TrimSpace(s.Find(sel).First().Text())
}

// citySlug lowercases and hyphenates a city name for use in search URLs.
func citySlug(city string) string {
	slug := strings.ToLower(strings.TrimSpace(city))
	return strings.Join(strings.Fields(slug), "-")
}

// nextRequest resolves a next-page href against the fetched page's URL. An
// empty or unresolvable href means no next page.
func nextRequest(res model.FetchResult, href string) *model.FetchRequest {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	base, err := url.Parse(res.Request.URL)
	if err != nil {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	next := base.ResolveReference(ref).String()
	if next == res.Request.URL {
		return nil
	}
	return &model.FetchRequest{
		URL:  next,
		Site: res.Request.Site,
		Page: res.Request.Page + 1,
	}
}
