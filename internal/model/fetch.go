package model

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// FetchStatus classifies the outcome of one fetch.
type FetchStatus string

const (
	StatusOK           FetchStatus = "ok"
	StatusHTTPError    FetchStatus = "http_error"
	StatusNetworkError FetchStatus = "network_error"
	StatusTimeout      FetchStatus = "timeout"
)

// FetchRequest describes one page fetch. Immutable once created.
type FetchRequest struct {
	URL  string `json:"url"`
	Site SiteID `json:"site"`
	Page int    `json:"page"`
}

// Key returns the normalized-URL identity of the request, used as the cache
// key. Normalization lowercases the scheme and host, drops the fragment, and
// sorts query parameters so equivalent URLs collide.
func (r FetchRequest) Key() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if q := u.Query(); len(q) > 0 {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			vals := q[k]
			sort.Strings(vals)
			for _, v := range vals {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(k))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
		u.RawQuery = b.String()
	}
	return u.String()
}

// FetchResult wraps the outcome of a fetch. Failure states are encoded in
// Status rather than surfaced as errors.
type FetchResult struct {
	Request    FetchRequest `json:"request"`
	Status     FetchStatus  `json:"status"`
	StatusCode int          `json:"status_code,omitempty"`
	Body       []byte       `json:"-"`
	FetchedAt  time.Time    `json:"fetched_at"`
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool {
	return r.Status == StatusOK
}

// Cacheable reports whether the result may be memoized for the rest of the
// run. Successful fetches and stable 4xx failures are cacheable; network
// errors, timeouts, and 5xx responses are always retried fresh.
func (r FetchResult) Cacheable() bool {
	if r.Status == StatusOK {
		return true
	}
	return r.Status == StatusHTTPError && r.StatusCode >= 400 && r.StatusCode < 500
}
