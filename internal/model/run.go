package model

import (
	"fmt"
	"time"
)

// ErrorKind classifies a recoverable scrape error.
type ErrorKind string

const (
	ErrNetwork     ErrorKind = "network"
	ErrTimeout     ErrorKind = "timeout"
	ErrHTTP        ErrorKind = "http"
	ErrParseSkip   ErrorKind = "parse_skip"
	ErrDataQuality ErrorKind = "data_quality"
	ErrRunFailure  ErrorKind = "run_failure"
)

// ScrapeError records one recovered error. Errors never abort sibling
// operations; they accumulate on the RunResult.
type ScrapeError struct {
	Site    SiteID    `json:"site,omitempty"`
	URL     string    `json:"url,omitempty"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e ScrapeError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.URL)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindForStatus maps a failed fetch status to its error kind.
func KindForStatus(s FetchStatus) ErrorKind {
	switch s {
	case StatusTimeout:
		return ErrTimeout
	case StatusHTTPError:
		return ErrHTTP
	default:
		return ErrNetwork
	}
}

// RunStatus tracks the orchestrator state machine.
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunMetrics summarizes throughput and memory for one run.
type RunMetrics struct {
	ElapsedMs        int64  `json:"elapsed_ms"`
	PeakMemoryBytes  uint64 `json:"peak_memory_bytes"`
	MemoryDeltaBytes uint64 `json:"memory_delta_bytes"`
	RequestCount     int64  `json:"request_count"`
	CacheHitCount    int64  `json:"cache_hit_count"`
	PagesFetched     int64  `json:"pages_fetched"`
}

// RunResult is the immutable outcome of one scrape invocation.
type RunResult struct {
	ID         string              `json:"id"`
	City       string              `json:"city"`
	Status     RunStatus           `json:"status"`
	Sites      []SiteID            `json:"sites"`
	Listings   []NormalizedListing `json:"listings"`
	Errors     []ScrapeError       `json:"errors,omitempty"`
	Metrics    RunMetrics          `json:"metrics"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// RunSummary is a listing-free view of a stored run.
type RunSummary struct {
	ID           string    `json:"id"`
	City         string    `json:"city"`
	Status       RunStatus `json:"status"`
	ListingCount int       `json:"listing_count"`
	ErrorCount   int       `json:"error_count"`
	CreatedAt    time.Time `json:"created_at"`
}
