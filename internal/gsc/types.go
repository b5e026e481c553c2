package gsc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Site is one Search Console property the authenticated account can read.
// Identity is the URL; the set is fetched once per session and never
// refreshed mid-session.
type Site struct {
	URL             string `json:"siteUrl"`
	PermissionLevel string `json:"permissionLevel"`
}

// Query is a fully bound search-analytics request. Only the command
// assembler constructs these; dates arrive already formatted and already
// inside the provider's reporting window.
type Query struct {
	SiteURL         string   `json:"siteUrl"`
	StartDate       string   `json:"startDate"` // YYYY-MM-DD
	EndDate         string   `json:"endDate"`   // YYYY-MM-DD
	Dimensions      []string `json:"dimensions,omitempty"`
	SearchType      string   `json:"searchType,omitempty"`
	AggregationType string   `json:"aggregationType,omitempty"`
	RowLimit        int      `json:"rowLimit"`
}

// RawRow mirrors the provider's wire row: N positional key values for the N
// requested dimensions, plus the four fixed metrics. The provider may omit
// trailing keys and any metric; absent values are simply zero.
type RawRow struct {
	Keys        []string
	Clicks      float64
	Impressions float64
	CTR         float64
	Position    float64
}

// PageResponse is one page of provider output.
type PageResponse struct {
	Rows            []RawRow
	AggregationType string
}

// Provider is the remote analytics service boundary. The real client talks
// to the Search Console API; tests substitute a scripted implementation.
type Provider interface {
	ListSites(ctx context.Context) ([]Site, error)
	Query(ctx context.Context, q Query, startRow, pageSize int) (*PageResponse, error)
}

// Row is one normalized analytics row: each requested dimension bound to its
// key value, plus the fixed metrics.
type Row struct {
	Dimensions  map[string]string
	Clicks      int
	Impressions int
	CTR         float64
	Position    float64
}

// MarshalJSON flattens the row into a single object, the shape the CLI and
// MCP consumers expect ({"query": "...", "page": "...", "clicks": 12, ...}).
func (r Row) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(r.Dimensions)+4)
	for name, key := range r.Dimensions {
		flat[name] = key
	}
	flat["clicks"] = r.Clicks
	flat["impressions"] = r.Impressions
	flat["ctr"] = r.CTR
	flat["position"] = r.Position
	return json.Marshal(flat)
}

// Result is a bounded, flattened fetch result. It supersedes (never merges
// with) the previous result held by the session.
type Result struct {
	Rows            []Row  `json:"rows"`
	AggregationType string `json:"responseAggregationType"`
	// TotalFetched counts rows retrieved from the provider before the
	// row-limit cut, so callers can tell truncation from exhaustion.
	TotalFetched int `json:"totalFetched"`
}

// SiteList is the list-sites payload shape.
type SiteList struct {
	Sites      []Site `json:"sites"`
	TotalSites int    `json:"total_sites"`
}

// ProviderError wraps any transport/auth/quota failure from the remote
// provider. Single attempt, no retry; the provider's own message is kept.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

var validSearchTypes = []string{"web", "image", "video", "discover", "googleNews"}

var validAggregationTypes = []string{"auto", "byPage", "byQuery", "byNewsShowcasePanel"}

// ValidSearchType reports whether s is an accepted search type. Empty means
// unset and is valid.
func ValidSearchType(s string) bool {
	if s == "" {
		return true
	}
	for _, v := range validSearchTypes {
		if s == v {
			return true
		}
	}
	return false
}

// ValidAggregationType reports whether s is an accepted aggregation type.
func ValidAggregationType(s string) bool {
	if s == "" {
		return true
	}
	for _, v := range validAggregationTypes {
		if s == v {
			return true
		}
	}
	return false
}

// ValidateQuery rejects malformed queries before they reach the provider
// boundary, keeping invalid dates and enums out of quota.
func ValidateQuery(q Query) error {
	if q.SiteURL == "" {
		return fmt.Errorf("query: site URL is required")
	}
	for _, d := range []string{q.StartDate, q.EndDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("query: date %q must be YYYY-MM-DD", d)
		}
	}
	if !ValidSearchType(q.SearchType) {
		return fmt.Errorf("query: invalid search type %q (valid: %v)", q.SearchType, validSearchTypes)
	}
	if !ValidAggregationType(q.AggregationType) {
		return fmt.Errorf("query: invalid aggregation type %q (valid: %v)", q.AggregationType, validAggregationTypes)
	}
	if q.RowLimit <= 0 {
		return fmt.Errorf("query: row limit must be positive, got %d", q.RowLimit)
	}
	return nil
}
