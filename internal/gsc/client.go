package gsc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	searchconsole "google.golang.org/api/searchconsole/v1"
)

// Client is the real Search Console implementation of Provider, using
// service-account credentials with read-only scope.
type Client struct {
	svc *searchconsole.Service
}

// NewClient builds a Search Console client from a service-account
// credentials file.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	if credentialsFile == "" {
		return nil, errors.New("gsc: credentials file is required")
	}
	svc, err := searchconsole.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(searchconsole.WebmastersReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("gsc: initializing Search Console service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListSites returns the authoritative property list for the account.
func (c *Client) ListSites(ctx context.Context) ([]Site, error) {
	resp, err := c.svc.Sites.List().Context(ctx).Do()
	if err != nil {
		return nil, &ProviderError{Op: "list-sites", Err: err}
	}

	sites := make([]Site, 0, len(resp.SiteEntry))
	for _, entry := range resp.SiteEntry {
		sites = append(sites, Site{
			URL:             entry.SiteUrl,
			PermissionLevel: entry.PermissionLevel,
		})
	}
	return sites, nil
}

// Query issues a single search-analytics page request. Pagination policy
// lives in the Fetcher; this method only translates one page.
func (c *Client) Query(ctx context.Context, q Query, startRow, pageSize int) (*PageResponse, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}

	req := &searchconsole.SearchAnalyticsQueryRequest{
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
		Dimensions: q.Dimensions,
		RowLimit:   int64(pageSize),
		StartRow:   int64(startRow),
	}
	if q.SearchType != "" {
		req.SearchType = q.SearchType
	}
	if q.AggregationType != "" {
		req.AggregationType = q.AggregationType
	}

	resp, err := c.svc.Searchanalytics.Query(q.SiteURL, req).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	page := &PageResponse{
		Rows:            make([]RawRow, 0, len(resp.Rows)),
		AggregationType: resp.ResponseAggregationType,
	}
	for _, row := range resp.Rows {
		page.Rows = append(page.Rows, RawRow{
			Keys:        row.Keys,
			Clicks:      row.Clicks,
			Impressions: row.Impressions,
			CTR:         row.Ctr,
			Position:    row.Position,
		})
	}
	return page, nil
}
