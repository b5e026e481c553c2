package mcp

import (
	"context"
	"fmt"
	"strings"

	"searchlens-mcp-server/internal/gsc"
)

type ListSitesTool struct {
	provider gsc.Provider
}

func (t *ListSitesTool) Name() string { return "list-sites" }
func (t *ListSitesTool) Description() string {
	return `List every Search Console property the configured credentials can read.

USE THIS FIRST to discover which properties exist before querying analytics.
Property URLs come in two forms:
- URL-prefix: https://www.example.com/
- Domain: sc-domain:example.com

Returns: {sites: [{siteUrl, permissionLevel}], total_sites}.`
}
func (t *ListSitesTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *ListSitesTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	sites, err := t.provider.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	return gsc.SiteList{Sites: sites, TotalSites: len(sites)}, nil
}

type SearchAnalyticsTool struct {
	fetcher         *gsc.Fetcher
	defaultRowLimit int
	defaultFetchAll bool
}

func (t *SearchAnalyticsTool) Name() string { return "search-analytics" }
func (t *SearchAnalyticsTool) Description() string {
	return `Run a Search Console search-analytics query against one property.

PREREQUISITE: The site_url must be a property returned by list-sites, verbatim.

Dates are YYYY-MM-DD. Search Console data lags about two days behind; asking
for today's date returns empty rows, not an error.

With fetch_all the query pages through the property until row_limit rows are
collected or the data runs out. Without it, a single page is returned.

Returns: {rows: [...], responseAggregationType} where each row carries its
dimension values plus clicks, impressions, ctr and position.`
}
func (t *SearchAnalyticsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"site_url": map[string]interface{}{
				"type":        "string",
				"description": "Property URL exactly as list-sites returned it",
			},
			"start_date": map[string]interface{}{
				"type":        "string",
				"description": "Inclusive start date, YYYY-MM-DD",
			},
			"end_date": map[string]interface{}{
				"type":        "string",
				"description": "Inclusive end date, YYYY-MM-DD",
			},
			"dimensions": map[string]interface{}{
				"type":        "string",
				"description": "Comma-separated dimensions (query, page, country, device, date)",
			},
			"type": map[string]interface{}{
				"type":        "string",
				"description": "Search type: web, image, video, discover or googleNews",
			},
			"aggregation_type": map[string]interface{}{
				"type":        "string",
				"description": "Aggregation: auto, byPage, byQuery or byNewsShowcasePanel",
			},
			"row_limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum rows to return (default from config)",
			},
			"fetch_all": map[string]interface{}{
				"type":        "boolean",
				"description": "Page until row_limit rows are collected or the data runs out",
			},
		},
		"required": []string{"site_url", "start_date", "end_date"},
	}
}
func (t *SearchAnalyticsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	siteURL := getStringArg(args, "site_url")
	if siteURL == "" {
		return nil, fmt.Errorf("site_url is required")
	}
	startDate := getStringArg(args, "start_date")
	endDate := getStringArg(args, "end_date")
	if startDate == "" || endDate == "" {
		return nil, fmt.Errorf("start_date and end_date are required")
	}

	q := gsc.Query{
		SiteURL:         siteURL,
		StartDate:       startDate,
		EndDate:         endDate,
		SearchType:      getStringArg(args, "type"),
		AggregationType: getStringArg(args, "aggregation_type"),
		RowLimit:        getIntArg(args, "row_limit", t.defaultRowLimit),
	}
	if dims := getStringArg(args, "dimensions"); dims != "" {
		for _, d := range strings.Split(dims, ",") {
			if d = strings.TrimSpace(d); d != "" {
				q.Dimensions = append(q.Dimensions, d)
			}
		}
	}

	fetchAll := getBoolArg(args, "fetch_all", t.defaultFetchAll)
	return t.fetcher.Fetch(ctx, q, fetchAll)
}
