package gsc

import "context"

// MaxPageSize is the provider's hard cap on rows per request.
const MaxPageSize = 25000

// Fetcher drives the provider across as many page requests as needed and
// normalizes the raw keyed rows into flat records.
type Fetcher struct {
	provider Provider
	// maxPageSize is MaxPageSize in production; tests shrink it to exercise
	// pagination without 25k-row fixtures.
	maxPageSize int
}

// NewFetcher wraps a provider. The fetcher itself is stateless; it is safe
// to share across queries.
func NewFetcher(p Provider) *Fetcher {
	return &Fetcher{provider: p, maxPageSize: MaxPageSize}
}

// Fetch executes the query. With fetchAll false exactly one page request is
// issued regardless of the row limit (legacy single-page mode). With
// fetchAll true it keeps paging until the provider returns a short page or
// the row limit is reached, then truncates any overshoot from the last page.
//
// The query is never mutated and each call returns a fresh Result. Provider
// failures are returned after a single attempt, wrapped with the provider's
// own message.
func (f *Fetcher) Fetch(ctx context.Context, q Query, fetchAll bool) (*Result, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}

	pageSize := q.RowLimit
	if pageSize > f.maxPageSize {
		pageSize = f.maxPageSize
	}

	var (
		raw         []RawRow
		startRow    int
		aggregation string
	)
	for {
		page, err := f.provider.Query(ctx, q, startRow, pageSize)
		if err != nil {
			return nil, &ProviderError{Op: "query", Err: err}
		}
		raw = append(raw, page.Rows...)
		if page.AggregationType != "" {
			aggregation = page.AggregationType
		}

		fetched := len(page.Rows)
		startRow += fetched
		if !fetchAll || fetched < pageSize || len(raw) >= q.RowLimit {
			break
		}
	}

	total := len(raw)
	if total > q.RowLimit {
		// The last page may overshoot the limit.
		raw = raw[:q.RowLimit]
	}

	return &Result{
		Rows:            normalizeRows(raw, q.Dimensions),
		AggregationType: aggregation,
		TotalFetched:    total,
	}, nil
}

// normalizeRows binds positional keys to dimension names by index. A raw row
// shorter than the dimension list is not a format error; trailing dimensions
// are left unpopulated. Metrics absent from a raw row are already zero.
func normalizeRows(raw []RawRow, dimensions []string) []Row {
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		row := Row{
			Dimensions:  make(map[string]string, len(dimensions)),
			Clicks:      int(r.Clicks),
			Impressions: int(r.Impressions),
			CTR:         r.CTR,
			Position:    r.Position,
		}
		for i, name := range dimensions {
			if i >= len(r.Keys) {
				break
			}
			row.Dimensions[name] = r.Keys[i]
		}
		rows = append(rows, row)
	}
	return rows
}
