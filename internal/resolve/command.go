package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"searchlens-mcp-server/internal/gsc"
)

// AssemblyKind classifies what the assistant's proposed text turned into.
type AssemblyKind string

const (
	// AssemblyQuery carries a fully bound analytics query.
	AssemblyQuery AssemblyKind = "query"
	// AssemblySiteList is the parameterless list-sites action.
	AssemblySiteList AssemblyKind = "site_list"
	// AssemblyInteraction means site resolution needs user input first;
	// the resolution is forwarded unchanged and no fetch may happen.
	AssemblyInteraction AssemblyKind = "interaction"
	// AssemblyRejected means the command parsed but carried invalid
	// parameters (bad enum, bad limit).
	AssemblyRejected AssemblyKind = "rejected"
	// AssemblyNonActionable means the text is prose, not a command.
	AssemblyNonActionable AssemblyKind = "non_actionable"
)

// Assembly is the assembler's tagged output.
type Assembly struct {
	Kind       AssemblyKind
	Query      *gsc.Query
	Range      DateRange
	Resolution SiteResolution
	// Note surfaces best-effort relaxations (e.g. a page question with no
	// extractable URL falling back to whole-domain scope).
	Note string
	// Reason explains a rejection.
	Reason string
}

// AssembleInput bundles everything one assembly needs. UserText is the raw
// natural-language question; Proposed is the assistant's command text, used
// only for action type, site token, dimensions, and type/aggregation hints.
type AssembleInput struct {
	Proposed        string
	UserText        string
	Known           []gsc.Site
	ActiveSiteURL   string
	DefaultRowLimit int
}

var (
	siteFlagPattern        = regexp.MustCompile(`--site-url[ =](\S+)`)
	dimensionsFlagPattern  = regexp.MustCompile(`--dimensions[ =](\S+)`)
	searchTypeFlagPattern  = regexp.MustCompile(`--type[ =](\S+)`)
	aggregationFlagPattern = regexp.MustCompile(`--aggregation-type[ =](\S+)`)
	rowLimitFlagPattern    = regexp.MustCompile(`--row-limit[ =](\S+)`)

	pageHintPattern = regexp.MustCompile(`(?i)p[áa]gina|ruta|\burl\b`)
	pageURLPattern  = regexp.MustCompile(`https?://[\w./-]+`)
)

// Assembler is the single point where an assistant-suggested command is
// allowed to become an executable query.
type Assembler struct {
	dates *DateRangeResolver
}

// NewAssembler builds an assembler around a date resolver.
func NewAssembler(dates *DateRangeResolver) *Assembler {
	return &Assembler{dates: dates}
}

// Assemble classifies the proposed text and, for search-analytics, produces
// a fully bound query. Dates embedded in the proposal are always discarded
// and re-derived from the user's own question; the site token is validated
// against the known list, falling back to the session's active site when the
// proposal carries none.
func (a *Assembler) Assemble(in AssembleInput) Assembly {
	// The model occasionally wraps arguments in quotes; strip before parsing.
	proposed := strings.TrimSpace(strings.ReplaceAll(in.Proposed, `"`, ""))

	switch {
	case strings.HasPrefix(proposed, "list-sites"):
		return Assembly{Kind: AssemblySiteList}
	case strings.HasPrefix(proposed, "search-analytics"):
		// Fall through to assembly below.
	default:
		return Assembly{Kind: AssemblyNonActionable}
	}

	candidate := flagValue(siteFlagPattern, proposed)
	if candidate == "" {
		candidate = in.ActiveSiteURL
	}
	resolution := ResolveSite(candidate, in.Known)
	if resolution.Kind != SiteResolved {
		return Assembly{Kind: AssemblyInteraction, Resolution: resolution}
	}

	dimensions := splitDimensions(flagValue(dimensionsFlagPattern, proposed))
	note := ""
	if pageHintPattern.MatchString(in.UserText) {
		dimensions = appendDimension(dimensions, "page")
		if !pageURLPattern.MatchString(in.UserText) {
			note = "no page URL detected; answering for the whole property"
		}
	}

	searchType := flagValue(searchTypeFlagPattern, proposed)
	if !gsc.ValidSearchType(searchType) {
		return Assembly{Kind: AssemblyRejected, Reason: fmt.Sprintf("invalid search type %q", searchType)}
	}
	aggregationType := flagValue(aggregationFlagPattern, proposed)
	if !gsc.ValidAggregationType(aggregationType) {
		return Assembly{Kind: AssemblyRejected, Reason: fmt.Sprintf("invalid aggregation type %q", aggregationType)}
	}

	rowLimit := in.DefaultRowLimit
	if raw := flagValue(rowLimitFlagPattern, proposed); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			rowLimit = n
		}
	}
	if rowLimit <= 0 {
		rowLimit = 1000
	}

	// Dates come from the question, never from the proposal.
	rng := a.dates.Resolve(in.UserText)
	start, end := rng.Format()

	return Assembly{
		Kind: AssemblyQuery,
		Query: &gsc.Query{
			SiteURL:         resolution.Site.URL,
			StartDate:       start,
			EndDate:         end,
			Dimensions:      dimensions,
			SearchType:      searchType,
			AggregationType: aggregationType,
			RowLimit:        rowLimit,
		},
		Range:      rng,
		Resolution: resolution,
		Note:       note,
	}
}

func flagValue(pattern *regexp.Regexp, command string) string {
	m := pattern.FindStringSubmatch(command)
	if m == nil {
		return ""
	}
	return m[1]
}

// splitDimensions parses a comma-separated list preserving order and
// dropping duplicates; order matters because it defines the positional key
// mapping in the provider response.
func splitDimensions(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = appendDimension(out, part)
	}
	return out
}

func appendDimension(dims []string, name string) []string {
	for _, d := range dims {
		if d == name {
			return dims
		}
	}
	return append(dims, name)
}
