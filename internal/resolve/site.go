package resolve

import (
	"strings"

	"searchlens-mcp-server/internal/gsc"
)

// SiteResolutionKind tags the outcome of resolving a site candidate against
// the authoritative property list.
type SiteResolutionKind string

const (
	// SiteResolved means exactly one property matched; safe to query.
	SiteResolved SiteResolutionKind = "resolved"
	// SiteSelectionRequired means no usable candidate was supplied (or an
	// unrecognized domain was); the caller must ask the user to pick from
	// the real list before any fetch.
	SiteSelectionRequired SiteResolutionKind = "selection_required"
	// SiteAmbiguous means a partial name matched several properties.
	SiteAmbiguous SiteResolutionKind = "ambiguous"
	// SiteNotFound means a partial name matched nothing.
	SiteNotFound SiteResolutionKind = "not_found"
)

// SiteResolution is the tagged result of ResolveSite. Matches carries the
// ambiguous candidates, or the full property list when a selection is
// required.
type SiteResolution struct {
	Kind      SiteResolutionKind
	Site      gsc.Site
	Matches   []gsc.Site
	Candidate string
}

// ResolveSite maps a possibly partial, hallucinated, or missing site
// identifier onto exactly one known property, or reports why it cannot.
//
// A candidate containing a dot is treated as a fully qualified host/URL and
// must be an exact member of the known list; a plausible-looking domain is
// never substituted for a real property. A candidate without a dot is an
// informal name and is substring-matched (case-sensitive, unanchored)
// against the list.
func ResolveSite(candidate string, known []gsc.Site) SiteResolution {
	candidate = strings.TrimSpace(candidate)

	if candidate == "" {
		// Even with a single known property the core asks for explicit
		// confirmation; auto-selection is the shell's call, not ours.
		return SiteResolution{Kind: SiteSelectionRequired, Matches: known, Candidate: candidate}
	}

	if strings.Contains(candidate, ".") {
		for _, site := range known {
			if siteMatchesExact(candidate, site) {
				return SiteResolution{Kind: SiteResolved, Site: site, Candidate: candidate}
			}
		}
		return SiteResolution{Kind: SiteSelectionRequired, Matches: known, Candidate: candidate}
	}

	var matches []gsc.Site
	for _, site := range known {
		if strings.Contains(site.URL, candidate) {
			matches = append(matches, site)
		}
	}
	switch len(matches) {
	case 1:
		return SiteResolution{Kind: SiteResolved, Site: matches[0], Candidate: candidate}
	case 0:
		return SiteResolution{Kind: SiteNotFound, Candidate: candidate}
	default:
		return SiteResolution{Kind: SiteAmbiguous, Matches: matches, Candidate: candidate}
	}
}

// siteMatchesExact accepts the property URL verbatim plus its common spoken
// forms: trailing slash omitted, bare host without scheme, and the host of a
// domain property ("sc-domain:example.com" matched by "example.com").
func siteMatchesExact(candidate string, site gsc.Site) bool {
	if candidate == site.URL {
		return true
	}
	if candidate == strings.TrimSuffix(site.URL, "/") {
		return true
	}
	if bareHost(candidate) == bareHost(site.URL) {
		return true
	}
	return false
}

func bareHost(s string) string {
	s = strings.TrimPrefix(s, "sc-domain:")
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimSuffix(s, "/")
}
