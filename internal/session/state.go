// Package session holds the per-conversation state machine and the turn
// engine that drives one user turn through the oracle, the resolution layer
// and the paginated fetcher. State transitions are pure functions over a
// value-type State so the machine is testable without an interactive loop.
package session

import (
	"fmt"
	"strings"

	"searchlens-mcp-server/internal/gsc"
	"searchlens-mcp-server/internal/resolve"
)

// Mode selects how results are presented.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
	ModeBoth Mode = "both"
)

// State is the conversation state carried across turns. It lives in memory
// for one run and is never persisted.
type State struct {
	Mode         Mode
	ActiveSite   *gsc.Site
	LastResult   *gsc.Result
	LastQuestion string
	LastRange    *resolve.DateRange
}

// NewState starts a session in text mode with everything else empty.
func NewState() State {
	return State{Mode: ModeText}
}

// modeWords maps both Spanish and English mode names onto modes.
var modeWords = map[string]Mode{
	"texto": ModeText,
	"text":  ModeText,
	"json":  ModeJSON,
	"ambos": ModeBoth,
	"both":  ModeBoth,
}

// ParseModeCommand recognizes "/modo X" and "/mode X". The bool reports
// whether the input was a mode command at all; the error reports an
// unrecognized mode word.
func ParseModeCommand(input string) (Mode, bool, error) {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	var rest string
	switch {
	case strings.HasPrefix(trimmed, "/modo"):
		rest = strings.TrimPrefix(trimmed, "/modo")
	case strings.HasPrefix(trimmed, "/mode"):
		rest = strings.TrimPrefix(trimmed, "/mode")
	default:
		return "", false, nil
	}
	word := strings.TrimSpace(rest)
	mode, ok := modeWords[word]
	if !ok {
		return "", true, fmt.Errorf("valid modes: texto, json, ambos")
	}
	return mode, true, nil
}

// WithMode switches the presentation mode and clears the active site, so
// the next query forces the user to re-confirm scope under the new mode.
func (s State) WithMode(m Mode) State {
	s.Mode = m
	s.ActiveSite = nil
	return s
}

// DetectSiteMention scans raw user text for a recognizable form of any known
// property (bare host, full URL, or domain-property token). A mention of a
// different property switches the active site and drops the cached result
// and range, since stale data must not be shown under a changed scope.
// The second return reports whether the site changed this turn.
func DetectSiteMention(s State, input string, known []gsc.Site) (State, bool) {
	for _, site := range known {
		if !mentionsSite(input, site) {
			continue
		}
		if s.ActiveSite != nil && s.ActiveSite.URL == site.URL {
			return s, false
		}
		bound := site
		s.ActiveSite = &bound
		s.LastResult = nil
		s.LastRange = nil
		return s, true
	}
	return s, false
}

func mentionsSite(input string, site gsc.Site) bool {
	if strings.Contains(input, site.URL) {
		return true
	}
	host := site.URL
	host = strings.TrimPrefix(host, "sc-domain:")
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")
	return host != "" && strings.Contains(input, host)
}

// exitWords end the session.
var exitWords = map[string]bool{"salir": true, "exit": true, "quit": true}

// IsExit reports whether the input is an exit keyword.
func IsExit(input string) bool {
	return exitWords[strings.ToLower(strings.TrimSpace(input))]
}

// NeedsFetch decides whether a turn requires a remote call: the site changed
// this turn, the resolved range differs from the cached one, or there is
// nothing cached. Otherwise the cached result may be reused for follow-ups.
func (s State) NeedsFetch(siteChanged bool, next resolve.DateRange) bool {
	if siteChanged || s.LastResult == nil || s.LastRange == nil {
		return true
	}
	return !s.LastRange.Equal(next)
}

// WithResult records a successful fetch; the new payload supersedes the old
// one outright.
func (s State) WithResult(question string, result *gsc.Result, rng resolve.DateRange) State {
	s.LastResult = result
	s.LastQuestion = question
	s.LastRange = &rng
	return s
}
