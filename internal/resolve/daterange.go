// Package resolve turns assistant-proposed, potentially wrong or
// under-specified command fragments into validated query parts. Every field
// extracted from assistant text is a candidate, never ground truth: dates are
// re-derived from the user's own words and sites are checked against the
// authoritative property list before anything reaches the provider.
package resolve

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ReportingLagDays is how long the provider takes to finalize data for a
// date. No query may end later than today minus this lag.
const ReportingLagDays = 2

// DefaultWindowDays is the fallback window (roughly six months) used when
// the user's text carries no recognizable date expression.
const DefaultWindowDays = 6 * 30

// DateRange is an inclusive day range satisfying start <= end <= today-lag.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Format renders the range as the provider's YYYY-MM-DD pair.
func (r DateRange) Format() (string, string) {
	return r.Start.Format("2006-01-02"), r.End.Format("2006-01-02")
}

// Equal compares at day granularity.
func (r DateRange) Equal(other DateRange) bool {
	return sameDay(r.Start, other.Start) && sameDay(r.End, other.End)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var (
	lastMonthsPattern = regexp.MustCompile(`(?i)[úu]ltim[oa]s?\s+(\d+)\s+mes`)
	monthSpanPattern  = regexp.MustCompile(`(?i)de\s+([a-záéíóúñ]+)\s+(\d{4})\s+a\s+([a-záéíóúñ]+)\s+(\d{4})`)
	isoSpanPattern    = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\D+?(\d{4}-\d{2}-\d{2})`)
)

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// DateRangeResolver derives date ranges from natural-language time
// expressions. It is the only date source for queries; anything the
// assistant proposes is discarded, since generative models drift from
// "today" and routinely violate the reporting lag.
type DateRangeResolver struct {
	now func() time.Time
}

// NewDateRangeResolver builds a resolver. A nil clock means time.Now;
// tests inject a fixed clock.
func NewDateRangeResolver(now func() time.Time) *DateRangeResolver {
	if now == nil {
		now = time.Now
	}
	return &DateRangeResolver{now: now}
}

// Resolve derives a range from free text. Patterns tried in order:
//
//  1. "últimos N meses": end = today-lag, start = end - 30*N days.
//  2. "de <mes> <año> a <mes> <año>": first day of the start month through
//     the last day of the end month, clamped to today-lag.
//  3. an explicit YYYY-MM-DD .. YYYY-MM-DD pair in the user's own words,
//     taken literally (swapped if reversed, clamped to today-lag).
//
// Anything else degrades to the default six-month window. Resolve never
// fails and its output always satisfies start <= end <= today-lag.
func (d *DateRangeResolver) Resolve(freeText string) DateRange {
	maxEnd := d.maxEnd()

	if m := lastMonthsPattern.FindStringSubmatch(freeText); m != nil {
		months, err := strconv.Atoi(m[1])
		if err == nil && months > 0 {
			return DateRange{Start: maxEnd.AddDate(0, 0, -30*months), End: maxEnd}
		}
	}

	if m := monthSpanPattern.FindStringSubmatch(freeText); m != nil {
		startMonth, okStart := spanishMonths[strings.ToLower(m[1])]
		endMonth, okEnd := spanishMonths[strings.ToLower(m[3])]
		if okStart && okEnd {
			startYear, _ := strconv.Atoi(m[2])
			endYear, _ := strconv.Atoi(m[4])
			start := time.Date(startYear, startMonth, 1, 0, 0, 0, 0, time.UTC)
			// Last day of the end month.
			end := time.Date(endYear, endMonth, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
			return clampRange(start, end, maxEnd)
		}
	}

	if m := isoSpanPattern.FindStringSubmatch(freeText); m != nil {
		start, errStart := time.Parse("2006-01-02", m[1])
		end, errEnd := time.Parse("2006-01-02", m[2])
		if errStart == nil && errEnd == nil {
			if start.After(end) {
				start, end = end, start
			}
			return clampRange(start, end, maxEnd)
		}
	}

	return DateRange{Start: maxEnd.AddDate(0, 0, -DefaultWindowDays), End: maxEnd}
}

// maxEnd is today minus the reporting lag, truncated to a date.
func (d *DateRangeResolver) maxEnd() time.Time {
	y, m, day := d.now().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -ReportingLagDays)
}

func clampRange(start, end, maxEnd time.Time) DateRange {
	if end.After(maxEnd) {
		end = maxEnd
	}
	if start.After(end) {
		start = end
	}
	return DateRange{Start: start, End: end}
}
