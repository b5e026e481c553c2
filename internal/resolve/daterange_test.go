package resolve

import (
	"testing"
	"time"
)

// fixedNow pins "today" so expected ranges are deterministic.
var fixedNow = time.Date(2025, time.August, 28, 15, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testResolver() *DateRangeResolver {
	return NewDateRangeResolver(fixedClock)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveLastMonths(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		months int
	}{
		{"masculine plural", "dame los últimos 3 meses de clicks", 3},
		{"no accent", "ultimos 6 meses", 6},
		{"singular", "último 1 mes", 1},
		{"feminine", "últimas 2 meses", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := testResolver().Resolve(tc.input)
			wantEnd := day(2025, time.August, 26)
			if !sameDay(got.End, wantEnd) {
				t.Errorf("expected end %v, got %v", wantEnd, got.End)
			}
			wantStart := wantEnd.AddDate(0, 0, -30*tc.months)
			if !sameDay(got.Start, wantStart) {
				t.Errorf("expected start %v, got %v", wantStart, got.Start)
			}
		})
	}
}

func TestResolveLastMonthsIgnoresOtherDateText(t *testing.T) {
	// The months pattern wins even when the same input carries explicit
	// dates elsewhere.
	got := testResolver().Resolve("últimos 3 meses, no de 2024-01-01 a 2024-02-01")
	if !sameDay(got.End, day(2025, time.August, 26)) {
		t.Errorf("expected end today-2d, got %v", got.End)
	}
	if !sameDay(got.Start, day(2025, time.August, 26).AddDate(0, 0, -90)) {
		t.Errorf("expected 90-day window, got start %v", got.Start)
	}
}

func TestResolveMonthSpan(t *testing.T) {
	t.Run("closed span in the past", func(t *testing.T) {
		got := testResolver().Resolve("datos de enero 2025 a marzo 2025")
		if !sameDay(got.Start, day(2025, time.January, 1)) {
			t.Errorf("expected start 2025-01-01, got %v", got.Start)
		}
		if !sameDay(got.End, day(2025, time.March, 31)) {
			t.Errorf("expected end 2025-03-31, got %v", got.End)
		}
	})

	t.Run("december end uses the 31st", func(t *testing.T) {
		got := testResolver().Resolve("de octubre 2024 a diciembre 2024")
		if !sameDay(got.End, day(2024, time.December, 31)) {
			t.Errorf("expected end 2024-12-31, got %v", got.End)
		}
	})

	t.Run("end clamped to reporting lag", func(t *testing.T) {
		got := testResolver().Resolve("de junio 2025 a diciembre 2025")
		if !sameDay(got.End, day(2025, time.August, 26)) {
			t.Errorf("expected end clamped to today-2d, got %v", got.End)
		}
		if !sameDay(got.Start, day(2025, time.June, 1)) {
			t.Errorf("expected start 2025-06-01, got %v", got.Start)
		}
	})

	t.Run("fully future span collapses onto the lag boundary", func(t *testing.T) {
		got := testResolver().Resolve("de octubre 2025 a noviembre 2025")
		if got.Start.After(got.End) {
			t.Errorf("invariant start<=end violated: %v > %v", got.Start, got.End)
		}
		if !sameDay(got.End, day(2025, time.August, 26)) {
			t.Errorf("expected end today-2d, got %v", got.End)
		}
	})
}

func TestResolveExplicitISORange(t *testing.T) {
	got := testResolver().Resolve("del 2025-02-01 al 2025-03-15 por favor")
	if !sameDay(got.Start, day(2025, time.February, 1)) || !sameDay(got.End, day(2025, time.March, 15)) {
		t.Errorf("unexpected range %v - %v", got.Start, got.End)
	}

	t.Run("reversed pair is swapped", func(t *testing.T) {
		got := testResolver().Resolve("2025-03-15 hasta 2025-02-01")
		if !sameDay(got.Start, day(2025, time.February, 1)) || !sameDay(got.End, day(2025, time.March, 15)) {
			t.Errorf("unexpected range %v - %v", got.Start, got.End)
		}
	})
}

func TestResolveFallbackWindow(t *testing.T) {
	inputs := []string{
		"",
		"cuántos clicks tuvo mi web",
		"qué tal va el SEO esta temporada",
	}
	for _, input := range inputs {
		got := testResolver().Resolve(input)
		wantEnd := day(2025, time.August, 26)
		if !sameDay(got.End, wantEnd) {
			t.Errorf("input %q: expected end %v, got %v", input, wantEnd, got.End)
		}
		if !sameDay(got.Start, wantEnd.AddDate(0, 0, -DefaultWindowDays)) {
			t.Errorf("input %q: expected 180-day window, got start %v", input, got.Start)
		}
	}
}

func TestResolveInvariantHolds(t *testing.T) {
	inputs := []string{
		"últimos 24 meses",
		"de diciembre 2025 a enero 2026",
		"2025-12-01 a 2026-01-01",
		"nada que parsear",
		"de nomes 9999 a otromes 9999",
	}
	maxEnd := day(2025, time.August, 26)
	for _, input := range inputs {
		got := testResolver().Resolve(input)
		if got.Start.After(got.End) {
			t.Errorf("input %q: start %v after end %v", input, got.Start, got.End)
		}
		if got.End.After(maxEnd) {
			t.Errorf("input %q: end %v beyond reporting lag %v", input, got.End, maxEnd)
		}
	}
}

func TestDateRangeEqual(t *testing.T) {
	a := DateRange{Start: day(2025, time.January, 1), End: day(2025, time.March, 31)}
	b := DateRange{Start: day(2025, time.January, 1).Add(5 * time.Hour), End: day(2025, time.March, 31)}
	if !a.Equal(b) {
		t.Error("ranges on the same days must compare equal")
	}
	c := DateRange{Start: day(2025, time.January, 2), End: day(2025, time.March, 31)}
	if a.Equal(c) {
		t.Error("different start days must not compare equal")
	}
}

func TestFormat(t *testing.T) {
	r := DateRange{Start: day(2025, time.February, 1), End: day(2025, time.March, 15)}
	start, end := r.Format()
	if start != "2025-02-01" || end != "2025-03-15" {
		t.Errorf("unexpected formatting: %s, %s", start, end)
	}
}
