package gather

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPreviousWeekExamples(t *testing.T) {
	cases := []struct {
		name       string
		anchor     time.Time
		start, end time.Time
	}{
		{"wednesday", date(2024, 6, 12), date(2024, 6, 2), date(2024, 6, 8)},
		{"sunday rolls back a full week", date(2024, 6, 9), date(2024, 5, 26), date(2024, 6, 1)},
		{"monday", date(2024, 6, 10), date(2024, 6, 2), date(2024, 6, 8)},
		{"saturday", date(2024, 6, 15), date(2024, 6, 2), date(2024, 6, 8)},
		{"year boundary", date(2025, 1, 2), date(2024, 12, 22), date(2024, 12, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := PreviousWeek(tc.anchor)
			if !w.Start.Equal(tc.start) || !w.End.Equal(tc.end) {
				t.Errorf("PreviousWeek(%s) = %s, want %s..%s",
					tc.anchor.Format(dateLayout), w, tc.start.Format(dateLayout), tc.end.Format(dateLayout))
			}
		})
	}
}

func TestPreviousWeekInvariants(t *testing.T) {
	anchor := date(2023, 1, 1)
	for i := 0; i < 800; i++ {
		a := anchor.AddDate(0, 0, i)
		w := PreviousWeek(a)

		if w.Start.Weekday() != time.Sunday {
			t.Fatalf("PreviousWeek(%s).Start is a %s", a.Format(dateLayout), w.Start.Weekday())
		}
		if !w.End.Equal(w.Start.AddDate(0, 0, 6)) {
			t.Fatalf("PreviousWeek(%s) spans %s", a.Format(dateLayout), w)
		}
		if !w.End.Before(a) {
			t.Fatalf("PreviousWeek(%s).End %s is not before the anchor", a.Format(dateLayout), w.EndDate())
		}
	}
}

func TestPreviousWeekStableWithinISOWeek(t *testing.T) {
	// ISO week 2024-W23 runs Monday 2024-06-03 through Sunday 2024-06-09.
	want := PreviousWeek(date(2024, 6, 3))
	for d := 4; d <= 9; d++ {
		if got := PreviousWeek(date(2024, 6, d)); got != want {
			t.Errorf("PreviousWeek(2024-06-%02d) = %s, want %s", d, got, want)
		}
	}
}

func TestPreviousWeekIgnoresClock(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*3600)
	late := time.Date(2024, 6, 12, 23, 30, 0, 0, loc)
	if got, want := PreviousWeek(late), PreviousWeek(date(2024, 6, 12)); got != want {
		t.Errorf("PreviousWeek(late evening) = %s, want %s", got, want)
	}
}

func TestWindowFormatting(t *testing.T) {
	w := ExplicitWindow(date(2024, 6, 2), date(2024, 6, 8))
	if got := w.FolderName(); got != "20240602-20240608" {
		t.Errorf("FolderName() = %q, want %q", got, "20240602-20240608")
	}
	if w.StartDate() != "2024-06-02" || w.EndDate() != "2024-06-08" {
		t.Errorf("StartDate/EndDate = %s/%s", w.StartDate(), w.EndDate())
	}
	if w.Days() != 7 {
		t.Errorf("Days() = %d, want 7", w.Days())
	}
}

func TestResolveWindow(t *testing.T) {
	now := func() time.Time { return date(2024, 6, 12) }

	w, err := ResolveWindow(WindowOptions{Now: now})
	if err != nil {
		t.Fatalf("ResolveWindow(default): %v", err)
	}
	if w.FolderName() != "20240602-20240608" {
		t.Errorf("default window = %s", w.FolderName())
	}

	w, err = ResolveWindow(WindowOptions{Date: "2024-06-09", Now: now})
	if err != nil {
		t.Fatalf("ResolveWindow(date): %v", err)
	}
	if w.FolderName() != "20240526-20240601" {
		t.Errorf("anchored window = %s", w.FolderName())
	}

	w, err = ResolveWindow(WindowOptions{Start: "2024-01-01", End: "2024-01-10", Date: "2024-06-09"})
	if err != nil {
		t.Fatalf("ResolveWindow(explicit): %v", err)
	}
	if w.FolderName() != "20240101-20240110" {
		t.Errorf("explicit window = %s, explicit bounds should win over --date", w.FolderName())
	}
	if w.Days() != 10 {
		t.Errorf("explicit window Days() = %d, want 10", w.Days())
	}
}

func TestResolveWindowErrors(t *testing.T) {
	cases := []struct {
		name string
		opts WindowOptions
	}{
		{"start only", WindowOptions{Start: "2024-06-02"}},
		{"end only", WindowOptions{End: "2024-06-08"}},
		{"bad start", WindowOptions{Start: "06/02/2024", End: "2024-06-08"}},
		{"bad date", WindowOptions{Date: "yesterday"}},
		{"reversed", WindowOptions{Start: "2024-06-08", End: "2024-06-02"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveWindow(tc.opts)
			if !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("ResolveWindow() error = %v, want ErrInvalidWindow", err)
			}
		})
	}
}
