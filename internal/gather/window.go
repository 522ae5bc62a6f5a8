package gather

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned when explicit window bounds cannot be used.
var ErrInvalidWindow = errors.New("invalid date window")

const dateLayout = "2006-01-02"

// Window is an inclusive range of calendar dates. Both bounds are midnight
// UTC of their calendar day.
type Window struct {
	Start time.Time
	End   time.Time
}

// PreviousWeek returns the Sunday–Saturday week before the week containing
// anchor. A Sunday anchor counts as the last day of its week, so
// 2024-06-09 (Sun) yields 2024-05-26..2024-06-01 and 2024-06-12 (Wed)
// yields 2024-06-02..2024-06-08. End is always strictly before anchor.
func PreviousWeek(anchor time.Time) Window {
	day := civilDate(anchor)
	offset := int(day.Weekday())
	if offset == 0 {
		offset = 7
	}
	start := day.AddDate(0, 0, -(offset + 7))
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// ExplicitWindow returns a window with the given bounds, unchecked.
func ExplicitWindow(start, end time.Time) Window {
	return Window{Start: civilDate(start), End: civilDate(end)}
}

// FolderName returns the canonical run directory name, YYYYMMDD-YYYYMMDD.
func (w Window) FolderName() string {
	return w.Start.Format("20060102") + "-" + w.End.Format("20060102")
}

// StartDate returns the start bound formatted as YYYY-MM-DD.
func (w Window) StartDate() string { return w.Start.Format(dateLayout) }

// EndDate returns the end bound formatted as YYYY-MM-DD.
func (w Window) EndDate() string { return w.End.Format(dateLayout) }

// Days returns the number of calendar days in the window, inclusive.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

func (w Window) String() string {
	return w.StartDate() + ".." + w.EndDate()
}

// WindowOptions carries the user's window selection. Start and End must be
// given together; Date is an anchor for PreviousWeek. When none are set the
// anchor comes from Now.
type WindowOptions struct {
	Start string
	End   string
	Date  string
	Now   func() time.Time
}

// ResolveWindow turns CLI-style options into a Window. Malformed dates, a
// lone bound, or a start after the end all wrap ErrInvalidWindow.
func ResolveWindow(opts WindowOptions) (Window, error) {
	if (opts.Start == "") != (opts.End == "") {
		return Window{}, fmt.Errorf("%w: --start and --end must be given together", ErrInvalidWindow)
	}

	if opts.Start != "" {
		start, err := ParseDate(opts.Start)
		if err != nil {
			return Window{}, err
		}
		end, err := ParseDate(opts.End)
		if err != nil {
			return Window{}, err
		}
		if start.After(end) {
			return Window{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, opts.Start, opts.End)
		}
		return ExplicitWindow(start, end), nil
	}

	if opts.Date != "" {
		anchor, err := ParseDate(opts.Date)
		if err != nil {
			return Window{}, err
		}
		return PreviousWeek(anchor), nil
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	return PreviousWeek(now()), nil
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parsing %q: %v", ErrInvalidWindow, s, err)
	}
	return t, nil
}

// civilDate drops the clock and zone of t while keeping its calendar day as
// seen in t's own location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
