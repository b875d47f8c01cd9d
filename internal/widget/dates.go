package widget

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/lsv-booking-widget/internal/bookingapi"
)

const (
	isoDate    = "2006-01-02"
	isoMillis  = "2006-01-02T15:04:05.000Z"
	dateWindow = 14
)

// dayAbbr is indexed by time.Weekday and matches Slot.DaysOfWeek values.
var dayAbbr = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

var dayTitles = map[string]string{
	"sun": "Sun", "mon": "Mon", "tue": "Tue", "wed": "Wed",
	"thu": "Thu", "fri": "Fri", "sat": "Sat",
}

// DateOption is one cell of the date grid.
type DateOption struct {
	Date    string
	Label   string
	Day     int
	Weekday time.Weekday
}

// NextDates returns the fourteen calendar days starting with today at local
// midnight in loc.
func NextDates(now time.Time, loc *time.Location) []DateOption {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	out := make([]DateOption, 0, dateWindow)
	for i := 0; i < dateWindow; i++ {
		d := today.AddDate(0, 0, i)
		out = append(out, DateOption{
			Date:    d.Format(isoDate),
			Label:   d.Format("Jan 2"),
			Day:     d.Day(),
			Weekday: d.Weekday(),
		})
	}
	return out
}

// IsDateAllowed reports whether the slot accepts bookings on weekday. It is
// false when no slot is selected.
func IsDateAllowed(slot *bookingapi.Slot, weekday time.Weekday) bool {
	if slot == nil || weekday < time.Sunday || weekday > time.Saturday {
		return false
	}
	want := dayAbbr[weekday]
	for _, d := range slot.DaysOfWeek {
		if strings.EqualFold(strings.TrimSpace(d), want) {
			return true
		}
	}
	return false
}

// FormatDayList summarises a slot's allowed days for its card.
func FormatDayList(days []string) string {
	set := make(map[string]struct{}, len(days))
	for _, d := range days {
		set[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	switch {
	case sameDays(set, "sun", "mon", "tue", "wed", "thu", "fri", "sat"):
		return "Every day"
	case sameDays(set, "mon", "tue", "wed", "thu", "fri"):
		return "Weekdays"
	case sameDays(set, "sat", "sun"):
		return "Weekends"
	}
	labels := make([]string, 0, len(days))
	for _, d := range days {
		if title, ok := dayTitles[strings.ToLower(strings.TrimSpace(d))]; ok {
			labels = append(labels, title)
			continue
		}
		labels = append(labels, d)
	}
	return strings.Join(labels, ", ")
}

func sameDays(set map[string]struct{}, days ...string) bool {
	if len(set) != len(days) {
		return false
	}
	for _, d := range days {
		if _, ok := set[d]; !ok {
			return false
		}
	}
	return true
}

// StartAt combines an ISO date and a time of day, read in loc, into a UTC
// timestamp such as 2026-03-01T09:00:00.000Z. A clock value that is already a
// full RFC 3339 timestamp is normalised as is.
func StartAt(date, clock string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	if strings.Contains(clock, "T") {
		t, err := time.Parse(time.RFC3339, clock)
		if err != nil {
			return "", fmt.Errorf("parse start time %q: %w", clock, err)
		}
		return t.UTC().Format(isoMillis), nil
	}
	layout := isoDate + " 15:04"
	if strings.Count(clock, ":") == 2 {
		layout = isoDate + " 15:04:05"
	}
	t, err := time.ParseInLocation(layout, date+" "+clock, loc)
	if err != nil {
		return "", fmt.Errorf("parse start time %q %q: %w", date, clock, err)
	}
	return t.UTC().Format(isoMillis), nil
}
