package widget

import (
	"strings"
	"time"
)

// FormatTime renders "09:30" or an RFC 3339 timestamp as "9:30 AM". Values it
// cannot parse come back unchanged.
func FormatTime(clock string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	if strings.Contains(clock, "T") {
		t, err := time.Parse(time.RFC3339, clock)
		if err != nil {
			return clock
		}
		return t.In(loc).Format("3:04 PM")
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t.Format("3:04 PM")
		}
	}
	return clock
}

// FormatDate renders "2026-03-15" as "Sun, Mar 15".
func FormatDate(date string) string {
	t, err := time.Parse(isoDate, date)
	if err != nil {
		return date
	}
	return t.Format("Mon, Jan 2")
}
