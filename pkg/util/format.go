package util

import "time"

// timeLayout renders local wall-clock time with the zone abbreviation, so a
// reader can tell the value is not UTC.
const timeLayout = "2006-01-02 15:04:05 MST"

// OrDash returns the string if non-empty, otherwise returns "-".
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatLocal renders t in the local timezone, or "-" for the zero time.
func FormatLocal(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(time.Local).Format(timeLayout)
}
