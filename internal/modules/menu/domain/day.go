package domain

import "time"

// DateLayout is the ISO-8601 calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Day is the open/closed status of a canteen on one calendar date.
type Day struct {
	Date   time.Time `json:"date"`
	Closed bool      `json:"closed"`
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
