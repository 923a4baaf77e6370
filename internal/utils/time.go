package utils

import (
	"regexp"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutClock    = "15:04"
	layoutDateTime = "2006-01-02 15:04:05"
)

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// IsDate reports whether s is a strict YYYY-MM-DD string.
func IsDate(s string) bool {
	return datePattern.MatchString(s)
}

// IsClock reports whether s is a 24-hour HH:mm string.
func IsClock(s string) bool {
	return clockPattern.MatchString(s)
}

// ParseDate parses YYYY-MM-DD as a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.UTC)
}

// FormatDate formats time to YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(layoutDate)
}

// FormatClock formats the UTC clock reading as HH:mm.
func FormatClock(t time.Time) string {
	return t.UTC().Format(layoutClock)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in loc.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(layoutDateTime)
}

// ParseTimestamp accepts RFC3339 (with or without fraction), a bare date or
// "YYYY-MM-DD HH:MM:SS". Bare values are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, layoutDateTime, "2006-01-02T15:04:05", layoutDate, "15:04:05", layoutClock} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
