package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTimestampLayouts are tried in order when parsing a raw index value.
// They cover the logger's native format and the usual spreadsheet exports.
// Fractional seconds are accepted by every layout that carries seconds.
var DefaultTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006/01/02 15:04:05",
	"02.01.2006 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
	"2006-01-02",
}

// ErrEmptyTimestamp is returned for blank index values.
var ErrEmptyTimestamp = errors.New("empty timestamp")

// ParseTimestamp parses value with the first layout that accepts it.
// Values without a zone are read as UTC.
func ParseTimestamp(value string, layouts []string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, ErrEmptyTimestamp
	}
	if len(layouts) == 0 {
		layouts = DefaultTimestampLayouts
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches %q (tried %d)", v, len(layouts))
}

// ElapsedHours converts times into hours since origin.
func ElapsedHours(origin time.Time, times []time.Time) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = t.Sub(origin).Hours()
	}
	return out
}

// FormatTimestamp renders t in the canonical export layout.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// RunName returns a unique, sortable run label:
//
//	<prefix>_YYYYMMDD_HHMMSS
func RunName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s", prefix, now.Format("20060102_150405"))
}
