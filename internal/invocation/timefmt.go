package invocation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnparsableTimestamp means a lifecycle instant is not ISO-8601.
var ErrUnparsableTimestamp = errors.New("unparsable timestamp")

// Instants without an offset are UTC; brane-api serialises naive timestamps.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04Z07",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 instant. The result is in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparsableTimestamp)
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableTimestamp, raw)
}

// formatTimestamp renders raw in loc with layout. Absent instants render as
// "" with no error; unparsable ones render as "" and report why.
func formatTimestamp(raw string, loc *time.Location, layout string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(layout), nil
}
