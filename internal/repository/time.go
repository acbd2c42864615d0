package repository

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Dates (streak day boundaries) are stored as bare calendar days, full
// timestamps as RFC3339Nano.
const dateFormat = "2006-01-02"

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	if err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}

// formatTimestamp renders t for columns that SQL compares as strings.
// Truncating to whole seconds keeps the text fixed-width, so lexicographic
// order matches time order; RFC3339Nano trims trailing zeros and breaks that.
func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFormat, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateFormat)
}
