package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
)

// TimeLayout is the canonical wall-clock format every timestamp column uses.
const TimeLayout = "2006-01-02 15:04:05"

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// EncodeTime formats t in UTC using the canonical layout.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// EncodeNullTime is EncodeTime for optional values; an invalid input stays invalid.
func EncodeNullTime(t null.Time) null.String {
	if !t.Valid {
		return null.String{}
	}
	return null.StringFrom(EncodeTime(t.Time))
}

// DecodeTime parses a canonical timestamp as UTC.
func DecodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrInvalidTimestamp)
	}
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return t, nil
}

// Delta returns the signed number of whole seconds from a to b.
func Delta(a, b time.Time) int64 {
	if a.After(b) {
		return -magnitude(b, a)
	}
	return magnitude(a, b)
}

// magnitude splits the span into days and seconds and recombines them, so
// sub-second remainders are dropped the same way in both directions.
func magnitude(from, to time.Time) int64 {
	d := to.Sub(from)
	days := int64(d / (24 * time.Hour))
	seconds := int64((d % (24 * time.Hour)) / time.Second)
	return days*86400 + seconds
}
