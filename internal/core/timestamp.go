package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ISOLayout matches the millisecond UTC format used on the wire.
const ISOLayout = "2006-01-02T15:04:05.000Z"

var (
	ErrMissingDateRange  = errors.New("start date and end date are required")
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Timestamp is a UTC instant truncated to millisecond precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalizes t to UTC milliseconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// TimestampFromMillis builds a Timestamp from Unix milliseconds.
func TimestampFromMillis(ms int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(ms).UTC()}
}

// Millis returns the Unix millisecond value stored by the SQL backends.
func (t Timestamp) Millis() int64 {
	return t.Time.UnixMilli()
}

// String formats the instant as ISO-8601 with milliseconds.
func (t Timestamp) String() string {
	return t.Time.UTC().Format(ISOLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*t = NewTimestamp(parsed)
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate accepts a calendar date or an ISO-8601 date-time, with either
// "T" or a space between date and time. Inputs without a zone offset are
// read as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDateFormat
}

// DateRange is an inclusive [Start, End] window.
type DateRange struct {
	Start Timestamp `json:"start"`
	End   Timestamp `json:"end"`
}

// NormalizeDateRange expands start to the first millisecond of its UTC
// calendar day and end to the last one. A start after end is returned as
// is; it simply matches no transactions.
func NormalizeDateRange(start, end string) (DateRange, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return DateRange{}, ErrMissingDateRange
	}
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{
		Start: NewTimestamp(startOfDay(s)),
		End:   NewTimestamp(startOfDay(e).Add(24*time.Hour - time.Millisecond)),
	}, nil
}

// Contains reports whether t falls inside the inclusive range.
func (r DateRange) Contains(t Timestamp) bool {
	return !t.Time.Before(r.Start.Time) && !t.Time.After(r.End.Time)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
