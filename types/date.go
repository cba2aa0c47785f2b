package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date layouts.
const (
	// DateLayout is the stored form of a Date.
	DateLayout = "2006-01-02"
	// DisplayLayout is the day-first form shown to operators and found in
	// books written by older tools.
	DisplayLayout = "02/01/2006"
	// MonthLayout is the stored form of a Month.
	MonthLayout = "2006-01"
)

// Date is a calendar day with no time of day or zone. The zero Date means
// "not set" and is stored as an empty string.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// legacyLayouts are the day-first forms older books were written in, with
// and without zero padding.
var legacyLayouts = []string{DisplayLayout, "2/1/2006", "2-1-2006", "2.1.2006"}

// ParseDate accepts "YYYY-MM-DD", day-first "D/M/YYYY" with or without
// padding, or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range append([]string{DateLayout}, legacyLayouts...) {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("date: parse %q: unrecognized layout", s)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == Date{} }

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String returns "YYYY-MM-DD", or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}

// Display returns "DD/MM/YYYY", or "" for the zero Date.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DisplayLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. Stored dates were written as
// free-form display strings, so one that cannot be read decodes as the
// zero Date instead of failing the surrounding document.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}

// Month is a billing month in "YYYY-MM" form.
type Month string

// ParseMonth validates s and returns it as a Month.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(MonthLayout, s); err != nil {
		return "", fmt.Errorf("month: parse %q: want YYYY-MM", s)
	}
	return Month(s), nil
}

// MonthOf returns the billing month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format(MonthLayout))
}

// Valid reports whether m is a well-formed month.
func (m Month) Valid() bool {
	_, err := time.Parse(MonthLayout, string(m))
	return err == nil
}

// String implements fmt.Stringer.
func (m Month) String() string { return string(m) }
