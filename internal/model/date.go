package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar-day layout used for every stored date.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a string is not a YYYY-MM-DD calendar day.
var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day without time, formatted as YYYY-MM-DD.
// Lexical order of valid dates equals chronological order.
type Date string

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate validates and normalizes a YYYY-MM-DD string.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w %q", ErrInvalidDate, raw)
	}
	return DateOf(t), nil
}

// Valid reports whether d parses as a calendar day.
func (d Date) Valid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

// Time returns midnight UTC of d, or the zero time for an invalid date.
func (d Date) Time() time.Time {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays shifts d by n calendar days. Invalid dates are returned unchanged.
func (d Date) AddDays(n int) Date {
	if !d.Valid() {
		return d
	}
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) Before(other Date) bool { return d < other }
func (d Date) After(other Date) bool  { return d > other }

func (d Date) String() string { return string(d) }

// DaysBetween returns the number of calendar days from a to b (negative when b is earlier).
func DaysBetween(a, b Date) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}
