package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekdays is a weekly recurrence pattern: bit n is set when time.Weekday(n) recurs.
type Weekdays uint8

// NewWeekdays builds a pattern from the given days.
func NewWeekdays(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w = w.With(d)
	}
	return w
}

func (w Weekdays) With(d time.Weekday) Weekdays {
	return w | 1<<uint(d)
}

func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

func (w Weekdays) Empty() bool {
	return w&0x7f == 0
}

// Days lists the set weekdays from Sunday to Saturday.
func (w Weekdays) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (w Weekdays) String() string {
	days := w.Days()
	if len(days) == 0 {
		return "-"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

// ParseWeekday accepts full or three-letter English day names, case-insensitive.
func ParseWeekday(raw string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}

// ParseWeekdays parses a comma separated list such as "mon,wed,fri".
func ParseWeekdays(raw string) (Weekdays, error) {
	var w Weekdays
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := ParseWeekday(part)
		if err != nil {
			return 0, err
		}
		w = w.With(d)
	}
	return w, nil
}

// MarshalJSON encodes the pattern as {"monday": true, ...}.
func (w Weekdays) MarshalJSON() ([]byte, error) {
	out := make(map[string]bool, 7)
	for _, d := range w.Days() {
		out[strings.ToLower(d.String())] = true
	}
	return json.Marshal(out)
}

func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var in map[string]bool
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode weekdays: %w", err)
	}
	var out Weekdays
	for name, set := range in {
		if !set {
			continue
		}
		d, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		out = out.With(d)
	}
	*w = out
	return nil
}
