package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidJournal = errors.New("invalid journal entry")

// JournalMetric is a user-defined value tracked next to the built-in habits.
type JournalMetric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// JournalEntry records the habits of one calendar day. A zero field was not recorded.
type JournalEntry struct {
	Date          Date            `gorm:"primaryKey" json:"date"`
	ScreenTime    float64         `json:"screenTime,omitempty"` // hours
	SleepHours    float64         `json:"sleepHours,omitempty"`
	WaterGlasses  int             `json:"waterGlasses,omitempty"`
	Mood          int             `json:"mood,omitempty"`   // 1..10
	Energy        int             `json:"energy,omitempty"` // 1..10
	CustomMetrics []JournalMetric `gorm:"serializer:json" json:"customMetrics,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Validate checks ranges. Mood and energy use a 1..10 scale, hours fit in a day.
func (e JournalEntry) Validate() error {
	if !e.Date.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidDate, e.Date)
	}
	if e.ScreenTime < 0 || e.ScreenTime > 24 {
		return fmt.Errorf("%w: screen time %.1fh outside 0..24", ErrInvalidJournal, e.ScreenTime)
	}
	if e.SleepHours < 0 || e.SleepHours > 24 {
		return fmt.Errorf("%w: sleep %.1fh outside 0..24", ErrInvalidJournal, e.SleepHours)
	}
	if e.WaterGlasses < 0 {
		return fmt.Errorf("%w: negative water glasses", ErrInvalidJournal)
	}
	if e.Mood < 0 || e.Mood > 10 {
		return fmt.Errorf("%w: mood %d outside 1..10", ErrInvalidJournal, e.Mood)
	}
	if e.Energy < 0 || e.Energy > 10 {
		return fmt.Errorf("%w: energy %d outside 1..10", ErrInvalidJournal, e.Energy)
	}
	for _, m := range e.CustomMetrics {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: metric without a name", ErrInvalidJournal)
		}
	}
	return nil
}

// SetMetric adds or replaces a custom metric by case-insensitive name. An empty
// value removes it.
func (e *JournalEntry) SetMetric(name, value string) {
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	for i, m := range e.CustomMetrics {
		if !strings.EqualFold(m.Name, name) {
			continue
		}
		if value == "" {
			e.CustomMetrics = append(e.CustomMetrics[:i], e.CustomMetrics[i+1:]...)
		} else {
			e.CustomMetrics[i].Value = value
		}
		return
	}
	if value != "" {
		e.CustomMetrics = append(e.CustomMetrics, JournalMetric{Name: name, Value: value})
	}
}
