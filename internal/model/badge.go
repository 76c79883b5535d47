package model

import (
	"fmt"
	"time"
)

// BadgeLevel identifies one of the eight fixed achievements.
type BadgeLevel int

const (
	BadgeFirstDay BadgeLevel = iota
	BadgeWeekStreak
	BadgeFortnight
	BadgeMonth
	BadgeJourney
	BadgeTaskMaster
	BadgeHighPerformer
	BadgeCenturyClub
)

// BadgeCount is the size of the fixed catalog.
const BadgeCount = 8

func (l BadgeLevel) Valid() bool {
	return l >= BadgeFirstDay && l <= BadgeCenturyClub
}

// Key is the stable storage key of the level, e.g. "level3".
func (l BadgeLevel) Key() string {
	return fmt.Sprintf("level%d", int(l))
}

// Badge is an achievement with its unlock state. Progress (0..100) is only
// meaningful while the badge is locked.
type Badge struct {
	Level       BadgeLevel `json:"level"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Requirement string     `json:"requirement,omitempty"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedDate,omitempty"`
	Progress    int        `json:"progress,omitempty"`
}
