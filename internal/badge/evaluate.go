package badge

import (
	"time"

	"momentum-tracker/internal/model"
)

// Result is the outcome of one evaluation. Badges always holds the full catalog in
// level order; NewlyUnlocked only the badges earned by this call.
type Result struct {
	Badges        []model.Badge
	NewlyUnlocked []model.Badge
}

// Evaluate is the pure badge engine. Levels already present in unlocked are never
// re-derived, so an earned badge stays earned whatever the current stats say.
// Badges earned now are stamped with now.
func Evaluate(in Input, unlocked []model.Badge, now time.Time) Result {
	earned := indexUnlocked(unlocked)
	stats := Collect(in)

	res := Result{Badges: make([]model.Badge, 0, model.BadgeCount)}
	for _, def := range catalog {
		if prev, ok := earned[def.Level]; ok {
			res.Badges = append(res.Badges, prev)
			continue
		}

		ok, current := def.Check(stats)
		b := def.Badge()
		if ok {
			at := now
			b.Unlocked = true
			b.UnlockedAt = &at
			res.NewlyUnlocked = append(res.NewlyUnlocked, b)
		} else {
			b.Progress = def.Progress(current)
		}
		res.Badges = append(res.Badges, b)
	}
	return res
}

// indexUnlocked keeps valid unlocked records, re-labelled from the catalog so stale
// stored names never leak out.
func indexUnlocked(unlocked []model.Badge) map[model.BadgeLevel]model.Badge {
	out := make(map[model.BadgeLevel]model.Badge, len(unlocked))
	for _, b := range unlocked {
		def, ok := Lookup(b.Level)
		if !ok || !b.Unlocked {
			continue
		}
		rec := def.Badge()
		rec.Unlocked = true
		rec.UnlockedAt = b.UnlockedAt
		out[b.Level] = rec
	}
	return out
}
