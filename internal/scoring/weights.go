// Package scoring turns a day's tasks into a weighted completion percentage.
package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"momentum-tracker/internal/model"
)

// ExpectedWeightSum is the total the category weights should add up to.
const ExpectedWeightSum = 100

var (
	ErrInvalidWeight = errors.New("invalid category weight")
	ErrWeightSum     = errors.New("category weights do not sum to 100")
)

// DefaultWeights is the built-in category table.
func DefaultWeights() map[string]int {
	return map[string]int{
		"DSA - I":               20,
		"DSA - II":              15,
		"GYM":                   3,
		"CLASSES AND ACADEMICS": 5,
		"NO FAP":                2,
		"UPGRADE":               10,
		"STATISTICS":            5,
		"MATH":                  10,
		"COACHING":              15,
		"OTHER":                 5,
		"MISCELLANEOUS":         5,
		"JOURNAL":               5,
	}
}

// WeightTable maps uppercase category names to integer percentage weights.
// It is immutable once built.
type WeightTable struct {
	weights map[string]int
	sum     int
}

// Options tune how a WeightTable is validated.
type Options struct {
	// Strict turns a sum other than 100 into ErrWeightSum instead of a warning.
	Strict bool
	// Logger receives validation warnings; nil discards them.
	Logger *zerolog.Logger
}

// NewWeightTable validates weights once. Each weight must be in 0..100 and each name
// non-empty after trimming; names are matched case-insensitively.
func NewWeightTable(weights map[string]int, opts Options) (*WeightTable, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	table := &WeightTable{weights: make(map[string]int, len(weights))}
	for name, weight := range weights {
		key := Normalize(name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty category name", ErrInvalidWeight)
		}
		if weight < 0 || weight > 100 {
			return nil, fmt.Errorf("%w: %s=%d outside 0..100", ErrInvalidWeight, key, weight)
		}
		if _, dup := table.weights[key]; dup {
			return nil, fmt.Errorf("%w: duplicate category %s", ErrInvalidWeight, key)
		}
		table.weights[key] = weight
		table.sum += weight
	}

	if table.sum != ExpectedWeightSum {
		if opts.Strict {
			return nil, fmt.Errorf("%w: got %d", ErrWeightSum, table.sum)
		}
		logger.Warn().
			Int("sum", table.sum).
			Int("expected", ExpectedWeightSum).
			Msg("category weights do not sum to 100, scores may be skewed")
	}
	if _, ok := table.weights[model.CategoryOther]; !ok {
		logger.Warn().Msg("category table has no OTHER entry, unknown categories weigh 0")
	}
	return table, nil
}

// MustDefault returns the built-in table. It panics only if the defaults are broken.
func MustDefault() *WeightTable {
	table, err := NewWeightTable(DefaultWeights(), Options{Strict: true})
	if err != nil {
		panic(err)
	}
	return table
}

// Normalize canonicalizes a category name for lookup.
func Normalize(category string) string {
	return strings.ToUpper(strings.TrimSpace(category))
}

// WeightOf resolves a category to its weight. Empty and unknown categories use OTHER.
func (t *WeightTable) WeightOf(category string) int {
	if w, ok := t.weights[Normalize(category)]; ok {
		return w
	}
	return t.weights[model.CategoryOther]
}

// Known reports whether the category exists in the table.
func (t *WeightTable) Known(category string) bool {
	_, ok := t.weights[Normalize(category)]
	return ok
}

// Resolve returns the canonical table key the category scores under.
func (t *WeightTable) Resolve(category string) string {
	key := Normalize(category)
	if _, ok := t.weights[key]; ok {
		return key
	}
	return model.CategoryOther
}

func (t *WeightTable) Sum() int { return t.sum }

// Categories lists the table ordered by descending weight, then name.
func (t *WeightTable) Categories() []model.CategoryWeight {
	out := make([]model.CategoryWeight, 0, len(t.weights))
	for name, weight := range t.weights {
		out = append(out, model.CategoryWeight{Name: name, Weight: weight})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Name < out[j].Name
	})
	return out
}
