package model

// CategoryOther is the fallback category for tasks with no or an unknown category.
const CategoryOther = "OTHER"

// CategoryWeight is one row of the category weight table.
type CategoryWeight struct {
	Name   string `json:"name" mapstructure:"name"`
	Weight int    `json:"weight" mapstructure:"weight"`
}
