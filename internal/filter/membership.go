package filter

import (
	"strings"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

// Condition combines the selected tags of the gallery.
type Condition string

const (
	ConditionOr  Condition = "or"
	ConditionAnd Condition = "and"
)

// ParseCondition defaults to OR for anything but "and".
func ParseCondition(s string) Condition {
	if strings.EqualFold(strings.TrimSpace(s), string(ConditionAnd)) {
		return ConditionAnd
	}
	return ConditionOr
}

// Toggle switches between AND and OR.
func (c Condition) Toggle() Condition {
	if c == ConditionAnd {
		return ConditionOr
	}
	return ConditionAnd
}

func (c Condition) String() string {
	if c == ConditionAnd {
		return "AND"
	}
	return "OR"
}

// FilterItemsByTags keeps the items contained in every selected tag (AND) or
// in at least one (OR). With no selected tags every item passes.
func FilterItemsByTags(items []collection.Item, selected []collection.Tag, cond Condition) []collection.Item {
	out := make([]collection.Item, 0, len(items))
	if len(selected) == 0 {
		return append(out, items...)
	}
	for _, item := range items {
		matches := 0
		for _, tag := range selected {
			if tag.ContainsItem(item.ID) {
				matches++
			}
		}
		if cond == ConditionAnd {
			if matches == len(selected) {
				out = append(out, item)
			}
		} else if matches > 0 {
			out = append(out, item)
		}
	}
	return out
}
