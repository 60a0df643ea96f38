package filter

import (
	"sort"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

// Flags is the UI state of one tag in the gallery. A selected tag shows up
// as a chip; an active tag also filters the item list.
type Flags struct {
	Active   bool
	Selected bool
}

// Selection maps tag ids to their flags. It is immutable: every reducer
// returns a new Selection and keeps Active implying Selected.
type Selection struct {
	flags map[int64]Flags
}

// NewSelection returns a selection with the given tags selected and active.
func NewSelection(activeIDs ...int64) Selection {
	s := Selection{}
	for _, id := range activeIDs {
		s = s.Activate(id)
	}
	return s
}

func (s Selection) with(id int64, f Flags) Selection {
	next := make(map[int64]Flags, len(s.flags)+1)
	for k, v := range s.flags {
		next[k] = v
	}
	if f.Active {
		f.Selected = true
	}
	if !f.Selected {
		delete(next, id)
	} else {
		next[id] = f
	}
	return Selection{flags: next}
}

// Flags returns the flags of tag id.
func (s Selection) Flags(id int64) Flags {
	return s.flags[id]
}

func (s Selection) IsActive(id int64) bool   { return s.flags[id].Active }
func (s Selection) IsSelected(id int64) bool { return s.flags[id].Selected }

// Activate selects and activates id.
func (s Selection) Activate(id int64) Selection {
	return s.with(id, Flags{Active: true, Selected: true})
}

// Deactivate stops id from filtering but keeps its chip.
func (s Selection) Deactivate(id int64) Selection {
	if !s.IsSelected(id) {
		return s
	}
	return s.with(id, Flags{Selected: true})
}

// ToggleActive activates an inactive tag and deactivates an active one.
func (s Selection) ToggleActive(id int64) Selection {
	if s.IsActive(id) {
		return s.Deactivate(id)
	}
	return s.Activate(id)
}

// Select adds id as an inactive chip, leaving an active tag untouched.
func (s Selection) Select(id int64) Selection {
	if s.IsSelected(id) {
		return s
	}
	return s.with(id, Flags{Selected: true})
}

// Deselect removes id entirely.
func (s Selection) Deselect(id int64) Selection {
	if !s.IsSelected(id) {
		return s
	}
	return s.with(id, Flags{})
}

// Clear drops every tag.
func (s Selection) Clear() Selection {
	return Selection{}
}

// Len returns the number of selected tags.
func (s Selection) Len() int {
	return len(s.flags)
}

// SelectedIDs returns the selected tag ids in ascending order.
func (s Selection) SelectedIDs() []int64 {
	return s.ids(func(Flags) bool { return true })
}

// ActiveIDs returns the active tag ids in ascending order.
func (s Selection) ActiveIDs() []int64 {
	return s.ids(func(f Flags) bool { return f.Active })
}

func (s Selection) ids(keep func(Flags) bool) []int64 {
	out := make([]int64, 0, len(s.flags))
	for id, f := range s.flags {
		if keep(f) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ActiveTags resolves the active ids against tags, skipping unknown ids.
func (s Selection) ActiveTags(tags []collection.Tag) []collection.Tag {
	return s.resolve(tags, s.ActiveIDs())
}

// SelectedTags resolves the selected ids against tags, skipping unknown ids.
func (s Selection) SelectedTags(tags []collection.Tag) []collection.Tag {
	return s.resolve(tags, s.SelectedIDs())
}

func (s Selection) resolve(tags []collection.Tag, ids []int64) []collection.Tag {
	out := make([]collection.Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := TagByID(tags, id); ok {
			out = append(out, tag)
		}
	}
	return out
}
