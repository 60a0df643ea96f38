package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

// Sentinel annotation keys selecting tags without an image or without any
// annotation.
const (
	NoImageKey = "no-image"
	NoneKey    = "none"
)

// AnnotationFilter selects tags by annotation membership. The zero value
// passes every tag. Toggle methods return a modified copy.
type AnnotationFilter struct {
	IDs     map[int64]struct{}
	NoImage bool
	None    bool
	// ImageTypeID restricts NoImage to one tag image type; zero means any.
	ImageTypeID int64
}

// Empty reports whether no annotation or sentinel is selected.
func (f AnnotationFilter) Empty() bool {
	return len(f.IDs) == 0 && !f.NoImage && !f.None
}

// Has reports whether annotation id is selected.
func (f AnnotationFilter) Has(id int64) bool {
	_, ok := f.IDs[id]
	return ok
}

// Toggle flips annotation id.
func (f AnnotationFilter) Toggle(id int64) AnnotationFilter {
	ids := make(map[int64]struct{}, len(f.IDs)+1)
	for k := range f.IDs {
		ids[k] = struct{}{}
	}
	if _, ok := ids[id]; ok {
		delete(ids, id)
	} else {
		ids[id] = struct{}{}
	}
	f.IDs = ids
	return f
}

func (f AnnotationFilter) ToggleNoImage() AnnotationFilter {
	f.NoImage = !f.NoImage
	return f
}

func (f AnnotationFilter) ToggleNone() AnnotationFilter {
	f.None = !f.None
	return f
}

// ToggleKey flips the annotation or sentinel named by key.
func (f AnnotationFilter) ToggleKey(key string) (AnnotationFilter, error) {
	sentinel, id, err := ParseAnnotationKey(key)
	if err != nil {
		return f, err
	}
	switch sentinel {
	case NoImageKey:
		return f.ToggleNoImage(), nil
	case NoneKey:
		return f.ToggleNone(), nil
	default:
		return f.Toggle(id), nil
	}
}

// Keys returns the selection as sorted string keys, suitable for persisting.
func (f AnnotationFilter) Keys() []string {
	keys := make([]string, 0, len(f.IDs)+2)
	ids := make([]int64, 0, len(f.IDs))
	for id := range f.IDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		keys = append(keys, strconv.FormatInt(id, 10))
	}
	if f.NoImage {
		keys = append(keys, NoImageKey)
	}
	if f.None {
		keys = append(keys, NoneKey)
	}
	return keys
}

// Matches reports whether tag passes the filter.
func (f AnnotationFilter) Matches(tag collection.Tag) bool {
	if f.Empty() {
		return true
	}
	for _, a := range tag.Annotations {
		if f.Has(a.ID) {
			return true
		}
	}
	if f.NoImage && !tag.HasImageOfType(f.ImageTypeID) {
		return true
	}
	if f.None && len(tag.Annotations) == 0 {
		return true
	}
	return false
}

// ParseAnnotationKey decodes a persisted key. It returns the sentinel name
// for "no-image" and "none", otherwise the numeric annotation id.
func ParseAnnotationKey(key string) (sentinel string, id int64, err error) {
	key = strings.TrimSpace(strings.ToLower(key))
	switch key {
	case NoImageKey, NoneKey:
		return key, 0, nil
	}
	id, err = strconv.ParseInt(key, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("invalid annotation key %q", key)
	}
	return "", id, nil
}

// AnnotationFilterFromKeys rebuilds a filter from persisted keys, skipping
// keys that do not parse.
func AnnotationFilterFromKeys(keys []string, imageTypeID int64) AnnotationFilter {
	f := AnnotationFilter{ImageTypeID: imageTypeID}
	for _, key := range keys {
		if next, err := f.ToggleKey(key); err == nil {
			f = next
		}
	}
	return f
}

// FilterTagsByAnnotations returns the tags passing f.
func FilterTagsByAnnotations(tags []collection.Tag, f AnnotationFilter) []collection.Tag {
	out := make([]collection.Tag, 0, len(tags))
	for _, tag := range tags {
		if f.Matches(tag) {
			out = append(out, tag)
		}
	}
	return out
}

// AvailableAnnotations lists the distinct annotations carried by tags,
// ordered by title.
func AvailableAnnotations(tags []collection.Tag) []collection.TagAnnotation {
	seen := make(map[int64]struct{})
	var out []collection.TagAnnotation
	for _, tag := range tags {
		for _, a := range tag.Annotations {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}
