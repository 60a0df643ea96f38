package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

// MatchesTitle reports whether term occurs in title, ignoring case. An empty
// or blank term matches everything.
func MatchesTitle(title, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(title), fold.String(term))
}

// SearchTags returns the tags whose label matches term.
func SearchTags(tags []collection.Tag, term string) []collection.Tag {
	out := make([]collection.Tag, 0, len(tags))
	for _, tag := range tags {
		if MatchesTitle(tag.Title, term) || (tag.DisplayName != "" && MatchesTitle(tag.DisplayName, term)) {
			out = append(out, tag)
		}
	}
	return out
}

// SearchItems returns the items whose title matches term.
func SearchItems(items []collection.Item, term string) []collection.Item {
	out := make([]collection.Item, 0, len(items))
	for _, item := range items {
		if MatchesTitle(item.Title, term) {
			out = append(out, item)
		}
	}
	return out
}

// Categories returns the top-level tags.
func Categories(tags []collection.Tag) []collection.Tag {
	out := make([]collection.Tag, 0)
	for _, tag := range tags {
		if tag.IsCategory() {
			out = append(out, tag)
		}
	}
	return out
}

// ChildrenOf returns the tags whose parent is parentID.
func ChildrenOf(tags []collection.Tag, parentID int64) []collection.Tag {
	out := make([]collection.Tag, 0)
	for _, tag := range tags {
		if !tag.IsCategory() && tag.Parent() == parentID {
			out = append(out, tag)
		}
	}
	return out
}

// TagByID finds a tag in tags.
func TagByID(tags []collection.Tag, id int64) (collection.Tag, bool) {
	for _, tag := range tags {
		if tag.ID == id {
			return tag, true
		}
	}
	return collection.Tag{}, false
}
