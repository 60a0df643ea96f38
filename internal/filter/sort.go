package filter

import (
	"math/rand/v2"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

// SortOrder names a list ordering persisted per view.
type SortOrder string

const (
	SortTitleAsc  SortOrder = "title-asc"
	SortTitleDesc SortOrder = "title-desc"
	SortDuration  SortOrder = "duration"
	SortRandom    SortOrder = "random"
	SortID        SortOrder = "id"
)

var sortOrders = []SortOrder{SortTitleAsc, SortTitleDesc, SortDuration, SortRandom, SortID}

// ParseSortOrder falls back to title-asc for unknown values.
func ParseSortOrder(s string) SortOrder {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, o := range sortOrders {
		if string(o) == s {
			return o
		}
	}
	return SortTitleAsc
}

// Next cycles to the following order.
func (o SortOrder) Next() SortOrder {
	for i, candidate := range sortOrders {
		if candidate == o {
			return sortOrders[(i+1)%len(sortOrders)]
		}
	}
	return sortOrders[0]
}

// SortTags returns a sorted copy of tags. Duration ordering does not apply
// to tags and sorts by title. Random ordering is stable for a given seed.
func SortTags(tags []collection.Tag, order SortOrder, seed uint64) []collection.Tag {
	out := append([]collection.Tag(nil), tags...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	fold := cases.Fold()
	byTitle := func(i, j int) bool { return fold.String(out[i].Title) < fold.String(out[j].Title) }

	switch order {
	case SortID:
	case SortTitleDesc:
		sort.SliceStable(out, func(i, j int) bool { return byTitle(j, i) })
	case SortRandom:
		shuffle(len(out), seed, func(i, j int) { out[i], out[j] = out[j], out[i] })
	default:
		sort.SliceStable(out, byTitle)
	}
	return out
}

// SortItems returns a sorted copy of items. Duration sorts longest first.
func SortItems(items []collection.Item, order SortOrder, seed uint64) []collection.Item {
	out := append([]collection.Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	fold := cases.Fold()
	byTitle := func(i, j int) bool { return fold.String(out[i].Title) < fold.String(out[j].Title) }

	switch order {
	case SortID:
	case SortTitleDesc:
		sort.SliceStable(out, func(i, j int) bool { return byTitle(j, i) })
	case SortDuration:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Duration() > out[j].Duration() })
	case SortRandom:
		shuffle(len(out), seed, func(i, j int) { out[i], out[j] = out[j], out[i] })
	default:
		sort.SliceStable(out, byTitle)
	}
	return out
}

func shuffle(n int, seed uint64, swap func(i, j int)) {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(n, swap)
}
