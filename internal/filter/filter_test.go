package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

func itemIDs(items []collection.Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func tagIDs(tags []collection.Tag) []int64 {
	ids := make([]int64, 0, len(tags))
	for _, tag := range tags {
		ids = append(ids, tag.ID)
	}
	return ids
}

func ptr(v int64) *int64 { return &v }

func TestMatchesTitle(t *testing.T) {
	tests := []struct {
		title, term string
		want        bool
	}{
		{"Holiday Trip", "", true},
		{"Holiday Trip", "   ", true},
		{"Holiday Trip", "trip", true},
		{"Holiday Trip", "HOLI", true},
		{"ÉCOLE", "école", true},
		{"Holiday Trip", "beach", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesTitle(tt.title, tt.term), "MatchesTitle(%q, %q)", tt.title, tt.term)
	}
}

func TestSearchTagsAndItems(t *testing.T) {
	tags := []collection.Tag{{ID: 1, Title: "Cats"}, {ID: 2, Title: "Dogs", DisplayName: "Puppies"}}
	assert.Equal(t, []int64{2}, tagIDs(SearchTags(tags, "pupp")))
	assert.Equal(t, []int64{1, 2}, tagIDs(SearchTags(tags, "")))

	items := []collection.Item{{ID: 1, Title: "Cat video"}, {ID: 2, Title: "dog video"}}
	assert.Equal(t, []int64{2}, itemIDs(SearchItems(items, "DOG")))
	assert.Empty(t, SearchItems(items, "bird"))
}

func TestFilterItemsByTags_AndOr(t *testing.T) {
	items := []collection.Item{{ID: 1}, {ID: 2}}
	selected := []collection.Tag{
		{ID: 10, Items: []collection.ItemRef{{ID: 1}}},
		{ID: 11, Items: []collection.ItemRef{{ID: 1}, {ID: 2}}},
	}

	assert.Equal(t, []int64{1, 2}, itemIDs(FilterItemsByTags(items, selected, ConditionOr)))
	assert.Equal(t, []int64{1}, itemIDs(FilterItemsByTags(items, selected, ConditionAnd)))
	assert.Equal(t, []int64{1, 2}, itemIDs(FilterItemsByTags(items, nil, ConditionAnd)))
	assert.Empty(t, FilterItemsByTags(nil, selected, ConditionOr))
}

func TestCondition(t *testing.T) {
	assert.Equal(t, ConditionOr, ParseCondition(""))
	assert.Equal(t, ConditionAnd, ParseCondition("AND"))
	assert.Equal(t, ConditionAnd, ConditionOr.Toggle())
	assert.Equal(t, ConditionOr, ConditionAnd.Toggle())
	assert.Equal(t, "OR", ConditionOr.String())
}

func TestAnnotationFilter(t *testing.T) {
	withAnnotation := collection.Tag{ID: 1, Annotations: []collection.TagAnnotation{{ID: 5, Title: "favorite"}}, Images: []collection.TagImage{{URL: "a.jpg", ImageTypeID: 1}}}
	noImage := collection.Tag{ID: 2, Annotations: []collection.TagAnnotation{{ID: 6}}}
	bare := collection.Tag{ID: 3, Images: []collection.TagImage{{URL: "b.jpg", ImageTypeID: 2}}}
	tags := []collection.Tag{withAnnotation, noImage, bare}

	var empty AnnotationFilter
	assert.True(t, empty.Empty())
	assert.Equal(t, []int64{1, 2, 3}, tagIDs(FilterTagsByAnnotations(tags, empty)))

	byID := empty.Toggle(5)
	assert.True(t, empty.Empty(), "Toggle must not mutate the receiver")
	assert.Equal(t, []int64{1}, tagIDs(FilterTagsByAnnotations(tags, byID)))

	assert.Equal(t, []int64{2}, tagIDs(FilterTagsByAnnotations(tags, empty.ToggleNoImage())))
	assert.Equal(t, []int64{3}, tagIDs(FilterTagsByAnnotations(tags, empty.ToggleNone())))

	typed := AnnotationFilter{NoImage: true, ImageTypeID: 1}
	assert.Equal(t, []int64{2, 3}, tagIDs(FilterTagsByAnnotations(tags, typed)))

	combined := byID.ToggleNone()
	assert.Equal(t, []int64{1, 3}, tagIDs(FilterTagsByAnnotations(tags, combined)))

	assert.True(t, byID.Toggle(5).Empty())
}

func TestAnnotationKeys(t *testing.T) {
	sentinel, id, err := ParseAnnotationKey("no-image")
	require.NoError(t, err)
	assert.Equal(t, NoImageKey, sentinel)
	assert.Zero(t, id)

	sentinel, id, err = ParseAnnotationKey(" 42 ")
	require.NoError(t, err)
	assert.Empty(t, sentinel)
	assert.Equal(t, int64(42), id)

	_, _, err = ParseAnnotationKey("bogus")
	assert.Error(t, err)

	f := AnnotationFilterFromKeys([]string{"7", "none", "bogus", "3", "no-image"}, 2)
	assert.Equal(t, []string{"3", "7", NoImageKey, NoneKey}, f.Keys())
	assert.Equal(t, int64(2), f.ImageTypeID)

	f, err = f.ToggleKey("none")
	require.NoError(t, err)
	assert.False(t, f.None)
}

func TestAvailableAnnotations(t *testing.T) {
	tags := []collection.Tag{
		{Annotations: []collection.TagAnnotation{{ID: 2, Title: "b"}, {ID: 1, Title: "a"}}},
		{Annotations: []collection.TagAnnotation{{ID: 2, Title: "b"}}},
	}
	got := AvailableAnnotations(tags)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Title)
}

func TestCategoriesAndChildren(t *testing.T) {
	tags := []collection.Tag{
		{ID: 1, Title: "People"},
		{ID: 2, Title: "Places", ParentID: ptr(0)},
		{ID: 3, Title: "Alice", ParentID: ptr(1)},
		{ID: 4, Title: "Paris", ParentID: ptr(2)},
		{ID: 5, Title: "Bob", ParentID: ptr(1)},
	}
	assert.Equal(t, []int64{1, 2}, tagIDs(Categories(tags)))
	assert.Equal(t, []int64{3, 5}, tagIDs(ChildrenOf(tags, 1)))
	assert.Empty(t, ChildrenOf(tags, 9))

	tag, ok := TagByID(tags, 4)
	assert.True(t, ok)
	assert.Equal(t, "Paris", tag.Title)
}

func TestSortItems(t *testing.T) {
	items := []collection.Item{
		{ID: 3, Title: "banana", DurationSeconds: 10},
		{ID: 1, Title: "Apple", DurationSeconds: 30},
		{ID: 2, Title: "cherry", DurationSeconds: 20},
	}

	assert.Equal(t, []int64{1, 3, 2}, itemIDs(SortItems(items, SortTitleAsc, 0)))
	assert.Equal(t, []int64{2, 3, 1}, itemIDs(SortItems(items, SortTitleDesc, 0)))
	assert.Equal(t, []int64{1, 2, 3}, itemIDs(SortItems(items, SortDuration, 0)))
	assert.Equal(t, []int64{1, 2, 3}, itemIDs(SortItems(items, SortID, 0)))
	assert.Equal(t, []int64{3, 1, 2}, itemIDs(items), "SortItems must not reorder its input")

	first := itemIDs(SortItems(items, SortRandom, 7))
	reversed := []collection.Item{items[2], items[1], items[0]}
	assert.Equal(t, first, itemIDs(SortItems(reversed, SortRandom, 7)), "random order should depend only on the seed")
	assert.ElementsMatch(t, []int64{1, 2, 3}, first)
}

func TestSortTags(t *testing.T) {
	tags := []collection.Tag{{ID: 2, Title: "b"}, {ID: 1, Title: "C"}, {ID: 3, Title: "a"}}
	assert.Equal(t, []int64{3, 2, 1}, tagIDs(SortTags(tags, SortTitleAsc, 0)))
	assert.Equal(t, []int64{1, 2, 3}, tagIDs(SortTags(tags, SortID, 0)))
	assert.Equal(t, []int64{1, 2, 3}, tagIDs(SortTags(tags, SortTitleDesc, 0)))
}

func TestSortOrderParsing(t *testing.T) {
	assert.Equal(t, SortTitleAsc, ParseSortOrder("unknown"))
	assert.Equal(t, SortRandom, ParseSortOrder(" RANDOM "))
	assert.Equal(t, SortTitleDesc, SortTitleAsc.Next())
	assert.Equal(t, SortTitleAsc, SortID.Next())
	assert.Equal(t, SortTitleAsc, SortOrder("bogus").Next())
}
