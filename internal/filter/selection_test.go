package filter

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

func assertActiveImpliesSelected(t *testing.T, s Selection) {
	t.Helper()
	for _, id := range s.ActiveIDs() {
		assert.True(t, s.IsSelected(id), "tag %d is active but not selected", id)
	}
}

func TestSelectionReducers(t *testing.T) {
	s := NewSelection()
	assert.Zero(t, s.Len())

	s1 := s.Activate(1)
	assert.Zero(t, s.Len(), "reducers must not mutate the receiver")
	assert.Equal(t, Flags{Active: true, Selected: true}, s1.Flags(1))

	s2 := s1.Deactivate(1)
	assert.Equal(t, Flags{Selected: true}, s2.Flags(1), "deactivating keeps the chip")
	assert.True(t, s1.IsActive(1))

	s3 := s2.ToggleActive(1)
	assert.True(t, s3.IsActive(1))

	s4 := s3.Select(2)
	assert.Equal(t, Flags{Selected: true}, s4.Flags(2))
	assert.Equal(t, []int64{1, 2}, s4.SelectedIDs())
	assert.Equal(t, []int64{1}, s4.ActiveIDs())

	s5 := s4.Deselect(1)
	assert.Equal(t, Flags{}, s5.Flags(1))
	assert.Equal(t, []int64{2}, s5.SelectedIDs())

	assert.Equal(t, s5, s5.Deactivate(99))
	assert.Equal(t, s5, s5.Deselect(99))
	assert.Zero(t, s5.Clear().Len())
}

func TestSelectionSelectKeepsActive(t *testing.T) {
	s := NewSelection(4).Select(4)
	assert.True(t, s.IsActive(4))
}

func TestSelectionInvariantUnderRandomOps(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	s := NewSelection()
	for i := 0; i < 500; i++ {
		id := int64(r.IntN(6))
		switch r.IntN(6) {
		case 0:
			s = s.Activate(id)
		case 1:
			s = s.Deactivate(id)
		case 2:
			s = s.ToggleActive(id)
		case 3:
			s = s.Select(id)
		case 4:
			s = s.Deselect(id)
		default:
			if r.IntN(10) == 0 {
				s = s.Clear()
			}
		}
		assertActiveImpliesSelected(t, s)
	}
}

func TestSelectionResolvesTags(t *testing.T) {
	tags := []collection.Tag{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}
	s := NewSelection(2, 7).Select(1)
	assert.Equal(t, []int64{2}, tagIDs(s.ActiveTags(tags)))
	assert.Equal(t, []int64{1, 2}, tagIDs(s.SelectedTags(tags)))
}
