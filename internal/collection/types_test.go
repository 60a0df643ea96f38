package collection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatusDerivation(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	started := now.Add(-2 * time.Minute)
	longAgo := now.Add(-time.Hour)
	ended := now.Add(-time.Minute)

	tests := []struct {
		name      string
		task      Task
		want      TaskStatus
		wantStale bool
	}{
		{"no timestamps", Task{}, TaskPending, false},
		{"enqueued only", Task{EnqueueTime: &longAgo}, TaskPending, false},
		{"processing", Task{ProcessingStart: &started}, TaskProcessing, false},
		{"processing for an hour", Task{ProcessingStart: &longAgo}, TaskProcessing, true},
		{"done", Task{ProcessingStart: &longAgo, ProcessingEnd: &ended}, TaskDone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Status())
			assert.Equal(t, tt.wantStale, tt.task.IsStale(now))
		})
	}
}

func TestTaskElapsed(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	start := now.Add(-90 * time.Second)
	end := now.Add(-30 * time.Second)
	assert.Equal(t, 90*time.Second, (Task{ProcessingStart: &start}).Elapsed(now))
	assert.Equal(t, time.Minute, (Task{ProcessingStart: &start, ProcessingEnd: &end}).Elapsed(now))
	assert.Zero(t, (Task{}).Elapsed(now))
}

func TestTagHelpers(t *testing.T) {
	var zero int64
	parent := int64(4)
	assert.True(t, (Tag{}).IsCategory())
	assert.True(t, (Tag{ParentID: &zero}).IsCategory(), "a zero parent is a category")

	child := Tag{ID: 9, ParentID: &parent, Items: []ItemRef{{ID: 1}, {ID: 3}}}
	assert.False(t, child.IsCategory())
	assert.Equal(t, int64(4), child.Parent())
	assert.True(t, child.ContainsItem(3))
	assert.False(t, child.ContainsItem(2))

	withImage := Tag{Images: []TagImage{{URL: "a.jpg", ImageTypeID: 2}, {URL: "", ImageTypeID: 3}}}
	assert.True(t, withImage.HasImageOfType(0))
	assert.True(t, withImage.HasImageOfType(2))
	assert.False(t, withImage.HasImageOfType(3), "images without a url do not count")

	assert.Equal(t, "y", (Tag{Title: "x", DisplayName: " y "}).Label())
}

func TestItemHelpers(t *testing.T) {
	raw := []byte(`{"id":3,"title":"Part 2","duration_seconds":600,"start_position":120,"end_position":300,"main_item":1,"tags":[{"id":7}]}`)
	var item Item
	require.NoError(t, json.Unmarshal(raw, &item))
	assert.True(t, item.IsSubItem())
	assert.False(t, item.IsHighlight())

	start, end := item.PlaybackRange()
	assert.Equal(t, 120.0, start)
	assert.Equal(t, 300.0, end)
	assert.Equal(t, 3*time.Minute, item.Duration())
	assert.True(t, item.HasTag(7))
	assert.False(t, item.HasTag(8))
	assert.Equal(t, time.Minute, (Item{DurationSeconds: 60}).Duration(), "no range uses the file duration")
}

func TestDirectoryHelpers(t *testing.T) {
	excluded := true
	files := 12
	d := Directory{Excluded: &excluded, FilesCount: &files}
	assert.True(t, d.IsExcluded())
	assert.Equal(t, 12, d.Files())
	assert.False(t, (Directory{}).IsExcluded())
	assert.Zero(t, (Directory{}).Files())
}
