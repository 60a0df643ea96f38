package subtitles

import (
	"math"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

// noIndex marks the cached match as invalid.
const noIndex = -1

// Track resolves the caption active at a playback time. Entries are
// expected in ascending order; overlapping entries resolve to the first one.
// A Track is not safe for concurrent use.
type Track struct {
	entries []collection.SubtitleEntry
	// offset in milliseconds, added to the playback time.
	offset int64
	last   int
}

// NewTrack builds a track over entries.
func NewTrack(entries []collection.SubtitleEntry) *Track {
	t := &Track{}
	t.Reset(entries)
	return t
}

// Reset replaces the entries and drops the cached match. The offset is kept.
func (t *Track) Reset(entries []collection.SubtitleEntry) {
	t.entries = append([]collection.SubtitleEntry(nil), entries...)
	t.last = noIndex
}

// Len returns the number of entries.
func (t *Track) Len() int {
	return len(t.entries)
}

// Offset returns the current offset in milliseconds.
func (t *Track) Offset() int64 {
	return t.offset
}

// SetOffset sets the offset in milliseconds.
func (t *Track) SetOffset(ms int64) {
	t.offset = ms
}

// AdjustOffset shifts the offset by delta milliseconds and returns the new value.
func (t *Track) AdjustOffset(delta int64) int64 {
	t.offset += delta
	return t.offset
}

// TextAt returns the caption for the playback position in seconds, or ""
// when no entry covers it.
func (t *Track) TextAt(seconds float64) string {
	if t == nil || len(t.entries) == 0 {
		return ""
	}
	ms := int64(math.Round(seconds*1000)) + t.offset

	if t.last >= 0 && t.last < len(t.entries) && covers(t.entries[t.last], ms) {
		return t.entries[t.last].Text
	}

	for i, entry := range t.entries {
		if covers(entry, ms) {
			t.last = i
			return entry.Text
		}
	}

	t.last = noIndex
	return ""
}

func covers(e collection.SubtitleEntry, ms int64) bool {
	return e.StartMillis <= ms && ms <= e.EndMillis
}
