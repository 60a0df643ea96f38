package collection

import (
	"strings"
	"time"
)

// StaleTaskAfter is how long a task may stay in processing before the UI
// flags it as stale.
const StaleTaskAfter = 10 * time.Minute

// Tag mirrors the backend tag record. Tags without a parent are categories.
type Tag struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	ParentID    *int64          `json:"parentId,omitempty"`
	Children    []Tag           `json:"children,omitempty"`
	Items       []ItemRef       `json:"items,omitempty"`
	Images      []TagImage      `json:"images,omitempty"`
	Annotations []TagAnnotation `json:"tags_annotations,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
}

// ItemRef is the reverse membership entry carried on a tag.
type ItemRef struct {
	ID int64 `json:"id"`
}

// TagImage is an image assigned to a tag for a given tag image type.
type TagImage struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	ImageTypeID int64  `json:"imageType"`
	Nonce       int64  `json:"nonce,omitempty"`
}

// TagAnnotation is a cross-cutting label attached to tags.
type TagAnnotation struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// TagImageType is a named image slot (portrait, banner, ...).
type TagImageType struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

// IsCategory reports whether the tag is a top-level super tag.
func (t Tag) IsCategory() bool {
	return t.ParentID == nil || *t.ParentID == 0
}

// Parent returns the parent id or zero for categories.
func (t Tag) Parent() int64 {
	if t.ParentID == nil {
		return 0
	}
	return *t.ParentID
}

// HasImageOfType reports whether the tag has an image. A zero titID matches any type.
func (t Tag) HasImageOfType(titID int64) bool {
	for _, img := range t.Images {
		if strings.TrimSpace(img.URL) == "" {
			continue
		}
		if titID == 0 || img.ImageTypeID == titID {
			return true
		}
	}
	return false
}

// ContainsItem reports whether the tag's membership list includes itemID.
func (t Tag) ContainsItem(itemID int64) bool {
	for _, ref := range t.Items {
		if ref.ID == itemID {
			return true
		}
	}
	return false
}

// Label returns the display name when set, falling back to the title.
func (t Tag) Label() string {
	if name := strings.TrimSpace(t.DisplayName); name != "" {
		return name
	}
	return t.Title
}

// Cover is a still image extracted from an item.
type Cover struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Item mirrors the backend item record.
type Item struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Origin            string  `json:"origin,omitempty"`
	URL               string  `json:"url"`
	DurationSeconds   float64 `json:"duration_seconds,omitempty"`
	StartPosition     float64 `json:"start_position,omitempty"`
	EndPosition       float64 `json:"end_position,omitempty"`
	Width             int     `json:"width,omitempty"`
	Height            int     `json:"height,omitempty"`
	VideoCodecName    string  `json:"video_codec_name,omitempty"`
	AudioCodecName    string  `json:"audio_codec_name,omitempty"`
	FileSize          int64   `json:"file_size,omitempty"`
	LastModified      int64   `json:"last_modified,omitempty"`
	Covers            []Cover `json:"covers,omitempty"`
	Preview           string  `json:"preview_url,omitempty"`
	Tags              []Tag   `json:"tags,omitempty"`
	MainItem          *int64  `json:"main_item,omitempty"`
	SubItems          []Item  `json:"sub_items,omitempty"`
	Highlights        []Item  `json:"highlights,omitempty"`
	HighlightParentID *int64  `json:"highlight_parent_id,omitempty"`
}

// IsSubItem reports whether the item is a split segment of another item.
func (i Item) IsSubItem() bool {
	return i.MainItem != nil && *i.MainItem != 0
}

// IsHighlight reports whether the item is a clip extracted from another item.
func (i Item) IsHighlight() bool {
	return i.HighlightParentID != nil && *i.HighlightParentID != 0
}

// PlaybackRange returns the start and end seconds to play. An end of zero
// means "until the end of the file".
func (i Item) PlaybackRange() (start, end float64) {
	return i.StartPosition, i.EndPosition
}

// HasTag reports whether the item carries tagID.
func (i Item) HasTag(tagID int64) bool {
	for _, t := range i.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// Duration returns the playable length of the item.
func (i Item) Duration() time.Duration {
	seconds := i.DurationSeconds
	if i.EndPosition > 0 {
		seconds = i.EndPosition - i.StartPosition
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// Directory is a source directory scanned by the backend.
type Directory struct {
	Path            string `json:"path"`
	Excluded        *bool  `json:"excluded,omitempty"`
	FilesCount      *int   `json:"filesCount,omitempty"`
	LastSynced      int64  `json:"lastSynced,omitempty"`
	ProcessingStart *int64 `json:"processingStart,omitempty"`
	Tags            []Tag  `json:"tags,omitempty"`
}

// IsExcluded reports whether the directory is excluded from scanning.
func (d Directory) IsExcluded() bool {
	return d.Excluded != nil && *d.Excluded
}

// Files returns the known file count, zero when unknown.
func (d Directory) Files() int {
	if d.FilesCount == nil {
		return 0
	}
	return *d.FilesCount
}

// TaskStatus is derived from the task timestamps.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskDone       TaskStatus = "done"
)

// Task is a backend processing queue entry.
type Task struct {
	ID              string     `json:"id"`
	TaskType        int        `json:"taskType"`
	IDParam         int64      `json:"idParam,omitempty"`
	Description     string     `json:"description"`
	EnqueueTime     *time.Time `json:"enqueueTime,omitempty"`
	ProcessingStart *time.Time `json:"processingStart,omitempty"`
	ProcessingEnd   *time.Time `json:"processingEnd,omitempty"`
}

// Status derives the task status from which timestamps are present.
func (t Task) Status() TaskStatus {
	switch {
	case t.ProcessingEnd != nil && !t.ProcessingEnd.IsZero():
		return TaskDone
	case t.ProcessingStart != nil && !t.ProcessingStart.IsZero():
		return TaskProcessing
	default:
		return TaskPending
	}
}

// IsStale reports whether a processing task has been running longer than
// StaleTaskAfter.
func (t Task) IsStale(now time.Time) bool {
	if t.Status() != TaskProcessing {
		return false
	}
	return now.Sub(*t.ProcessingStart) > StaleTaskAfter
}

// Elapsed returns how long the task has been processing, or how long it took.
func (t Task) Elapsed(now time.Time) time.Duration {
	if t.ProcessingStart == nil {
		return 0
	}
	end := now
	if t.ProcessingEnd != nil {
		end = *t.ProcessingEnd
	}
	return end.Sub(*t.ProcessingStart)
}

// TaskPage is one page of the server-side paginated task list.
type TaskPage struct {
	Tasks      []Task `json:"tasks"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalTasks int    `json:"totalTasks"`
}

// Pages returns the number of pages given the page size.
func (p TaskPage) Pages() int {
	if p.PageSize <= 0 || p.TotalTasks <= 0 {
		return 1
	}
	return (p.TotalTasks + p.PageSize - 1) / p.PageSize
}

// QueueMetadata is the queue snapshot delivered by the push channel.
type QueueMetadata struct {
	Size       int  `json:"size"`
	Paused     bool `json:"paused"`
	Unfinished int  `json:"unfinishedTasks,omitempty"`
	Processing bool `json:"isProcessing,omitempty"`
}

// SubtitleEntry is a single caption.
type SubtitleEntry struct {
	StartMillis int64  `json:"start_millis"`
	EndMillis   int64  `json:"end_millis"`
	Text        string `json:"text"`
}

// Subtitle is a caption track for an item.
type Subtitle struct {
	Name  string          `json:"name,omitempty"`
	Items []SubtitleEntry `json:"items"`
}

// SpecialTags holds ids of backend-managed tags.
type SpecialTags struct {
	DirectoriesTagID int64 `json:"directoriesTagId"`
	HighlightsTagID  int64 `json:"highlightsTagId"`
	DailymixTagID    int64 `json:"dailymixTagId"`
}

// Rect is a crop rectangle in video pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}
