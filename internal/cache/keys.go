package cache

import "strconv"

// Semantic query keys. Keys form a slash separated hierarchy so that
// InvalidatePrefix can drop a whole family at once.
const (
	TagsKey          = "tags"
	ItemsKey         = "items"
	DirectoriesKey   = "directories"
	QueueKey         = "queue"
	QueueMetadataKey = "queue/metadata"
	TasksPrefix      = "queue/tasks"
	TagImageTypesKey = "tag-image-types"
	SpecialTagsKey   = "special-tags"
	SubtitlesPrefix  = "subtitles"
)

func TagKey(id int64) string {
	return TagsKey + "/" + strconv.FormatInt(id, 10)
}

func TagAnnotationsKey(id int64) string {
	return TagKey(id) + "/annotations"
}

func AvailableAnnotationsKey(id int64) string {
	return TagKey(id) + "/available-annotations"
}

func ItemKey(id int64) string {
	return ItemsKey + "/" + strconv.FormatInt(id, 10)
}

func SuggestionsKey(id int64) string {
	return ItemKey(id) + "/suggestions"
}

func DirectoryKey(path string) string {
	return DirectoriesKey + "/" + path
}

func TasksKey(page int) string {
	return TasksPrefix + "/" + strconv.Itoa(page)
}

func SubtitleKey(itemID int64, name string) string {
	return SubtitlesPrefix + "/" + strconv.FormatInt(itemID, 10) + "/" + name
}
