// Package library combines the API client with the query cache: reads go
// through the cache and mutations patch cached data optimistically, call the
// server, then invalidate what the server may have changed.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/dvdlevanon/my-collection-sub000/internal/cache"
	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
)

// TasksPageSize is the page size used for the task list.
const TasksPageSize = 20

var errNoClient = errors.New("library has no api client")

// Service is safe for concurrent use.
type Service struct {
	client *collection.Client
	cache  *cache.Cache
	logger *slog.Logger
}

// New builds a service. A nil cache disables caching.
func New(client *collection.Client, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{client: client, cache: c, logger: logger}
}

// Cache exposes the underlying cache for subscriptions and snapshots.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Client returns the API client.
func (s *Service) Client() *collection.Client {
	return s.client
}

func (s *Service) ready() error {
	if s == nil || s.client == nil {
		return errNoClient
	}
	return nil
}

// Queries

func (s *Service) Tags(ctx context.Context) ([]collection.Tag, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return cache.Query(ctx, s.cache, cache.TagsKey, s.client.FetchTags)
}

func (s *Service) Tag(ctx context.Context, id int64) (collection.Tag, error) {
	if err := s.ready(); err != nil {
		return collection.Tag{}, err
	}
	return cache.Query(ctx, s.cache, cache.TagKey(id), func(ctx context.Context) (collection.Tag, error) {
		return s.client.FetchTag(ctx, id)
	})
}

// TagAnnotations lists the annotations attached to a tag.
func (s *Service) TagAnnotations(ctx context.Context, tagID int64) ([]collection.TagAnnotation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return cache.Query(ctx, s.cache, cache.TagAnnotationsKey(tagID), func(ctx context.Context) ([]collection.TagAnnotation, error) {
		return s.client.FetchTagAnnotations(ctx, tagID)
	})
}

// AvailableAnnotations lists the annotations used by the tag's siblings.
func (s *Service) AvailableAnnotations(ctx context.Context, tagID int64) ([]collection.TagAnnotation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return cache.Query(ctx, s.cache, cache.AvailableAnnotationsKey(tagID), func(ctx context.Context) ([]collection.TagAnnotation, error) {
		return s.client.FetchAvailableAnnotations(ctx, tagID)
	})
}

func (s *Service) Items(ctx context.Context) ([]collection.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return cache.Query(ctx, s.cache, cache.ItemsKey, s.client.FetchItems)
}

func (s *Service) Item(ctx context.Context, id int64) (collection.Item, error) {
	if err := s.ready(); err != nil {
		return collection.Item{}, err
	}
	return cache.Query(ctx, s.cache, cache.ItemKey(id), func(ctx context.Context) (collection.Item, error) {
		return s.client.FetchItem(ctx, id)
	})
}

func (s *Service) Suggestions(ctx context.Context, id int64) ([]collection.Item, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return cache.Query(ctx, s.cache, cache.SuggestionsKey(id), func(ctx context.Context) ([]collection.Item, error) {
		return s.client.FetchSuggestions(ctx, id)
	})
}

func (s *Service) Directories(ctx context.Context) ([]collection.Directory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return cache.Query(ctx, s.cache, cache.DirectoriesKey, s.client.FetchDirectories)
}

func (s *Service) Directory(ctx context.Context, path string) (collection.Directory, error) {
	if err := s.ready(); err != nil {
		return collection.Directory{}, err
	}
	return cache.Query(ctx, s.cache, cache.DirectoryKey(path), func(ctx context.Context) (collection.Directory, error) {
		return s.client.FetchDirectory(ctx, path)
	})
}

// ItemLocation returns the item's path on the server. It is not cached.
func (s *Service) ItemLocation(ctx context.Context, id int64) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	path, err := s.client.FetchItemLocation(ctx, id)
	if err != nil {
		return "", fmt.Errorf("item location: %w", err)
	}
	return path, nil
}

func (s *Service) QueueMetadata(ctx context.Context) (collection.QueueMetadata, error) {
	if err := s.ready(); err != nil {
		return collection.QueueMetadata{}, err
	}
	return cache.Query(ctx, s.cache, cache.QueueMetadataKey, s.client.FetchQueueMetadata)
}

// Tasks returns one page of the task list. Pages start at 1.
func (s *Service) Tasks(ctx context.Context, page int) (collection.TaskPage, error) {
	if err := s.ready(); err != nil {
		return collection.TaskPage{}, err
	}
	if page < 1 {
		page = 1
	}
	return cache.Query(ctx, s.cache, cache.TasksKey(page), func(ctx context.Context) (collection.TaskPage, error) {
		return s.client.FetchTasks(ctx, page, TasksPageSize)
	})
}

func (s *Service) Subtitle(ctx context.Context, itemID int64, name string) (collection.Subtitle, error) {
	if err := s.ready(); err != nil {
		return collection.Subtitle{}, err
	}
	return cache.Query(ctx, s.cache, cache.SubtitleKey(itemID, name), func(ctx context.Context) (collection.Subtitle, error) {
		return s.client.FetchSubtitle(ctx, itemID, name)
	})
}

func (s *Service) SpecialTags(ctx context.Context) (collection.SpecialTags, error) {
	if err := s.ready(); err != nil {
		return collection.SpecialTags{}, err
	}
	return cache.Query(ctx, s.cache, cache.SpecialTagsKey, s.client.FetchSpecialTags)
}

func (s *Service) TagImageTypes(ctx context.Context) ([]collection.TagImageType, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return cache.Query(ctx, s.cache, cache.TagImageTypesKey, s.client.FetchTagImageTypes)
}

// Refresh drops every cached query so the next read refetches.
func (s *Service) Refresh() {
	if s == nil || s.cache == nil {
		return
	}
	for _, key := range s.cache.Keys() {
		s.cache.Invalidate(key)
	}
}

// RefreshQueue refetches the queue metadata and the first task page.
func (s *Service) RefreshQueue(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.cache.Invalidate(cache.QueueMetadataKey)
	s.cache.InvalidatePrefix(cache.TasksPrefix)
	if _, err := s.QueueMetadata(ctx); err != nil {
		return fmt.Errorf("refresh queue metadata: %w", err)
	}
	if _, err := s.Tasks(ctx, 1); err != nil {
		return fmt.Errorf("refresh tasks: %w", err)
	}
	return nil
}

// ApplyQueueMetadata stores metadata received from the push channel.
func (s *Service) ApplyQueueMetadata(meta collection.QueueMetadata) {
	if s == nil || s.cache == nil {
		return
	}
	s.cache.Set(cache.QueueMetadataKey, meta)
}

// mutate runs call and then invalidates keys whether or not it succeeded,
// so optimistic patches are replaced by server state.
func (s *Service) mutate(ctx context.Context, op string, call func(context.Context) error, keys ...string) error {
	if err := s.ready(); err != nil {
		return err
	}
	err := call(ctx)
	if s.cache != nil {
		s.cache.Invalidate(keys...)
	}
	if err != nil {
		s.logger.Warn("mutation failed", logging.String("op", op), logging.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) patchItem(itemID int64, fn func(collection.Item) collection.Item) {
	if s == nil || s.cache == nil {
		return
	}
	cache.Patch(s.cache, cache.ItemKey(itemID), fn)
	cache.Patch(s.cache, cache.ItemsKey, func(items []collection.Item) []collection.Item {
		for i := range items {
			if items[i].ID == itemID {
				items[i] = fn(items[i])
			}
		}
		return items
	})
}

func (s *Service) patchTags(fn func([]collection.Tag) []collection.Tag) {
	if s == nil || s.cache == nil {
		return
	}
	cache.Patch(s.cache, cache.TagsKey, fn)
}

// Item tags

// AddTagToItem attaches a tag to an item. The cached item shows the tag
// before the server confirms.
func (s *Service) AddTagToItem(ctx context.Context, itemID int64, tag collection.Tag) error {
	s.patchItem(itemID, func(item collection.Item) collection.Item {
		if !item.HasTag(tag.ID) {
			item.Tags = append(slices.Clone(item.Tags), collection.Tag{ID: tag.ID, Title: tag.Title, ParentID: tag.ParentID})
		}
		return item
	})
	return s.mutate(ctx, "add tag to item", func(ctx context.Context) error {
		return s.client.AddTagToItem(ctx, itemID, tag.ID)
	}, cache.ItemKey(itemID), cache.ItemsKey, cache.TagsKey, cache.TagKey(tag.ID))
}

func (s *Service) RemoveTagFromItem(ctx context.Context, itemID, tagID int64) error {
	s.patchItem(itemID, func(item collection.Item) collection.Item {
		item.Tags = slices.DeleteFunc(slices.Clone(item.Tags), func(t collection.Tag) bool { return t.ID == tagID })
		return item
	})
	return s.mutate(ctx, "remove tag from item", func(ctx context.Context) error {
		return s.client.RemoveTagFromItem(ctx, itemID, tagID)
	}, cache.ItemKey(itemID), cache.ItemsKey, cache.TagsKey, cache.TagKey(tagID))
}

// Tags

func (s *Service) CreateTag(ctx context.Context, title string, parentID int64) (collection.Tag, error) {
	if err := s.ready(); err != nil {
		return collection.Tag{}, err
	}
	tag, err := s.client.CreateTag(ctx, title, parentID)
	if s.cache != nil {
		s.cache.Invalidate(cache.TagsKey)
	}
	if err != nil {
		return collection.Tag{}, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// UpdateTag renames or re-parents a tag, patching the cached tag list first.
func (s *Service) UpdateTag(ctx context.Context, tag collection.Tag) error {
	s.patchTags(func(tags []collection.Tag) []collection.Tag {
		for i := range tags {
			if tags[i].ID == tag.ID {
				tags[i].Title = tag.Title
				tags[i].ParentID = tag.ParentID
				tags[i].DisplayName = tag.DisplayName
			}
		}
		return tags
	})
	return s.mutate(ctx, "update tag", func(ctx context.Context) error {
		return s.client.UpdateTag(ctx, tag)
	}, cache.TagsKey, cache.TagKey(tag.ID), cache.ItemsKey)
}

func (s *Service) RemoveTag(ctx context.Context, id int64) error {
	s.patchTags(func(tags []collection.Tag) []collection.Tag {
		return slices.DeleteFunc(tags, func(t collection.Tag) bool { return t.ID == id })
	})
	if s != nil && s.cache != nil {
		s.cache.Remove(cache.TagKey(id))
	}
	return s.mutate(ctx, "remove tag", func(ctx context.Context) error {
		return s.client.RemoveTag(ctx, id)
	}, cache.TagsKey, cache.ItemsKey)
}

func (s *Service) AddAnnotation(ctx context.Context, tagID int64, title string) error {
	return s.mutate(ctx, "add annotation", func(ctx context.Context) error {
		_, err := s.client.AddTagAnnotation(ctx, tagID, title)
		return err
	}, cache.TagsKey, cache.TagKey(tagID), cache.TagAnnotationsKey(tagID), cache.AvailableAnnotationsKey(tagID))
}

func (s *Service) RemoveAnnotation(ctx context.Context, tagID, annotationID int64) error {
	s.patchTags(func(tags []collection.Tag) []collection.Tag {
		for i := range tags {
			if tags[i].ID == tagID {
				tags[i].Annotations = slices.DeleteFunc(slices.Clone(tags[i].Annotations), func(a collection.TagAnnotation) bool {
					return a.ID == annotationID
				})
			}
		}
		return tags
	})
	return s.mutate(ctx, "remove annotation", func(ctx context.Context) error {
		return s.client.RemoveTagAnnotation(ctx, tagID, annotationID)
	}, cache.TagsKey, cache.TagKey(tagID), cache.TagAnnotationsKey(tagID), cache.AvailableAnnotationsKey(tagID))
}

// Tag images

// RemoveTagImage drops the tag's image of one image type.
func (s *Service) RemoveTagImage(ctx context.Context, tagID, imageTypeID int64) error {
	s.patchTags(func(tags []collection.Tag) []collection.Tag {
		for i := range tags {
			if tags[i].ID == tagID {
				tags[i].Images = slices.DeleteFunc(slices.Clone(tags[i].Images), func(img collection.TagImage) bool {
					return img.ImageTypeID == imageTypeID
				})
			}
		}
		return tags
	})
	return s.mutate(ctx, "remove tag image", func(ctx context.Context) error {
		return s.client.RemoveTagImageFromTit(ctx, tagID, imageTypeID)
	}, cache.TagsKey, cache.TagKey(tagID))
}

// UploadTagImage stores content on the server and sets it as the tag's
// image for imageTypeID, replacing any previous image of that type.
func (s *Service) UploadTagImage(ctx context.Context, tag collection.Tag, imageTypeID int64, name string, content io.Reader) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	url, err := s.client.UploadFile(ctx, tagImageDir(tag.ID), name, content)
	if err != nil {
		return "", fmt.Errorf("upload tag image: %w", err)
	}
	tag.Images = slices.DeleteFunc(slices.Clone(tag.Images), func(img collection.TagImage) bool {
		return img.ImageTypeID == imageTypeID
	})
	tag.Images = append(tag.Images, collection.TagImage{URL: url, ImageTypeID: imageTypeID})
	if err := s.mutate(ctx, "set tag image", func(ctx context.Context) error {
		return s.client.UpdateTag(ctx, tag)
	}, cache.TagsKey, cache.TagKey(tag.ID)); err != nil {
		return "", err
	}
	return url, nil
}

func tagImageDir(tagID int64) string {
	return "tags-images/" + strconv.FormatInt(tagID, 10)
}

func (s *Service) CreateTagImageType(ctx context.Context, nickname string) (collection.TagImageType, error) {
	if err := s.ready(); err != nil {
		return collection.TagImageType{}, err
	}
	tit, err := s.client.CreateTagImageType(ctx, nickname)
	if s.cache != nil {
		s.cache.Invalidate(cache.TagImageTypesKey)
	}
	if err != nil {
		return collection.TagImageType{}, fmt.Errorf("create tag image type: %w", err)
	}
	return tit, nil
}

// Item actions

func (s *Service) itemKeys(itemID int64) []string {
	return []string{cache.ItemKey(itemID), cache.ItemsKey}
}

// UpdateItem saves the item's editable fields. The cached item changes
// before the server confirms.
func (s *Service) UpdateItem(ctx context.Context, item collection.Item) error {
	s.patchItem(item.ID, func(cached collection.Item) collection.Item {
		cached.Title = item.Title
		return cached
	})
	return s.mutate(ctx, "update item", func(ctx context.Context) error {
		return s.client.UpdateItem(ctx, item)
	}, append(s.itemKeys(item.ID), cache.SuggestionsKey(item.ID))...)
}

func (s *Service) RemoveItem(ctx context.Context, id int64) error {
	if s != nil && s.cache != nil {
		cache.Patch(s.cache, cache.ItemsKey, func(items []collection.Item) []collection.Item {
			return slices.DeleteFunc(items, func(it collection.Item) bool { return it.ID == id })
		})
		s.cache.Remove(cache.ItemKey(id))
	}
	return s.mutate(ctx, "remove item", func(ctx context.Context) error {
		return s.client.RemoveItem(ctx, id)
	}, cache.ItemsKey, cache.TagsKey)
}

func (s *Service) SetMainCover(ctx context.Context, itemID int64, second float64) error {
	return s.mutate(ctx, "set main cover", func(ctx context.Context) error {
		return s.client.SetMainCover(ctx, itemID, second)
	}, s.itemKeys(itemID)...)
}

func (s *Service) SplitItem(ctx context.Context, itemID int64, second float64) error {
	return s.mutate(ctx, "split item", func(ctx context.Context) error {
		return s.client.SplitItem(ctx, itemID, second)
	}, s.itemKeys(itemID)...)
}

func (s *Service) MakeHighlight(ctx context.Context, itemID int64, start, end float64, highlightTagID int64) error {
	return s.mutate(ctx, "make highlight", func(ctx context.Context) error {
		return s.client.MakeHighlight(ctx, itemID, start, end, highlightTagID)
	}, append(s.itemKeys(itemID), cache.TagsKey)...)
}

func (s *Service) CropFrame(ctx context.Context, itemID int64, second float64, rect collection.Rect) error {
	return s.mutate(ctx, "crop frame", func(ctx context.Context) error {
		return s.client.CropFrame(ctx, itemID, second, rect)
	}, s.itemKeys(itemID)...)
}

// Directories

func (s *Service) AddDirectory(ctx context.Context, dir collection.Directory) error {
	return s.mutate(ctx, "add directory", func(ctx context.Context) error {
		return s.client.AddDirectory(ctx, dir)
	}, cache.DirectoriesKey)
}

func (s *Service) RemoveDirectory(ctx context.Context, path string) error {
	if s != nil && s.cache != nil {
		cache.Patch(s.cache, cache.DirectoriesKey, func(dirs []collection.Directory) []collection.Directory {
			return slices.DeleteFunc(dirs, func(d collection.Directory) bool { return d.Path == path })
		})
	}
	return s.mutate(ctx, "remove directory", func(ctx context.Context) error {
		return s.client.RemoveDirectory(ctx, path)
	}, cache.DirectoriesKey, cache.DirectoryKey(path))
}

func (s *Service) AddTagToDirectory(ctx context.Context, path string, tagID int64) error {
	return s.mutate(ctx, "add tag to directory", func(ctx context.Context) error {
		return s.client.AddTagToDirectory(ctx, path, tagID)
	}, cache.DirectoriesKey, cache.DirectoryKey(path), cache.ItemsKey)
}

func (s *Service) RemoveTagFromDirectory(ctx context.Context, path string, tagID int64) error {
	return s.mutate(ctx, "remove tag from directory", func(ctx context.Context) error {
		return s.client.RemoveTagFromDirectory(ctx, path, tagID)
	}, cache.DirectoriesKey, cache.DirectoryKey(path), cache.ItemsKey)
}

// Queue

func (s *Service) queueMutation(ctx context.Context, op string, call func(context.Context) error, paused *bool) error {
	if paused != nil && s != nil && s.cache != nil {
		cache.Patch(s.cache, cache.QueueMetadataKey, func(m collection.QueueMetadata) collection.QueueMetadata {
			m.Paused = *paused
			return m
		})
	}
	if err := s.mutate(ctx, op, call, cache.QueueMetadataKey); err != nil {
		return err
	}
	s.cache.InvalidatePrefix(cache.TasksPrefix)
	return nil
}

func (s *Service) PauseQueue(ctx context.Context) error {
	paused := true
	return s.queueMutation(ctx, "pause queue", s.client.PauseQueue, &paused)
}

func (s *Service) ContinueQueue(ctx context.Context) error {
	paused := false
	return s.queueMutation(ctx, "continue queue", s.client.ContinueQueue, &paused)
}

func (s *Service) ClearFinished(ctx context.Context) error {
	return s.queueMutation(ctx, "clear finished tasks", s.client.ClearFinishedTasks, nil)
}
