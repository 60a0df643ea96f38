package library

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvdlevanon/my-collection-sub000/internal/cache"
	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

type backend struct {
	mu       sync.Mutex
	requests []string
	items    atomic.Int32
	failPost atomic.Bool
	bodies   map[string]string
}

func (b *backend) record(r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	b.mu.Unlock()
}

func (b *backend) recordBody(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bodies == nil {
		b.bodies = map[string]string{}
	}
	if r.URL.Path == "/api/upload-file" {
		_ = r.ParseMultipartForm(1 << 20)
		b.bodies[r.URL.Path] = r.FormValue("path")
		return
	}
	raw, _ := io.ReadAll(r.Body)
	b.bodies[r.Method+" "+r.URL.Path] = string(raw)
}

func (b *backend) Body(req string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[req]
}

func (b *backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func newService(t *testing.T) (*Service, *backend) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if r.Method != http.MethodGet {
			if b.failPost.Load() {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			b.recordBody(r)
			switch r.URL.Path {
			case "/api/upload-file":
				_ = json.NewEncoder(w).Encode(map[string]string{"url": "file/tags-images/10/cover.png"})
			case "/api/tags/10/annotations":
				_ = json.NewEncoder(w).Encode(collection.TagAnnotation{ID: 6, Title: "archived"})
			case "/api/tag-image-types":
				_ = json.NewEncoder(w).Encode(collection.TagImageType{ID: 7, Nickname: "banner"})
			default:
				w.WriteHeader(http.StatusOK)
			}
			return
		}
		var payload any
		switch r.URL.Path {
		case "/api/items":
			b.items.Add(1)
			payload = []collection.Item{
				{ID: 1, Title: "one", Tags: []collection.Tag{{ID: 10, Title: "a"}}},
				{ID: 2, Title: "two"},
			}
		case "/api/items/1":
			payload = collection.Item{ID: 1, Title: "one", Tags: []collection.Tag{{ID: 10, Title: "a"}}}
		case "/api/tags":
			payload = []collection.Tag{
				{ID: 10, Title: "a", Images: []collection.TagImage{{ID: 1, URL: "file/a.png", ImageTypeID: 3}}},
				{ID: 11, Title: "b"},
			}
		case "/api/tags/10/annotations":
			payload = []collection.TagAnnotation{{ID: 5, Title: "favorite"}}
		case "/api/tags/10/available-annotations":
			payload = []collection.TagAnnotation{{ID: 5, Title: "favorite"}, {ID: 6, Title: "archived"}}
		case "/api/items/1/location":
			payload = map[string]string{"path": "/media/one.mp4"}
		case "/api/directories/media/videos":
			payload = collection.Directory{Path: "media/videos"}
		case "/api/queue/metadata":
			payload = collection.QueueMetadata{Size: 3}
		case "/api/queue/tasks":
			payload = collection.TaskPage{Tasks: []collection.Task{{ID: "t1", Description: "scan"}}, TotalTasks: 1}
		default:
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)

	client, err := collection.NewClient(srv.URL)
	require.NoError(t, err)
	return New(client, cache.New(), nil), b
}

func TestQueriesAreCached(t *testing.T) {
	svc, b := newService(t)
	ctx := context.Background()

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	_, err = svc.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), b.items.Load())

	svc.Refresh()
	_, err = svc.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), b.items.Load())
}

func TestAddTagToItemPatchesThenInvalidates(t *testing.T) {
	svc, b := newService(t)
	ctx := context.Background()
	_, err := svc.Items(ctx)
	require.NoError(t, err)
	_, err = svc.Item(ctx, 1)
	require.NoError(t, err)

	b.failPost.Store(true)
	err = svc.AddTagToItem(ctx, 1, collection.Tag{ID: 11, Title: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add tag to item")

	item, ok := cache.Get[collection.Item](svc.Cache(), cache.ItemKey(1))
	require.True(t, ok)
	assert.True(t, item.HasTag(11), "optimistic patch stays visible until refetch")

	snap, ok := svc.Cache().Snapshot(cache.ItemKey(1))
	require.True(t, ok)
	assert.True(t, snap.Stale)

	refetched, err := svc.Item(ctx, 1)
	require.NoError(t, err)
	assert.False(t, refetched.HasTag(11))
	assert.Contains(t, b.Requests(), "POST /api/items/1/tags")
}

func TestRemoveTagFromItemPatchesList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Items(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveTagFromItem(ctx, 1, 10))
	items, ok := cache.Get[[]collection.Item](svc.Cache(), cache.ItemsKey)
	require.True(t, ok)
	assert.False(t, items[0].HasTag(10))
}

func TestRemoveTagPatchesTags(t *testing.T) {
	svc, b := newService(t)
	ctx := context.Background()
	_, err := svc.Tags(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveTag(ctx, 10))
	tags, ok := cache.Get[[]collection.Tag](svc.Cache(), cache.TagsKey)
	require.True(t, ok)
	require.Len(t, tags, 1)
	assert.Equal(t, int64(11), tags[0].ID)
	assert.Contains(t, b.Requests(), "DELETE /api/tags/10")
}

func TestQueueMutations(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.QueueMetadata(ctx)
	require.NoError(t, err)
	_, err = svc.Tasks(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, svc.PauseQueue(ctx))
	meta, ok := cache.Get[collection.QueueMetadata](svc.Cache(), cache.QueueMetadataKey)
	require.True(t, ok)
	assert.True(t, meta.Paused)

	snap, ok := svc.Cache().Snapshot(cache.TasksKey(1))
	require.True(t, ok)
	assert.True(t, snap.Stale)
}

func TestApplyQueueMetadataOverwrites(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	meta, err := svc.QueueMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Size)

	svc.ApplyQueueMetadata(collection.QueueMetadata{Size: 9, Paused: true})
	meta, err = svc.QueueMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, collection.QueueMetadata{Size: 9, Paused: true}, meta)
}

func TestServiceWithoutClient(t *testing.T) {
	svc := New(nil, cache.New(), nil)
	_, err := svc.Tags(context.Background())
	assert.ErrorIs(t, err, errNoClient)
	assert.ErrorIs(t, svc.SplitItem(context.Background(), 1, 2), errNoClient)
}

func TestAnnotationQueriesHitSeparateEndpoints(t *testing.T) {
	svc, b := newService(t)
	ctx := context.Background()

	attached, err := svc.TagAnnotations(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []collection.TagAnnotation{{ID: 5, Title: "favorite"}}, attached)

	available, err := svc.AvailableAnnotations(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	require.NoError(t, svc.AddAnnotation(ctx, 10, "archived"))
	for _, key := range []string{cache.TagAnnotationsKey(10), cache.AvailableAnnotationsKey(10)} {
		snap, ok := svc.Cache().Snapshot(key)
		require.True(t, ok, key)
		assert.True(t, snap.Stale, key)
	}
	assert.Contains(t, b.Requests(), "POST /api/tags/10/annotations")
}

func TestRemoveTagImagePatchesTags(t *testing.T) {
	svc, b := newService(t)
	ctx := context.Background()
	_, err := svc.Tags(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveTagImage(ctx, 10, 3))
	tags, ok := cache.Get[[]collection.Tag](svc.Cache(), cache.TagsKey)
	require.True(t, ok)
	assert.False(t, tags[0].HasImageOfType(3))
	assert.Contains(t, b.Requests(), "POST /api/tags/10/remove-tit/3")
}

func TestUploadTagImageReplacesImageOfType(t *testing.T) {
	svc, b := newService(t)
	ctx := context.Background()
	tag := collection.Tag{ID: 10, Title: "a", Images: []collection.TagImage{
		{ID: 1, URL: "file/old.png", ImageTypeID: 3},
		{ID: 2, URL: "file/banner.png", ImageTypeID: 4},
	}}

	url, err := svc.UploadTagImage(ctx, tag, 3, "cover.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "file/tags-images/10/cover.png", url)
	assert.Equal(t, "tags-images/10", b.Body("/api/upload-file"))

	var saved collection.Tag
	require.NoError(t, json.Unmarshal([]byte(b.Body("POST /api/tags/10")), &saved))
	assert.ElementsMatch(t, []collection.TagImage{
		{ID: 2, URL: "file/banner.png", ImageTypeID: 4},
		{URL: url, ImageTypeID: 3},
	}, saved.Images)
}

func TestCreateTagImageTypeInvalidatesList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	svc.Cache().Set(cache.TagImageTypesKey, []collection.TagImageType{})

	tit, err := svc.CreateTagImageType(ctx, "banner")
	require.NoError(t, err)
	assert.Equal(t, int64(7), tit.ID)
	snap, ok := svc.Cache().Snapshot(cache.TagImageTypesKey)
	require.True(t, ok)
	assert.True(t, snap.Stale)
}

func TestUpdateAndRemoveItemPatchCache(t *testing.T) {
	svc, b := newService(t)
	ctx := context.Background()
	_, err := svc.Items(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateItem(ctx, collection.Item{ID: 1, Title: "renamed"}))
	items, ok := cache.Get[[]collection.Item](svc.Cache(), cache.ItemsKey)
	require.True(t, ok)
	assert.Equal(t, "renamed", items[0].Title)
	assert.Contains(t, b.Requests(), "POST /api/items/1")

	require.NoError(t, svc.RemoveItem(ctx, 2))
	items, ok = cache.Get[[]collection.Item](svc.Cache(), cache.ItemsKey)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Contains(t, b.Requests(), "DELETE /api/items/2")
}

func TestItemLocationAndDirectory(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	path, err := svc.ItemLocation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "/media/one.mp4", path)

	_, err = svc.ItemLocation(ctx, 99)
	require.Error(t, err)

	dir, err := svc.Directory(ctx, "media/videos")
	require.NoError(t, err)
	assert.Equal(t, "media/videos", dir.Path)
}

func TestDirectoryTagMutationsInvalidate(t *testing.T) {
	svc, b := newService(t)
	ctx := context.Background()
	svc.Cache().Set(cache.DirectoriesKey, []collection.Directory{{Path: "media"}})

	require.NoError(t, svc.AddTagToDirectory(ctx, "media", 10))
	require.NoError(t, svc.RemoveTagFromDirectory(ctx, "media", 10))
	snap, ok := svc.Cache().Snapshot(cache.DirectoriesKey)
	require.True(t, ok)
	assert.True(t, snap.Stale)
	assert.Len(t, b.Requests(), 2)
}
