package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

func int64Ptr(v int64) *int64 { return &v }

// testServer serves canned GET payloads and records every mutation.
type testServer struct {
	*httptest.Server

	mu        sync.Mutex
	mutations []string
	bodies    map[string]string
}

func (s *testServer) Mutations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.mutations...)
}

func (s *testServer) Body(req string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[req]
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	started := time.Now().Add(-time.Minute)
	routes := map[string]any{
		"/api/tags": []collection.Tag{
			{ID: 1, Title: "People"},
			{ID: 2, Title: "Alice", ParentID: int64Ptr(1), Items: []collection.ItemRef{{ID: 10}}},
			{ID: 3, Title: "Bob", ParentID: int64Ptr(1), Items: []collection.ItemRef{{ID: 11}}},
			{ID: 4, Title: "Places"},
		},
		"/api/tags/2":                       collection.Tag{ID: 2, Title: "Alice", ParentID: int64Ptr(1)},
		"/api/tags/2/annotations":           []collection.TagAnnotation{{ID: 5, Title: "favorite"}},
		"/api/tags/2/available-annotations": []collection.TagAnnotation{{ID: 5, Title: "favorite"}, {ID: 6, Title: "archived"}},
		"/api/tag-image-types":              []collection.TagImageType{{ID: 3, Nickname: "portrait"}},
		"/api/items/10":                     collection.Item{ID: 10, Title: "first"},
		"/api/items/10/location":            map[string]string{"path": "/media/videos/first.mp4"},
		"/api/directories/media/videos":     collection.Directory{Path: "media/videos"},
		"/api/queue/metadata":               collection.QueueMetadata{Size: 3, Paused: true},
		"/api/directories":                  []collection.Directory{{Path: "/media/videos"}},
		"/api/items": []collection.Item{
			{ID: 10, Title: "first", DurationSeconds: 65},
			{ID: 11, Title: "second"},
		},
		"/api/queue/tasks": collection.TaskPage{
			Tasks:      []collection.Task{{ID: "task-1", Description: "Cover for first", ProcessingStart: &started}},
			Page:       1,
			PageSize:   20,
			TotalTasks: 1,
		},
	}
	created := map[string]any{
		"/api/upload-file":        map[string]string{"url": "file/tags-images/2/alice.png"},
		"/api/tag-image-types":    collection.TagImageType{ID: 8, Nickname: "banner"},
		"/api/tags/2/annotations": collection.TagAnnotation{ID: 7, Title: "new"},
	}

	ts := &testServer{bodies: map[string]string{}}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodGet {
			req := r.Method + " " + r.URL.Path
			raw, _ := io.ReadAll(r.Body)
			ts.mu.Lock()
			ts.mutations = append(ts.mutations, req)
			ts.bodies[req] = string(raw)
			ts.mu.Unlock()
			if payload, ok := created[r.URL.Path]; ok {
				_ = json.NewEncoder(w).Encode(payload)
			}
			return
		}
		payload, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTagsCommandListsCategoryChildren(t *testing.T) {
	srv := newTestServer(t)
	out, err := execute(t, "--server", srv.URL, "tags", "--category", "people")
	require.NoError(t, err)
	for _, want := range []string{"Alice", "Bob", "People"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Places", "other categories are not listed")
}

func TestTagsCommandUnknownCategory(t *testing.T) {
	srv := newTestServer(t)
	_, err := execute(t, "--server", srv.URL, "tags", "--category", "nope")
	assert.Error(t, err)
}

func TestTagsRenameSendsUpdatedTag(t *testing.T) {
	srv := newTestServer(t)
	out, err := execute(t, "--server", srv.URL, "tags", "rename", "2", "Alicia")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed tag 2 to Alicia")

	var sent collection.Tag
	require.NoError(t, json.Unmarshal([]byte(srv.Body("POST /api/tags/2")), &sent))
	assert.Equal(t, "Alicia", sent.Title)
	assert.Equal(t, int64(1), sent.Parent())
}

func TestTagsRemoveRejectsBadID(t *testing.T) {
	srv := newTestServer(t)
	_, err := execute(t, "--server", srv.URL, "tags", "remove", "abc")
	require.Error(t, err)
	assert.Empty(t, srv.Mutations())

	_, err = execute(t, "--server", srv.URL, "tags", "remove", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"DELETE /api/tags/3"}, srv.Mutations())
}

func TestTagsAnnotationsCommands(t *testing.T) {
	srv := newTestServer(t)

	out, err := execute(t, "--server", srv.URL, "tags", "annotations", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "favorite")
	assert.NotContains(t, out, "archived")

	out, err = execute(t, "--server", srv.URL, "tags", "annotations", "2", "--available")
	require.NoError(t, err)
	assert.Contains(t, out, "archived")

	_, err = execute(t, "--server", srv.URL, "tags", "annotations", "add", "2", "new")
	require.NoError(t, err)
	_, err = execute(t, "--server", srv.URL, "tags", "annotations", "remove", "2", "5")
	require.NoError(t, err)
	assert.Equal(t, []string{"POST /api/tags/2/annotations", "DELETE /api/tags/2/annotations/5"}, srv.Mutations())
}

func TestTagsImageSetUploadsThenUpdatesTag(t *testing.T) {
	srv := newTestServer(t)
	path := filepath.Join(t.TempDir(), "alice.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	out, err := execute(t, "--server", srv.URL, "tags", "image", "set", "2", path, "--type", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "file/tags-images/2/alice.png")
	assert.Equal(t, []string{"POST /api/upload-file", "POST /api/tags/2"}, srv.Mutations())

	var sent collection.Tag
	require.NoError(t, json.Unmarshal([]byte(srv.Body("POST /api/tags/2")), &sent))
	require.Len(t, sent.Images, 1)
	assert.Equal(t, collection.TagImage{URL: "file/tags-images/2/alice.png", ImageTypeID: 3}, sent.Images[0])
}

func TestTagsImageRemoveAndTypes(t *testing.T) {
	srv := newTestServer(t)
	_, err := execute(t, "--server", srv.URL, "tags", "image", "remove", "2", "--type", "3")
	require.NoError(t, err)

	out, err := execute(t, "--server", srv.URL, "tags", "image-types")
	require.NoError(t, err)
	assert.Contains(t, out, "portrait")

	out, err = execute(t, "--server", srv.URL, "tags", "image-types", "create", "banner")
	require.NoError(t, err)
	assert.Contains(t, out, "Created image type 8 banner")
	assert.Equal(t, []string{"POST /api/tags/2/remove-tit/3", "POST /api/tag-image-types"}, srv.Mutations())
}

func TestItemsCommandFiltersByTagAsJSON(t *testing.T) {
	srv := newTestServer(t)
	out, err := execute(t, "--server", srv.URL, "--json", "items", "--tag", "2")
	require.NoError(t, err)
	var items []collection.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items), out)
	require.Len(t, items, 1)
	assert.Equal(t, int64(10), items[0].ID)
}

func TestItemsCommandRejectsUnknownTag(t *testing.T) {
	srv := newTestServer(t)
	_, err := execute(t, "--server", srv.URL, "items", "--tag", "99")
	assert.Error(t, err)
}

func TestItemsManagementCommands(t *testing.T) {
	srv := newTestServer(t)

	out, err := execute(t, "--server", srv.URL, "items", "location", "10")
	require.NoError(t, err)
	assert.Equal(t, "/media/videos/first.mp4", strings.TrimSpace(out))

	_, err = execute(t, "--server", srv.URL, "items", "rename", "10", "opening")
	require.NoError(t, err)
	var sent collection.Item
	require.NoError(t, json.Unmarshal([]byte(srv.Body("POST /api/items/10")), &sent))
	assert.Equal(t, "opening", sent.Title)

	_, err = execute(t, "--server", srv.URL, "items", "remove", "11")
	require.NoError(t, err)
	assert.Equal(t, []string{"POST /api/items/10", "DELETE /api/items/11"}, srv.Mutations())
}

func TestItemsCropValidatesRectangle(t *testing.T) {
	srv := newTestServer(t)
	_, err := execute(t, "--server", srv.URL, "items", "crop", "10", "--at", "12.5")
	require.Error(t, err)
	assert.Empty(t, srv.Mutations())

	_, err = execute(t, "--server", srv.URL, "items", "crop", "10", "--at", "12.5", "--width", "320", "--height", "180")
	require.NoError(t, err)
	require.Len(t, srv.Mutations(), 1)
	assert.True(t, strings.HasPrefix(srv.Mutations()[0], "POST /api/items/10/"))
}

func TestTasksCommandShowsQueueState(t *testing.T) {
	srv := newTestServer(t)
	out, err := execute(t, "--server", srv.URL, "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "Queue paused, 3 tasks (page 1/1)")
	assert.Contains(t, out, "Cover for first")
	assert.Contains(t, out, "processing")
}

func TestDirectoriesCommand(t *testing.T) {
	srv := newTestServer(t)
	out, err := execute(t, "--server", srv.URL, "directories")
	require.NoError(t, err)
	assert.Contains(t, out, "/media/videos")
	assert.Contains(t, out, "never")
}

func TestDirectoriesTagging(t *testing.T) {
	srv := newTestServer(t)

	out, err := execute(t, "--server", srv.URL, "directories", "show", "media/videos")
	require.NoError(t, err)
	assert.Contains(t, out, "media/videos")

	_, err = execute(t, "--server", srv.URL, "directories", "tag", "media/videos", "2")
	require.NoError(t, err)
	_, err = execute(t, "--server", srv.URL, "directories", "untag", "media/videos", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"POST /api/directories/media/videos/tags",
		"DELETE /api/directories/media/videos/tags/2",
	}, srv.Mutations())
}

func TestSubtitlesShowFromSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.srt")
	srt := "1\n00:00:01,000 --> 00:00:02,500\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n"
	require.NoError(t, os.WriteFile(path, []byte(srt), 0o644))

	out, err := execute(t, "subtitles", "show", "--srt", path, "--at", "1.5")
	require.NoError(t, err)
	assert.Equal(t, "Hello", strings.TrimSpace(out))

	out, err = execute(t, "subtitles", "show", "--srt", path)
	require.NoError(t, err)
	assert.Contains(t, out, "00:00:03,000")
	assert.Contains(t, out, "World")
}

func TestSubtitlesShowRequiresSource(t *testing.T) {
	_, err := execute(t, "subtitles", "show")
	assert.Error(t, err)
}

func TestFormatSubtitleTime(t *testing.T) {
	cases := map[int64]string{
		0:       "00:00:00,000",
		1500:    "00:00:01,500",
		3723004: "01:02:03,004",
		-250:    "-00:00:00,250",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatSubtitleTime(in), "formatSubtitleTime(%d)", in)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil, false)
	assert.Contains(t, out, "only")
	assert.Contains(t, out, "A")
	assert.Empty(t, renderTable(nil, nil, nil, false), "empty headers render nothing")
}
