package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fetcher is the read side of the backend API used by the poller and the UI.
// It is implemented by *Client and can be faked in tests.
type Fetcher interface {
	FetchTags(ctx context.Context) ([]Tag, error)
	FetchItems(ctx context.Context) ([]Item, error)
	FetchQueueMetadata(ctx context.Context) (QueueMetadata, error)
	FetchTasks(ctx context.Context, page, pageSize int) (TaskPage, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the my-collection HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultServer    = "127.0.0.1:8080"
	defaultUserAgent = "mycollection/0.1"
	requestTimeout   = 15 * time.Second

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// StatusError is returned when the API answers with a 4xx/5xx status.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

var errNilClient = errors.New("client is nil")

// NewClient builds a Client for the given server host:port or URL.
func NewClient(server string) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns a copy of the server base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// PushURL returns the WebSocket endpoint for queue updates.
func (c *Client) PushURL() string {
	u := c.BaseURL()
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/ws"
	return u.String()
}

// FileURL returns the URL that serves the file stored at path. A non-zero
// nonce is appended to defeat caches after the file changes.
func (c *Client) FileURL(path string, nonce int64) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	u := c.BaseURL()
	u.Path = "/api/file/" + strings.TrimPrefix(path, "/")
	u.RawPath = "/api/file/" + url.PathEscape(strings.TrimPrefix(path, "/"))
	if nonce != 0 {
		u.RawQuery = url.Values{"nonce": {strconv.FormatInt(nonce, 10)}}.Encode()
	}
	return u.String()
}

// Tags

// FetchTags retrieves every tag, categories included.
func (c *Client) FetchTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.get(ctx, "/api/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// FetchTag retrieves a single tag.
func (c *Client) FetchTag(ctx context.Context, id int64) (Tag, error) {
	var tag Tag
	if err := c.get(ctx, "/api/tags/"+itoa(id), nil, &tag); err != nil {
		return Tag{}, err
	}
	return tag, nil
}

// CreateTag creates a tag under parentID; a zero parent creates a category.
func (c *Client) CreateTag(ctx context.Context, title string, parentID int64) (Tag, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Tag{}, fmt.Errorf("tag title required")
	}
	req := Tag{Title: title}
	if parentID != 0 {
		req.ParentID = &parentID
	}
	var created Tag
	if err := c.send(ctx, http.MethodPost, "/api/tags", nil, req, &created); err != nil {
		return Tag{}, err
	}
	return created, nil
}

// UpdateTag saves the tag's editable fields.
func (c *Client) UpdateTag(ctx context.Context, tag Tag) error {
	return c.send(ctx, http.MethodPost, "/api/tags/"+itoa(tag.ID), nil, tag, nil)
}

// RemoveTag deletes a tag.
func (c *Client) RemoveTag(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, "/api/tags/"+itoa(id), nil, nil, nil)
}

// FetchTagAnnotations lists the annotations attached to a tag.
func (c *Client) FetchTagAnnotations(ctx context.Context, tagID int64) ([]TagAnnotation, error) {
	var annotations []TagAnnotation
	if err := c.get(ctx, "/api/tags/"+itoa(tagID)+"/annotations", nil, &annotations); err != nil {
		return nil, err
	}
	return annotations, nil
}

// FetchAvailableAnnotations lists annotations used by sibling tags.
func (c *Client) FetchAvailableAnnotations(ctx context.Context, tagID int64) ([]TagAnnotation, error) {
	var annotations []TagAnnotation
	if err := c.get(ctx, "/api/tags/"+itoa(tagID)+"/available-annotations", nil, &annotations); err != nil {
		return nil, err
	}
	return annotations, nil
}

// AddTagAnnotation attaches an annotation, creating it when the title is new.
func (c *Client) AddTagAnnotation(ctx context.Context, tagID int64, title string) (TagAnnotation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return TagAnnotation{}, fmt.Errorf("annotation title required")
	}
	var created TagAnnotation
	err := c.send(ctx, http.MethodPost, "/api/tags/"+itoa(tagID)+"/annotations", nil, TagAnnotation{Title: title}, &created)
	if err != nil {
		return TagAnnotation{}, err
	}
	return created, nil
}

// RemoveTagAnnotation detaches an annotation from a tag.
func (c *Client) RemoveTagAnnotation(ctx context.Context, tagID, annotationID int64) error {
	return c.send(ctx, http.MethodDelete, "/api/tags/"+itoa(tagID)+"/annotations/"+itoa(annotationID), nil, nil, nil)
}

// RemoveTagImageFromTit drops the tag's image for one tag image type.
func (c *Client) RemoveTagImageFromTit(ctx context.Context, tagID, titID int64) error {
	return c.send(ctx, http.MethodPost, "/api/tags/"+itoa(tagID)+"/remove-tit/"+itoa(titID), nil, nil, nil)
}

// FetchTagImageTypes lists the configured tag image types.
func (c *Client) FetchTagImageTypes(ctx context.Context) ([]TagImageType, error) {
	var tits []TagImageType
	if err := c.get(ctx, "/api/tag-image-types", nil, &tits); err != nil {
		return nil, err
	}
	return tits, nil
}

// CreateTagImageType adds a tag image type.
func (c *Client) CreateTagImageType(ctx context.Context, nickname string) (TagImageType, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return TagImageType{}, fmt.Errorf("nickname required")
	}
	var created TagImageType
	if err := c.send(ctx, http.MethodPost, "/api/tag-image-types", nil, TagImageType{Nickname: nickname}, &created); err != nil {
		return TagImageType{}, err
	}
	return created, nil
}

// FetchSpecialTags returns the ids of backend-managed tags.
func (c *Client) FetchSpecialTags(ctx context.Context) (SpecialTags, error) {
	var special SpecialTags
	if err := c.get(ctx, "/api/spectagids", nil, &special); err != nil {
		return SpecialTags{}, err
	}
	return special, nil
}

// Items

// FetchItems retrieves every item.
func (c *Client) FetchItems(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := c.get(ctx, "/api/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchItem retrieves a single item.
func (c *Client) FetchItem(ctx context.Context, id int64) (Item, error) {
	var item Item
	if err := c.get(ctx, "/api/items/"+itoa(id), nil, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// UpdateItem saves the item's editable fields.
func (c *Client) UpdateItem(ctx context.Context, item Item) error {
	return c.send(ctx, http.MethodPost, "/api/items/"+itoa(item.ID), nil, item, nil)
}

// RemoveItem deletes an item.
func (c *Client) RemoveItem(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, "/api/items/"+itoa(id), nil, nil, nil)
}

// FetchSuggestions returns items suggested after watching id.
func (c *Client) FetchSuggestions(ctx context.Context, id int64) ([]Item, error) {
	var items []Item
	if err := c.get(ctx, "/api/items/"+itoa(id)+"/suggestions", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchItemLocation returns the item's path on the server filesystem.
func (c *Client) FetchItemLocation(ctx context.Context, id int64) (string, error) {
	var payload struct {
		Path string `json:"path"`
	}
	if err := c.get(ctx, "/api/items/"+itoa(id)+"/location", nil, &payload); err != nil {
		return "", err
	}
	return payload.Path, nil
}

// AddTagToItem tags an item.
func (c *Client) AddTagToItem(ctx context.Context, itemID, tagID int64) error {
	return c.send(ctx, http.MethodPost, "/api/items/"+itoa(itemID)+"/tags", nil, Tag{ID: tagID}, nil)
}

// RemoveTagFromItem untags an item.
func (c *Client) RemoveTagFromItem(ctx context.Context, itemID, tagID int64) error {
	return c.send(ctx, http.MethodDelete, "/api/items/"+itoa(itemID)+"/tags/"+itoa(tagID), nil, nil, nil)
}

// SetMainCover asks the backend to extract the main cover at second.
func (c *Client) SetMainCover(ctx context.Context, itemID int64, second float64) error {
	values := url.Values{"second": {ftoa(second)}}
	return c.send(ctx, http.MethodPost, "/api/items/"+itoa(itemID)+"/main-cover", values, nil, nil)
}

// SplitItem splits the item into two sub-items at second.
func (c *Client) SplitItem(ctx context.Context, itemID int64, second float64) error {
	values := url.Values{"second": {ftoa(second)}}
	return c.send(ctx, http.MethodPost, "/api/items/"+itoa(itemID)+"/split", values, nil, nil)
}

// MakeHighlight extracts the [start, end] range as a highlight tagged with
// highlightTagID.
func (c *Client) MakeHighlight(ctx context.Context, itemID int64, start, end float64, highlightTagID int64) error {
	if end <= start {
		return fmt.Errorf("highlight end %s must be after start %s", ftoa(end), ftoa(start))
	}
	values := url.Values{
		"start":        {ftoa(start)},
		"end":          {ftoa(end)},
		"highlight-id": {itoa(highlightTagID)},
	}
	return c.send(ctx, http.MethodPost, "/api/items/"+itoa(itemID)+"/make-highlight", values, nil, nil)
}

// CropFrame stores a cropped still of the frame at second as a cover.
func (c *Client) CropFrame(ctx context.Context, itemID int64, second float64, rect Rect) error {
	if rect.Empty() {
		return fmt.Errorf("crop rectangle is empty")
	}
	values := url.Values{
		"second":      {ftoa(second)},
		"crop-x":      {strconv.Itoa(rect.X)},
		"crop-y":      {strconv.Itoa(rect.Y)},
		"crop-width":  {strconv.Itoa(rect.Width)},
		"crop-height": {strconv.Itoa(rect.Height)},
	}
	return c.send(ctx, http.MethodPost, "/api/items/"+itoa(itemID)+"/crop-frame", values, nil, nil)
}

// Directories

// FetchDirectories lists the configured source directories.
func (c *Client) FetchDirectories(ctx context.Context) ([]Directory, error) {
	var dirs []Directory
	if err := c.get(ctx, "/api/directories", nil, &dirs); err != nil {
		return nil, err
	}
	return dirs, nil
}

// FetchDirectory retrieves a single directory.
func (c *Client) FetchDirectory(ctx context.Context, path string) (Directory, error) {
	var dir Directory
	if err := c.sendURL(ctx, http.MethodGet, directoryURL(path, ""), nil, nil, &dir); err != nil {
		return Directory{}, err
	}
	return dir, nil
}

// AddDirectory registers a directory for scanning.
func (c *Client) AddDirectory(ctx context.Context, dir Directory) error {
	if strings.TrimSpace(dir.Path) == "" {
		return fmt.Errorf("directory path required")
	}
	return c.send(ctx, http.MethodPost, "/api/directories", nil, dir, nil)
}

// RemoveDirectory excludes a directory.
func (c *Client) RemoveDirectory(ctx context.Context, path string) error {
	return c.sendURL(ctx, http.MethodDelete, directoryURL(path, ""), nil, nil, nil)
}

// AddTagToDirectory tags every item under the directory.
func (c *Client) AddTagToDirectory(ctx context.Context, path string, tagID int64) error {
	return c.sendURL(ctx, http.MethodPost, directoryURL(path, "/tags"), nil, Tag{ID: tagID}, nil)
}

// RemoveTagFromDirectory removes a directory tag.
func (c *Client) RemoveTagFromDirectory(ctx context.Context, path string, tagID int64) error {
	return c.sendURL(ctx, http.MethodDelete, directoryURL(path, "/tags/"+itoa(tagID)), nil, nil, nil)
}

// Queue

// FetchQueueMetadata returns the queue size and paused flag.
func (c *Client) FetchQueueMetadata(ctx context.Context) (QueueMetadata, error) {
	var meta QueueMetadata
	if err := c.get(ctx, "/api/queue/metadata", nil, &meta); err != nil {
		return QueueMetadata{}, err
	}
	return meta, nil
}

// FetchTasks retrieves one page of tasks. Pages start at 1.
func (c *Client) FetchTasks(ctx context.Context, page, pageSize int) (TaskPage, error) {
	if page < 1 {
		page = 1
	}
	values := url.Values{"page": {strconv.Itoa(page)}}
	if pageSize > 0 {
		values.Set("pageSize", strconv.Itoa(pageSize))
	}
	var payload TaskPage
	if err := c.get(ctx, "/api/queue/tasks", values, &payload); err != nil {
		return TaskPage{}, err
	}
	if payload.Page == 0 {
		payload.Page = page
	}
	if payload.PageSize == 0 {
		payload.PageSize = pageSize
	}
	return payload, nil
}

// PauseQueue stops the backend from starting new tasks.
func (c *Client) PauseQueue(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/queue/pause", nil, nil, nil)
}

// ContinueQueue resumes a paused queue.
func (c *Client) ContinueQueue(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/queue/continue", nil, nil, nil)
}

// ClearFinishedTasks removes done tasks from the queue.
func (c *Client) ClearFinishedTasks(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/queue/clear-finished", nil, nil, nil)
}

// Subtitles

// FetchSubtitle retrieves a caption track. An empty name selects the default track.
func (c *Client) FetchSubtitle(ctx context.Context, itemID int64, name string) (Subtitle, error) {
	values := url.Values{}
	if name = strings.TrimSpace(name); name != "" {
		values.Set("name", name)
	}
	var sub Subtitle
	if err := c.get(ctx, "/api/subtitles/"+itoa(itemID), values, &sub); err != nil {
		return Subtitle{}, err
	}
	if sub.Name == "" {
		sub.Name = name
	}
	return sub, nil
}

// FetchAvailableSubtitleNames lists caption tracks for a language.
func (c *Client) FetchAvailableSubtitleNames(ctx context.Context, itemID int64, lang string) ([]string, error) {
	values := url.Values{}
	if lang = strings.TrimSpace(lang); lang != "" {
		values.Set("lang", lang)
	}
	var names []string
	if err := c.get(ctx, "/api/subtitles/"+itoa(itemID)+"/available-names", values, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// FetchAvailableSubtitleLanguages lists languages with caption tracks.
func (c *Client) FetchAvailableSubtitleLanguages(ctx context.Context, itemID int64) ([]string, error) {
	var langs []string
	if err := c.get(ctx, "/api/subtitles/"+itoa(itemID)+"/available-languages", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// Files

// UploadFile stores content on the server under remoteDir and returns the
// stored file URL.
func (c *Client) UploadFile(ctx context.Context, remoteDir, name string, content io.Reader) (string, error) {
	if c == nil {
		return "", errNilClient
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("path", remoteDir); err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}

	var payload struct {
		URL string `json:"url"`
	}
	rel := &url.URL{Path: "/api/upload-file"}
	if err := c.doURL(ctx, http.MethodPost, rel, &body, writer.FormDataContentType(), &payload); err != nil {
		return "", err
	}
	return payload.URL, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values, dest any) error {
	return c.send(ctx, http.MethodGet, path, values, nil, dest)
}

func (c *Client) send(ctx context.Context, method, path string, values url.Values, payload, dest any) error {
	return c.sendURL(ctx, method, &url.URL{Path: path}, values, payload, dest)
}

func (c *Client) sendURL(ctx context.Context, method string, rel *url.URL, values url.Values, payload, dest any) error {
	if c == nil {
		return errNilClient
	}
	if len(values) > 0 {
		rel.RawQuery = values.Encode()
	}
	if payload == nil {
		return c.doURL(ctx, method, rel, nil, "", dest)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.doURL(ctx, method, rel, bytes.NewReader(encoded), "application/json", dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body io.Reader, contentType string, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &StatusError{Path: rel.Path, Code: resp.StatusCode}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server %q: missing host", server)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// directoryURL keeps slashes inside the directory path escaped.
func directoryURL(path, suffix string) *url.URL {
	path = strings.TrimSpace(path)
	return &url.URL{
		Path:    "/api/directories/" + path + suffix,
		RawPath: "/api/directories/" + url.PathEscape(path) + suffix,
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
