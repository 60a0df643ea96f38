package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/filter"
	"github.com/dvdlevanon/my-collection-sub000/internal/prefs"
)

const (
	tagsPrefsKey  = "tags"
	categoryWidth = 26
)

type tagsState struct {
	categoryCursor int
	tagCursor      int
	search         string
	sort           filter.SortOrder
	seed           uint64
	annotations    filter.AnnotationFilter
}

func newTagsState(v prefs.View, imageTypeID int64) tagsState {
	return tagsState{
		sort:        filter.ParseSortOrder(v.Sort),
		seed:        uint64(time.Now().UnixNano()),
		annotations: filter.AnnotationFilterFromKeys(v.Annotations, imageTypeID),
	}
}

func (t tagsState) prefsView() prefs.View {
	return prefs.View{Sort: string(t.sort), Annotations: t.annotations.Keys()}
}

func (m Model) categories() []collection.Tag {
	return filter.SortTags(filter.Categories(m.tags), filter.SortTitleAsc, 0)
}

func (m Model) currentCategory() (collection.Tag, bool) {
	cats := m.categories()
	if m.tagsView.categoryCursor < 0 || m.tagsView.categoryCursor >= len(cats) {
		return collection.Tag{}, false
	}
	return cats[m.tagsView.categoryCursor], true
}

func (m Model) categoryTags() []collection.Tag {
	cat, ok := m.currentCategory()
	if !ok {
		return nil
	}
	return filter.ChildrenOf(m.tags, cat.ID)
}

// visibleTags lists the current category's tags after the annotation filter,
// the search term and the sort order.
func (m Model) visibleTags() []collection.Tag {
	tags := filter.FilterTagsByAnnotations(m.categoryTags(), m.tagsView.annotations)
	tags = filter.SearchTags(tags, m.tagsView.search)
	return filter.SortTags(tags, m.tagsView.sort, m.tagsView.seed)
}

func (m Model) selectedTag() (collection.Tag, bool) {
	tags := m.visibleTags()
	if m.tagsView.tagCursor < 0 || m.tagsView.tagCursor >= len(tags) {
		return collection.Tag{}, false
	}
	return tags[m.tagsView.tagCursor], true
}

// annotationChoices lists the keys the annotation filter cycles through. The
// empty key clears the filter.
func (m Model) annotationChoices() []string {
	choices := []string{""}
	for _, a := range filter.AvailableAnnotations(m.categoryTags()) {
		choices = append(choices, strconv.FormatInt(a.ID, 10))
	}
	return append(choices, filter.NoImageKey, filter.NoneKey)
}

func (m Model) annotationLabel() string {
	keys := m.tagsView.annotations.Keys()
	if len(keys) == 0 {
		return "all"
	}
	labels := make([]string, 0, len(keys))
	available := filter.AvailableAnnotations(m.tags)
	for _, k := range keys {
		sentinel, id, err := filter.ParseAnnotationKey(k)
		switch {
		case err != nil:
			continue
		case sentinel == filter.NoImageKey:
			labels = append(labels, "no image")
		case sentinel == filter.NoneKey:
			labels = append(labels, "no annotation")
		default:
			label := "#" + k
			for _, a := range available {
				if a.ID == id {
					label = a.Title
					break
				}
			}
			labels = append(labels, label)
		}
	}
	return strings.Join(labels, ", ")
}

func (m Model) imageTypeLabel() string {
	id := m.tagsView.annotations.ImageTypeID
	if id == 0 {
		return "any"
	}
	for _, t := range m.imageTypes {
		if t.ID == id {
			return t.Nickname
		}
	}
	return "#" + strconv.FormatInt(id, 10)
}

func (m Model) handleTagsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tags := m.visibleTags()
	if cursor, ok := m.moveCursor(msg, m.tagsView.tagCursor, len(tags)); ok {
		m.tagsView.tagCursor = cursor
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		m.tagsView.categoryCursor = clampIndex(m.tagsView.categoryCursor-1, len(m.categories()))
		m.tagsView.tagCursor = 0
	case key.Matches(msg, m.keys.Right):
		m.tagsView.categoryCursor = clampIndex(m.tagsView.categoryCursor+1, len(m.categories()))
		m.tagsView.tagCursor = 0
	case key.Matches(msg, m.keys.Search):
		cmd := m.startInput(inputTagSearch, "Search tags", m.tagsView.search)
		return m, cmd
	case key.Matches(msg, m.keys.Escape):
		if m.tagsView.search != "" {
			m.tagsView.search = ""
			m.clampCursors()
			return m, nil
		}
		return m.back()
	case key.Matches(msg, m.keys.CycleSort):
		m.tagsView.sort = m.tagsView.sort.Next()
		if m.tagsView.sort == filter.SortRandom {
			m.tagsView.seed = uint64(time.Now().UnixNano())
		}
		return m, m.saveView(tagsPrefsKey, m.tagsView.prefsView())
	case key.Matches(msg, m.keys.CycleAnnotation):
		m.tagsView.annotations = nextAnnotationFilter(m.tagsView.annotations, m.annotationChoices())
		m.clampCursors()
		return m, m.saveView(tagsPrefsKey, m.tagsView.prefsView())
	case key.Matches(msg, m.keys.CycleImageType):
		m.tagsView.annotations.ImageTypeID = m.nextImageType()
		m.clampCursors()
		return m, m.saveImageType(m.tagsView.annotations.ImageTypeID)
	case key.Matches(msg, m.keys.ToggleChip):
		if tag, ok := m.selectedTag(); ok {
			if m.gallery.selection.IsSelected(tag.ID) {
				m.gallery.selection = m.gallery.selection.Deselect(tag.ID)
			} else {
				m.gallery.selection = m.gallery.selection.Select(tag.ID)
			}
		}
	case key.Matches(msg, m.keys.Confirm):
		if tag, ok := m.selectedTag(); ok {
			m.gallery.selection = m.gallery.selection.Activate(tag.ID)
			m.gallery.cursor = 0
			m.clampCursors()
			return m.switchView(ViewGallery)
		}
	case key.Matches(msg, m.keys.New):
		placeholder := "New category"
		if cat, ok := m.currentCategory(); ok {
			placeholder = "New tag in " + cat.Title
		}
		cmd := m.startInput(inputNewTag, placeholder, "")
		return m, cmd
	case key.Matches(msg, m.keys.Rename):
		if tag, ok := m.selectedTag(); ok {
			cmd := m.startInput(inputRenameTag, "New title", tag.Title)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Remove):
		if tag, ok := m.selectedTag(); ok {
			return m, m.removeTag(tag)
		}
	case key.Matches(msg, m.keys.Annotate):
		if _, ok := m.selectedTag(); ok {
			cmd := m.startInput(inputAnnotation, "Annotation", "")
			return m, cmd
		}
	case key.Matches(msg, m.keys.DropAnnotation):
		if tag, ok := m.selectedTag(); ok {
			return m, m.dropAnnotation(tag)
		}
	case key.Matches(msg, m.keys.UploadImage):
		if _, ok := m.selectedTag(); ok {
			cmd := m.startInput(inputTagImage, "Image file to upload as "+m.imageTypeLabel(), "")
			return m, cmd
		}
	case key.Matches(msg, m.keys.RemoveImage):
		if tag, ok := m.selectedTag(); ok {
			return m, m.removeTagImage(tag)
		}
	}
	return m, nil
}

// nextAnnotationFilter moves a single-key filter to the following choice.
func nextAnnotationFilter(f filter.AnnotationFilter, choices []string) filter.AnnotationFilter {
	current := ""
	if keys := f.Keys(); len(keys) == 1 {
		current = keys[0]
	}
	next := choices[0]
	for i, c := range choices {
		if c == current {
			next = choices[(i+1)%len(choices)]
			break
		}
	}
	if next == "" {
		return filter.AnnotationFilter{ImageTypeID: f.ImageTypeID}
	}
	return filter.AnnotationFilterFromKeys([]string{next}, f.ImageTypeID)
}

func (m Model) nextImageType() int64 {
	ids := []int64{0}
	for _, t := range m.imageTypes {
		ids = append(ids, t.ID)
	}
	current := m.tagsView.annotations.ImageTypeID
	for i, id := range ids {
		if id == current {
			return ids[(i+1)%len(ids)]
		}
	}
	return 0
}

func (m Model) saveImageType(id int64) tea.Cmd {
	store := m.prefs
	return func() tea.Msg {
		err := store.Update(func(p prefs.Prefs) prefs.Prefs {
			p.LastTagImageType = id
			return p
		})
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("save image type: %w", err)}
		}
		return nil
	}
}

func (m Model) createTag(title string) tea.Cmd {
	if title == "" {
		return nil
	}
	var parent int64
	if cat, ok := m.currentCategory(); ok {
		parent = cat.ID
	}
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		tag, err := lib.CreateTag(ctx, title, parent)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created tag %s", tag.Title), nil
	})
}

func (m Model) renameTag(title string) tea.Cmd {
	tag, ok := m.selectedTag()
	if !ok || title == "" || title == tag.Title {
		return nil
	}
	tag.Title = title
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.UpdateTag(ctx, tag); err != nil {
			return "", err
		}
		return "Renamed tag to " + title, nil
	})
}

func (m Model) removeTag(tag collection.Tag) tea.Cmd {
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.RemoveTag(ctx, tag.ID); err != nil {
			return "", err
		}
		return "Removed tag " + tag.Title, nil
	})
}

func (m Model) annotateTag(title string) tea.Cmd {
	tag, ok := m.selectedTag()
	if !ok || title == "" {
		return nil
	}
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.AddAnnotation(ctx, tag.ID, title); err != nil {
			return "", err
		}
		return fmt.Sprintf("Annotated %s with %s", tag.Title, title), nil
	})
}

// dropAnnotation removes the most recently listed annotation of tag.
func (m Model) dropAnnotation(tag collection.Tag) tea.Cmd {
	if len(tag.Annotations) == 0 {
		return statusError(fmt.Errorf("%s has no annotations", tag.Title))
	}
	annotation := tag.Annotations[len(tag.Annotations)-1]
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.RemoveAnnotation(ctx, tag.ID, annotation.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed annotation %s from %s", annotation.Title, tag.Title), nil
	})
}

// uploadTagImage sends a local image file as the selected tag's image for the
// image type picked in the tags view.
func (m Model) uploadTagImage(path string) tea.Cmd {
	tag, ok := m.selectedTag()
	if !ok || path == "" {
		return nil
	}
	imageType := m.tagsView.annotations.ImageTypeID
	if imageType == 0 {
		return statusError(errors.New("pick an image type with i first"))
	}
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		if _, err := lib.UploadTagImage(ctx, tag, imageType, filepath.Base(path), f); err != nil {
			return "", err
		}
		return "Uploaded image for " + tag.Title, nil
	})
}

func (m Model) removeTagImage(tag collection.Tag) tea.Cmd {
	imageType := m.tagsView.annotations.ImageTypeID
	if imageType == 0 {
		return statusError(errors.New("pick an image type with i first"))
	}
	if !tag.HasImageOfType(imageType) {
		return statusError(fmt.Errorf("%s has no %s image", tag.Title, m.imageTypeLabel()))
	}
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.RemoveTagImage(ctx, tag.ID, imageType); err != nil {
			return "", err
		}
		return "Removed image from " + tag.Title, nil
	})
}

func statusError(err error) tea.Cmd {
	return func() tea.Msg { return actionDoneMsg{err: err} }
}

func (m Model) renderTags(height int) string {
	styles := m.theme.Styles()

	if len(m.tags) == 0 {
		switch {
		case m.tagsErr != nil:
			return styles.DangerText.Render("Tags unavailable: " + truncate(m.tagsErr.Error(), m.width-20))
		case m.tags == nil:
			return styles.MutedText.Render("Loading tags...")
		default:
			return styles.MutedText.Render("No tags yet. Press n to create a category.")
		}
	}

	summary := strings.Join([]string{
		styles.MutedText.Render("Annotation ") + styles.AccentText.Render(m.annotationLabel()),
		styles.MutedText.Render("Image type ") + styles.Text.Render(m.imageTypeLabel()),
		styles.MutedText.Render("Sort ") + styles.Text.Render(string(m.tagsView.sort)),
	}, "  ")
	if m.tagsView.search != "" {
		summary += "  " + styles.AccentText.Render("/"+truncate(m.tagsView.search, 24))
	}

	rows := height - 2
	left := m.renderCategoryColumn(rows)
	right := m.renderTagColumn(rows)
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(categoryWidth).Render(left),
		right,
	)
	return summary + "\n\n" + columns
}

func (m Model) renderCategoryColumn(rows int) string {
	styles := m.theme.Styles()
	cats := m.categories()
	start, end := visibleWindow(m.tagsView.categoryCursor, len(cats), rows)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		label := padRight(truncate(cats[i].Label(), categoryWidth-2), categoryWidth-2)
		if i == m.tagsView.categoryCursor {
			lines = append(lines, styles.Selected.Render(label))
		} else {
			lines = append(lines, styles.MutedText.Render(label))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTagColumn(rows int) string {
	styles := m.theme.Styles()
	tags := m.visibleTags()
	if len(tags) == 0 {
		return styles.MutedText.Render("No tags match")
	}

	width := m.width - categoryWidth - 2
	titleWidth := width - 30
	if titleWidth < 12 {
		titleWidth = 12
	}
	imageType := m.tagsView.annotations.ImageTypeID

	start, end := visibleWindow(m.tagsView.tagCursor, len(tags), rows)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		tag := tags[i]
		mark := "  "
		switch {
		case m.gallery.selection.IsActive(tag.ID):
			mark = "● "
		case m.gallery.selection.IsSelected(tag.ID):
			mark = "○ "
		}
		image := " "
		if tag.HasImageOfType(imageType) {
			image = "▣"
		}
		annotations := make([]string, 0, len(tag.Annotations))
		for _, a := range tag.Annotations {
			annotations = append(annotations, a.Title)
		}
		line := fmt.Sprintf("%s%s %s %5d  %s",
			mark,
			image,
			padRight(truncate(tag.Label(), titleWidth), titleWidth),
			len(tag.Items),
			truncate(strings.Join(annotations, ", "), 24),
		)
		if i == m.tagsView.tagCursor {
			lines = append(lines, styles.Selected.Render(padRight(line, width)))
		} else {
			lines = append(lines, styles.Text.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

// action runs fn with a bounded context and reports its outcome on the
// status line.
func (m Model) action(fn func(ctx context.Context) (string, error)) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, actionTimeout)
		defer cancel()
		label, err := fn(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return actionDoneMsg{label: label, err: err}
	}
}
