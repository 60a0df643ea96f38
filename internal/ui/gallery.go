package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/filter"
	"github.com/dvdlevanon/my-collection-sub000/internal/prefs"
)

const galleryPrefsKey = "gallery"

// galleryState holds the gallery filters and cursors.
type galleryState struct {
	selection  filter.Selection
	condition  filter.Condition
	sort       filter.SortOrder
	seed       uint64
	search     string
	cursor     int
	chipCursor int
}

func newGalleryState(v prefs.View) galleryState {
	return galleryState{
		selection: filter.NewSelection(),
		condition: filter.ParseCondition(v.Condition),
		sort:      filter.ParseSortOrder(v.Sort),
		seed:      uint64(time.Now().UnixNano()),
	}
}

func (g galleryState) prefsView() prefs.View {
	return prefs.View{Sort: string(g.sort), Condition: string(g.condition)}
}

// galleryItems applies the active tags, the search term and the sort order.
func (m Model) galleryItems() []collection.Item {
	active := m.gallery.selection.ActiveTags(m.tags)
	items := filter.FilterItemsByTags(m.items, active, m.gallery.condition)
	items = filter.SearchItems(items, m.gallery.search)
	return filter.SortItems(items, m.gallery.sort, m.gallery.seed)
}

func (m Model) selectedGalleryItem() (collection.Item, bool) {
	items := m.galleryItems()
	if m.gallery.cursor < 0 || m.gallery.cursor >= len(items) {
		return collection.Item{}, false
	}
	return items[m.gallery.cursor], true
}

func (m Model) handleGalleryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.galleryItems()
	if cursor, ok := m.moveCursor(msg, m.gallery.cursor, len(items)); ok {
		m.gallery.cursor = cursor
		return m, nil
	}

	chips := m.gallery.selection.SelectedTags(m.tags)
	switch {
	case key.Matches(msg, m.keys.Left):
		m.gallery.chipCursor = clampIndex(m.gallery.chipCursor-1, len(chips))
	case key.Matches(msg, m.keys.Right):
		m.gallery.chipCursor = clampIndex(m.gallery.chipCursor+1, len(chips))
	case key.Matches(msg, m.keys.ToggleChip):
		if len(chips) > 0 {
			m.gallery.selection = m.gallery.selection.ToggleActive(chips[m.gallery.chipCursor].ID)
			m.clampCursors()
		}
	case key.Matches(msg, m.keys.RemoveChip):
		if len(chips) > 0 {
			m.gallery.selection = m.gallery.selection.Deselect(chips[m.gallery.chipCursor].ID)
			m.clampCursors()
		}
	case key.Matches(msg, m.keys.ClearChips):
		m.gallery.selection = m.gallery.selection.Clear()
		m.clampCursors()
	case key.Matches(msg, m.keys.ToggleCondition):
		m.gallery.condition = m.gallery.condition.Toggle()
		m.clampCursors()
		return m, m.saveView(galleryPrefsKey, m.gallery.prefsView())
	case key.Matches(msg, m.keys.CycleSort):
		m.gallery.sort = m.gallery.sort.Next()
		if m.gallery.sort == filter.SortRandom {
			m.gallery.seed = uint64(time.Now().UnixNano())
		}
		return m, m.saveView(galleryPrefsKey, m.gallery.prefsView())
	case key.Matches(msg, m.keys.Search):
		cmd := m.startInput(inputGallerySearch, "Search items", m.gallery.search)
		return m, cmd
	case key.Matches(msg, m.keys.Escape):
		if m.gallery.search != "" {
			m.gallery.search = ""
			m.clampCursors()
		}
	case key.Matches(msg, m.keys.Confirm):
		if item, ok := m.selectedGalleryItem(); ok {
			return m.openItem(item.ID)
		}
	}
	return m, nil
}

func (m Model) renderGallery(height int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(m.renderChips())
	b.WriteString("\n")

	items := m.galleryItems()
	summary := []string{
		styles.MutedText.Render("Match ") + styles.AccentText.Render(m.gallery.condition.String()),
		styles.MutedText.Render("Sort ") + styles.Text.Render(string(m.gallery.sort)),
		styles.MutedText.Render(fmt.Sprintf("%d of %d items", len(items), len(m.items))),
	}
	if m.gallery.search != "" {
		summary = append(summary, styles.AccentText.Render("/"+truncate(m.gallery.search, 24)))
	}
	b.WriteString(strings.Join(summary, "  "))
	b.WriteString("\n\n")

	rows := height - 3
	switch {
	case len(items) == 0 && m.itemsErr != nil:
		b.WriteString(styles.DangerText.Render("Items unavailable: " + truncate(m.itemsErr.Error(), m.width-20)))
	case len(items) == 0 && m.items == nil:
		b.WriteString(styles.MutedText.Render("Loading items..."))
	case len(items) == 0:
		b.WriteString(styles.MutedText.Render("No items match the current filter"))
	default:
		start, end := visibleWindow(m.gallery.cursor, len(items), rows)
		for i := start; i < end; i++ {
			b.WriteString(m.renderItemRow(items[i], i == m.gallery.cursor))
			if i < end-1 {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func (m Model) renderChips() string {
	styles := m.theme.Styles()
	chips := m.gallery.selection.SelectedTags(m.tags)
	if len(chips) == 0 {
		return styles.MutedText.Render("No tags selected. Pick tags in the Tags view (2).")
	}
	parts := make([]string, 0, len(chips))
	for i, tag := range chips {
		mark := "○ "
		style := styles.MutedText
		if m.gallery.selection.IsActive(tag.ID) {
			mark = "● "
			style = styles.AccentText.Bold(true)
		}
		label := mark + truncate(tag.Label(), 24)
		if i == m.gallery.chipCursor {
			label = styles.Selected.Render(label)
		} else {
			label = style.Render(label)
		}
		parts = append(parts, label)
	}
	return styles.MutedText.Render("Tags ") + strings.Join(parts, " ")
}

func (m Model) renderItemRow(item collection.Item, selected bool) string {
	styles := m.theme.Styles()
	titleWidth := m.width - 40
	if titleWidth < 20 {
		titleWidth = 20
	}

	kind := " "
	switch {
	case item.IsHighlight():
		kind = "★"
	case item.IsSubItem():
		kind = "↳"
	}

	duration := ""
	if d := item.Duration(); d > 0 {
		duration = formatClock(d.Seconds())
	}
	line := fmt.Sprintf("%s %s %8s %10s %3d tags",
		kind,
		padRight(truncate(item.Title, titleWidth), titleWidth),
		duration,
		formatBytes(item.FileSize),
		len(item.Tags),
	)
	if selected {
		return styles.Selected.Render(padRight(line, m.width))
	}
	return styles.Text.Render(line)
}

// visibleWindow returns the [start, end) slice of n rows that keeps cursor
// visible in a window of height rows.
func visibleWindow(cursor, n, height int) (int, int) {
	if height <= 0 {
		height = 1
	}
	if n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

// saveView persists the listing settings of one view.
func (m Model) saveView(name string, v prefs.View) tea.Cmd {
	store := m.prefs
	return func() tea.Msg {
		err := store.Update(func(p prefs.Prefs) prefs.Prefs {
			return p.WithView(name, v)
		})
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("save view settings: %w", err)}
		}
		return nil
	}
}
