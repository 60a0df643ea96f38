package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

type directoriesState struct {
	cursor int
}

func (m Model) selectedDirectory() (collection.Directory, bool) {
	if m.dirs.cursor < 0 || m.dirs.cursor >= len(m.directories) {
		return collection.Directory{}, false
	}
	return m.directories[m.dirs.cursor], true
}

func (m Model) handleDirectoriesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cursor, ok := m.moveCursor(msg, m.dirs.cursor, len(m.directories)); ok {
		m.dirs.cursor = cursor
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.New):
		cmd := m.startInput(inputDirectory, "Directory path on the server", "")
		return m, cmd
	case key.Matches(msg, m.keys.Remove):
		if dir, ok := m.selectedDirectory(); ok {
			return m, m.removeDirectory(dir.Path)
		}
	case key.Matches(msg, m.keys.AddTag):
		if dir, ok := m.selectedDirectory(); ok {
			cmd := m.startInput(inputDirectoryTag, "Tag every item under "+truncateMiddle(dir.Path, 40), "")
			return m, cmd
		}
	case key.Matches(msg, m.keys.Untag):
		if dir, ok := m.selectedDirectory(); ok && len(dir.Tags) > 0 {
			cmd := m.startInput(inputDirectoryUntag, "Tag to remove from "+truncateMiddle(dir.Path, 40), dir.Tags[len(dir.Tags)-1].Title)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Escape):
		return m.back()
	}
	return m, nil
}

func (m Model) tagDirectory(title string) tea.Cmd {
	dir, ok := m.selectedDirectory()
	if !ok || title == "" {
		return nil
	}
	tag, ok := m.tagByTitle(title)
	if !ok {
		return statusError(fmt.Errorf("no tag named %q", title))
	}
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.AddTagToDirectory(ctx, dir.Path, tag.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Tagged %s with %s", dir.Path, tag.Title), nil
	})
}

// untagDirectory removes the directory tag whose title matches title.
func (m Model) untagDirectory(title string) tea.Cmd {
	dir, ok := m.selectedDirectory()
	if !ok || title == "" {
		return nil
	}
	idx := slices.IndexFunc(dir.Tags, func(t collection.Tag) bool { return strings.EqualFold(t.Title, title) })
	if idx < 0 {
		return statusError(fmt.Errorf("%s is not tagged %q", dir.Path, title))
	}
	tag := dir.Tags[idx]
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.RemoveTagFromDirectory(ctx, dir.Path, tag.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed %s from %s", tag.Title, dir.Path), nil
	})
}

func (m Model) addDirectory(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.AddDirectory(ctx, collection.Directory{Path: path}); err != nil {
			return "", err
		}
		return "Added " + path, nil
	})
}

func (m Model) removeDirectory(path string) tea.Cmd {
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.RemoveDirectory(ctx, path); err != nil {
			return "", err
		}
		return "Removed " + path, nil
	})
}

func (m Model) renderDirectories(height int) string {
	styles := m.theme.Styles()
	switch {
	case len(m.directories) == 0 && m.directoriesErr != nil:
		return styles.DangerText.Render("Directories unavailable: " + truncate(m.directoriesErr.Error(), m.width-26))
	case m.directories == nil:
		return styles.MutedText.Render("Loading directories...")
	case len(m.directories) == 0:
		return styles.MutedText.Render("No directories. Press n to add one.")
	}

	pathWidth := m.width - 48
	if pathWidth < 20 {
		pathWidth = 20
	}
	header := fmt.Sprintf("  %s %7s %5s  %-9s %s",
		padRight("Path", pathWidth), "Files", "Tags", "State", "Synced")

	var b strings.Builder
	b.WriteString(styles.FaintText.Render(header))
	b.WriteString("\n")

	start, end := visibleWindow(m.dirs.cursor, len(m.directories), height-1)
	for i := start; i < end; i++ {
		dir := m.directories[i]
		state := "scanned"
		switch {
		case dir.IsExcluded():
			state = "excluded"
		case dir.ProcessingStart != nil && *dir.ProcessingStart > 0:
			state = "syncing"
		}
		line := fmt.Sprintf("  %s %7d %5d  %-9s %s",
			padRight(truncateMiddle(dir.Path, pathWidth), pathWidth),
			dir.Files(),
			len(dir.Tags),
			state,
			relativeTime(dir.LastSynced),
		)
		switch {
		case i == m.dirs.cursor:
			b.WriteString(styles.Selected.Render(padRight(line, m.width)))
		case dir.IsExcluded():
			b.WriteString(styles.FaintText.Render(line))
		default:
			b.WriteString(styles.Text.Render(line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
