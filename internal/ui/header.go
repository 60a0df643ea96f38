package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dvdlevanon/my-collection-sub000/internal/cache"
	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

// renderHeader renders the status bar: logo, view tabs, queue state,
// connection state and the transient status message.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < 100
	sep := bg.Spaces(2)

	parts := []string{bg.Render("my-collection", styles.Logo)}

	tabs := make([]string, 0, len(viewOrder))
	for i, v := range viewOrder {
		label := fmt.Sprintf("%d %s", i+1, v)
		if compact {
			label = fmt.Sprintf("%d", i+1)
		}
		active := v == m.currentView || (m.currentView == ViewItem && v == m.previousView)
		if active {
			tabs = append(tabs, bg.Render(label, styles.AccentText.Bold(true)))
		} else {
			tabs = append(tabs, bg.Render(label, styles.FaintText))
		}
	}
	parts = append(parts, bg.Join(tabs, bg.Space()))

	queue := bg.Render("Queue:", styles.MutedText) + bg.Space() +
		bg.Render(fmt.Sprintf("%d", m.queue.Size), styles.Text)
	if m.queue.Paused {
		queue += bg.Space() + bg.Render("paused", styles.WarningText)
	}
	parts = append(parts, queue)

	if conn := m.connectionError(); conn != nil {
		parts = append(parts, bg.Render(classifyConnectionError(conn), styles.DangerText.Bold(true)))
	} else if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.status != "" {
		maxLen := 60
		if compact {
			maxLen = 30
		}
		style := styles.InfoText
		if m.statusErr {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(truncate(m.status, maxLen), style))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// connectionError reports the last error of a query that has gone offline.
func (m Model) connectionError() error {
	if m.lib == nil {
		return errors.New("no server configured")
	}
	c := m.lib.Cache()
	for _, key := range []string{cache.TagsKey, cache.ItemsKey, cache.QueueMetadataKey} {
		if entry, ok := c.Snapshot(key); ok && entry.IsOffline() {
			return entry.LastError
		}
	}
	return nil
}

// formatTimestamp formats the last update time with a relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}
	since := m.now.Sub(m.lastUpdated)
	ts := m.lastUpdated.Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var status *collection.StatusError
	if errors.As(err, &status) {
		return fmt.Sprintf("HTTP %d", status.Code)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

type command struct{ key, desc string }

func (m Model) commands() []command {
	if m.inputMode != inputNone {
		return []command{{"enter", "Apply"}, {"esc", "Cancel"}}
	}
	switch m.currentView {
	case ViewGallery:
		return []command{
			{"j/k", "Navigate"},
			{"enter", "Open"},
			{"/", "Search"},
			{"h/l", "Tag"},
			{"space", "Toggle"},
			{"c", m.gallery.condition.String()},
			{"s", "Sort"},
			{"?", "More"},
		}
	case ViewTags:
		return []command{
			{"h/l", "Category"},
			{"j/k", "Tag"},
			{"enter", "Filter"},
			{"space", "Select"},
			{"a", "Annotation"},
			{"/", "Search"},
			{"n", "New"},
			{"r", "Rename"},
			{"?", "More"},
		}
	case ViewDirectories:
		return []command{
			{"j/k", "Navigate"},
			{"n", "Add"},
			{"x", "Remove"},
			{"t/u", "Tag/untag"},
			{"?", "More"},
		}
	case ViewTasks:
		pause := "Pause"
		if m.queue.Paused {
			pause = "Continue"
		}
		return []command{
			{"[/]", "Page"},
			{"P", pause},
			{"C", "Clear done"},
			{"?", "More"},
		}
	case ViewLogs:
		follow := "Pause"
		if !m.logs.follow {
			follow = "Follow"
		}
		return []command{
			{"space", follow},
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"?", "More"},
		}
	case ViewItem:
		play := "Play"
		if m.session != nil && m.session.client != nil {
			play = "Pause"
		}
		return []command{
			{"p", play},
			{"←/→", "Seek"},
			{"</>", "Scan"},
			{"+/-", "Volume"},
			{"t", "Tag"},
			{"m", "Highlight"},
			{"N", "Next"},
			{"esc", "Back"},
			{"?", "More"},
		}
	}
	return nil
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	cmds := m.commands()
	segments := make([]string, 0, len(cmds)+2)
	for _, c := range cmds {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.currentView == ViewGallery && m.gallery.search != "" {
		segments = append(segments, bg.Render("/"+truncate(m.gallery.search, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	bar := strings.Join(segments, sep)
	if lipgloss.Width(bar) > m.width-2 && m.width > 2 {
		bar = lipgloss.NewStyle().MaxWidth(m.width - 2).Render(bar)
	}
	return styles.Header.Width(m.width).Render(bar)
}
