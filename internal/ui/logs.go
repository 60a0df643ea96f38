package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
)

// logsState holds the log viewer state.
type logsState struct {
	viewport viewport.Model
	lines    []string
	err      error
	follow   bool
	loaded   bool
}

type logsLoadedMsg struct {
	lines []string
	err   error
}

func (m Model) loadLogs() tea.Cmd {
	path := m.cfg.LogPath()
	return func() tea.Msg {
		lines, err := logging.Tail(path, logTailLines)
		return logsLoadedMsg{lines: lines, err: err}
	}
}

func (m *Model) resizeLogs() {
	w := m.width - 4
	h := m.height - 5
	if w < 10 {
		w = 10
	}
	if h < 3 {
		h = 3
	}
	m.logs.viewport.Width = w
	m.logs.viewport.Height = h
}

func (m *Model) applyLogs(msg logsLoadedMsg) {
	m.logs.err = msg.err
	if msg.err != nil {
		return
	}
	unchanged := m.logs.loaded && len(msg.lines) == len(m.logs.lines) &&
		(len(msg.lines) == 0 || msg.lines[len(msg.lines)-1] == m.logs.lines[len(m.logs.lines)-1])
	m.logs.loaded = true
	if unchanged {
		return
	}
	m.logs.lines = msg.lines
	m.logs.viewport.SetContent(m.colorizeLogs(msg.lines))
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

// colorizeLogs highlights the level field of text-handler records.
func (m Model) colorizeLogs(lines []string) string {
	styles := m.theme.Styles()
	out := make([]string, len(lines))
	for i, line := range lines {
		switch {
		case strings.Contains(line, "level=ERROR"):
			out[i] = styles.DangerText.Render(line)
		case strings.Contains(line, "level=WARN"):
			out[i] = styles.WarningText.Render(line)
		case strings.Contains(line, "level=DEBUG"):
			out[i] = styles.FaintText.Render(line)
		default:
			out[i] = styles.Text.Render(line)
		}
	}
	return strings.Join(out, "\n")
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.TogglePause):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logs.viewport.GotoBottom()
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logs.follow = false
		m.logs.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logs.viewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		return m.back()
	}

	var cmd tea.Cmd
	m.logs.viewport, cmd = m.logs.viewport.Update(msg)
	if !m.logs.viewport.AtBottom() {
		m.logs.follow = false
	}
	return m, cmd
}

func (m Model) renderLogs(height int) string {
	styles := m.theme.Styles()
	title := "Logs " + truncateMiddle(m.cfg.LogPath(), 50)
	if !m.logs.follow {
		title += " (paused)"
	}

	var content string
	switch {
	case m.logs.err != nil:
		content = styles.DangerText.Render(m.logs.err.Error())
	case !m.logs.loaded:
		content = styles.MutedText.Render("Loading logs...")
	case len(m.logs.lines) == 0:
		content = styles.MutedText.Render("No log output yet")
	default:
		content = m.logs.viewport.View()
	}
	return m.renderTitledBox(title, content, m.width, height, true)
}
