package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title    string
	bindings []key.Binding
}

func (m Model) helpSections() []helpSection {
	k := m.keys
	return []helpSection{
		{"Navigation", []key.Binding{
			k.ViewGallery, k.ViewTags, k.ViewDirectories, k.ViewTasks, k.ViewLogs,
			k.Tab, k.Escape, k.Up, k.Down, k.Top, k.Bottom, k.PageDown, k.Confirm,
		}},
		{"Gallery & Tags", []key.Binding{
			k.Search, k.CycleSort, k.ToggleCondition, k.ToggleChip, k.RemoveChip, k.ClearChips,
			k.Left, k.CycleAnnotation, k.CycleImageType, k.New,
			k.Rename, k.Annotate, k.DropAnnotation, k.UploadImage, k.RemoveImage,
		}},
		{"Player", []key.Binding{
			k.Play, k.TogglePause, k.SeekBack, k.SeekForward, k.ScanBack, k.ScanForward,
			k.VolumeUp, k.VolumeDown, k.FullScreen, k.AutoPlay, k.Suggestions,
			k.SubtitleEarly, k.SubtitleLate,
		}},
		{"Item", []key.Binding{
			k.Split, k.MainCover, k.Highlight, k.Crop, k.AddTag, k.Remove,
			k.Rename, k.Location, k.OpenBrowser,
		}},
		{"Directories", []key.Binding{
			k.New, k.Remove, k.AddTag, k.Untag,
		}},
		{"Tasks", []key.Binding{
			k.PrevPage, k.NextPage, k.PauseQueue, k.ClearFinished,
		}},
		{"General", []key.Binding{
			k.Refresh, k.CycleTheme, k.Help, k.Quit,
		}},
	}
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	renderSection := func(s helpSection) string {
		var b strings.Builder
		b.WriteString(styles.AccentText.Bold(true).Render(s.title))
		b.WriteString("\n")
		for _, binding := range s.bindings {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
		return b.String()
	}

	sections := m.helpSections()
	var left, right []string
	for i, s := range sections {
		if i%2 == 0 {
			left = append(left, renderSection(s))
		} else {
			right = append(right, renderSection(s))
		}
	}
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(36).Render(strings.Join(left, "\n")),
		lipgloss.NewStyle().Width(36).Render(strings.Join(right, "\n")),
	)

	title := styles.Text.Bold(true).Render("Keyboard Shortcuts")
	rule := styles.FaintText.Render(strings.Repeat("─", 30))
	content := lipgloss.JoinVertical(lipgloss.Left, title, rule, "", columns)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
