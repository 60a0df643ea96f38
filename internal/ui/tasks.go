package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

type tasksState struct {
	page   int
	cursor int
}

func (m Model) handleTasksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cursor, ok := m.moveCursor(msg, m.tasks.cursor, len(m.taskPage.Tasks)); ok {
		m.tasks.cursor = cursor
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.PrevPage):
		if m.tasks.page > 1 {
			m.tasks.page--
			m.tasks.cursor = 0
			return m, m.loadTasks(m.tasks.page)
		}
	case key.Matches(msg, m.keys.NextPage):
		if m.tasks.page < m.taskPage.Pages() {
			m.tasks.page++
			m.tasks.cursor = 0
			return m, m.loadTasks(m.tasks.page)
		}
	case key.Matches(msg, m.keys.PauseQueue):
		return m, m.toggleQueue()
	case key.Matches(msg, m.keys.ClearFinished):
		lib := m.lib
		return m, m.action(func(ctx context.Context) (string, error) {
			if err := lib.ClearFinished(ctx); err != nil {
				return "", err
			}
			return "Cleared finished tasks", nil
		})
	case key.Matches(msg, m.keys.Escape):
		return m.back()
	}
	return m, nil
}

func (m Model) toggleQueue() tea.Cmd {
	lib := m.lib
	paused := m.queue.Paused
	return m.action(func(ctx context.Context) (string, error) {
		if paused {
			if err := lib.ContinueQueue(ctx); err != nil {
				return "", err
			}
			return "Queue resumed", nil
		}
		if err := lib.PauseQueue(ctx); err != nil {
			return "", err
		}
		return "Queue paused", nil
	})
}

// taskStatus is the badge label for a task, flagging long-running tasks.
func (m Model) taskStatus(t collection.Task) string {
	if t.IsStale(m.now) {
		return "stale"
	}
	return string(t.Status())
}

func (m Model) renderTasks(height int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	state := styles.SuccessText.Render("● running")
	if m.queue.Paused {
		state = styles.WarningText.Render("● paused")
	}
	summary := []string{
		state,
		styles.MutedText.Render("Queue ") + styles.Text.Render(fmt.Sprintf("%d", m.queue.Size)),
		styles.MutedText.Render(fmt.Sprintf("Page %d/%d", m.tasks.page, m.taskPage.Pages())),
		styles.MutedText.Render(fmt.Sprintf("%d tasks", m.taskPage.TotalTasks)),
	}
	b.WriteString(strings.Join(summary, "  "))
	b.WriteString("\n\n")

	tasks := m.taskPage.Tasks
	switch {
	case len(tasks) == 0 && m.tasksErr != nil:
		b.WriteString(styles.DangerText.Render("Tasks unavailable: " + truncate(m.tasksErr.Error(), m.width-20)))
		return b.String()
	case len(tasks) == 0:
		b.WriteString(styles.MutedText.Render("No tasks"))
		return b.String()
	}

	descWidth := m.width - 36
	if descWidth < 20 {
		descWidth = 20
	}
	start, end := visibleWindow(m.tasks.cursor, len(tasks), height-2)
	for i := start; i < end; i++ {
		t := tasks[i]
		status := m.taskStatus(t)
		badge := styles.StatusStyle(status).Render(fmt.Sprintf("%-10s", status))

		elapsed := ""
		if d := t.Elapsed(m.now); d > 0 {
			elapsed = humanizeDuration(d)
		}
		queued := ""
		if t.EnqueueTime != nil && !t.EnqueueTime.IsZero() {
			queued = humanize.Time(*t.EnqueueTime)
		}
		line := fmt.Sprintf(" %s %8s  %s",
			padRight(truncate(t.Description, descWidth), descWidth),
			elapsed,
			queued,
		)
		if i == m.tasks.cursor {
			line = styles.Selected.Render(padRight(line, m.width-14))
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(badge + line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
