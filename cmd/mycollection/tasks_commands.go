package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/library"
)

type tasksOutput struct {
	Queue collection.QueueMetadata `json:"queue"`
	Page  collection.TaskPage      `json:"page"`
}

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show the processing queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				meta, err := lib.QueueMetadata(c)
				if err != nil {
					return err
				}
				tasks, err := lib.Tasks(c, page)
				if err != nil {
					return err
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, tasksOutput{Queue: meta, Page: tasks})
				}
				out := cmd.OutOrStdout()
				state := "running"
				if meta.Paused {
					state = "paused"
				}
				fmt.Fprintf(out, "Queue %s, %d tasks (page %d/%d)\n", state, meta.Size, tasks.Page, tasks.Pages())
				if len(tasks.Tasks) == 0 {
					fmt.Fprintln(out, "No tasks")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Description", "Status", "Elapsed", "Enqueued"},
					buildTaskRows(tasks.Tasks, time.Now()),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					shouldColorize(out),
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number, starting at 1")

	cmd.AddCommand(newQueueActionCommand(ctx, "pause", "Stop starting new tasks", "Queue paused",
		(*library.Service).PauseQueue))
	cmd.AddCommand(newQueueActionCommand(ctx, "continue", "Resume a paused queue", "Queue resumed",
		(*library.Service).ContinueQueue))
	cmd.AddCommand(newQueueActionCommand(ctx, "clear-finished", "Remove finished tasks", "Finished tasks cleared",
		(*library.Service).ClearFinished))
	return cmd
}

func newQueueActionCommand(ctx *commandContext, use, short, done string, action func(*library.Service, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := action(lib, c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), done)
				return nil
			})
		},
	}
}

func taskStatusLabel(t collection.Task, now time.Time) string {
	if t.IsStale(now) {
		return "stale"
	}
	return string(t.Status())
}

func buildTaskRows(tasks []collection.Task, now time.Time) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		elapsed := ""
		if d := t.Elapsed(now); d > 0 {
			elapsed = d.Truncate(time.Second).String()
		}
		enqueued := ""
		if t.EnqueueTime != nil {
			enqueued = humanize.RelTime(*t.EnqueueTime, now, "ago", "from now")
		}
		id := t.ID
		if len(id) > 8 {
			id = id[:8]
		}
		description := t.Description
		if description == "" {
			description = "task " + strconv.Itoa(t.TaskType)
		}
		rows = append(rows, []string{id, description, taskStatusLabel(t, now), elapsed, enqueued})
	}
	return rows
}
