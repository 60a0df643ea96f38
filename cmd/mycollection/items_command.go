package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/filter"
	"github.com/dvdlevanon/my-collection-sub000/internal/library"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	var tagIDs []int64
	var matchAll bool
	var search string
	var sortOrder string

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List items, optionally filtered by tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				items, err := lib.Items(c)
				if err != nil {
					return err
				}
				var tags []collection.Tag
				if len(tagIDs) > 0 {
					if tags, err = lib.Tags(c); err != nil {
						return err
					}
				}

				cond := filter.ConditionOr
				if matchAll {
					cond = filter.ConditionAnd
				}
				selection := filter.NewSelection(tagIDs...)
				active := selection.ActiveTags(tags)
				if len(active) != len(selection.ActiveIDs()) {
					return fmt.Errorf("unknown tag in %v", tagIDs)
				}
				items = filter.FilterItemsByTags(items, active, cond)
				items = filter.SearchItems(items, search)
				items = filter.SortItems(items, filter.ParseSortOrder(sortOrder), uint64(time.Now().UnixNano()))

				if ctx.jsonOutput() {
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No items")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Duration", "Size", "Tags"},
					buildItemRows(items),
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
					shouldColorize(cmd.OutOrStdout()),
				))
				return nil
			})
		},
	}

	cmd.Flags().Int64SliceVarP(&tagIDs, "tag", "t", nil, "Only items carrying this tag id (repeatable)")
	cmd.Flags().BoolVar(&matchAll, "and", false, "Require every --tag instead of any")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by title")
	cmd.Flags().StringVar(&sortOrder, "sort", string(filter.SortTitleAsc), "Sort order: title-asc, title-desc, duration, random, id")

	cmd.AddCommand(newItemsRenameCommand(ctx))
	cmd.AddCommand(newItemsRemoveCommand(ctx))
	cmd.AddCommand(newItemsLocationCommand(ctx))
	cmd.AddCommand(newItemsCropCommand(ctx))
	return cmd
}

func newItemsRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID TITLE",
		Short: "Rename an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				item, err := lib.Item(c, id)
				if err != nil {
					return err
				}
				item.Title = strings.TrimSpace(args[1])
				if item.Title == "" {
					return fmt.Errorf("title required")
				}
				if err := lib.UpdateItem(c, item); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed item %d to %s\n", id, item.Title)
				return nil
			})
		},
	}
}

func newItemsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.RemoveItem(c, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d\n", id)
				return nil
			})
		},
	}
}

func newItemsLocationCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "location ID",
		Short: "Print the item's path on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				path, err := lib.ItemLocation(c, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
}

func newItemsCropCommand(ctx *commandContext) *cobra.Command {
	var at float64
	var rect collection.Rect

	cmd := &cobra.Command{
		Use:   "crop ID",
		Short: "Crop the frame at --at seconds into a new cover",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if rect.Empty() {
				return fmt.Errorf("--width and --height must be positive")
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.CropFrame(c, id, at, rect); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cropped item %d at %ss\n", id, strconv.FormatFloat(at, 'f', -1, 64))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "Frame position in seconds")
	cmd.Flags().IntVar(&rect.X, "x", 0, "Left edge in pixels")
	cmd.Flags().IntVar(&rect.Y, "y", 0, "Top edge in pixels")
	cmd.Flags().IntVar(&rect.Width, "width", 0, "Width in pixels")
	cmd.Flags().IntVar(&rect.Height, "height", 0, "Height in pixels")
	return cmd
}

func buildItemRows(items []collection.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		titles := make([]string, 0, len(item.Tags))
		for _, t := range item.Tags {
			titles = append(titles, t.Label())
		}
		size := ""
		if item.FileSize > 0 {
			size = humanize.IBytes(uint64(item.FileSize))
		}
		title := item.Title
		if item.IsSubItem() {
			title = "↳ " + title
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			title,
			formatDuration(item.Duration()),
			size,
			strings.Join(titles, ", "),
		})
	}
	return rows
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int(d.Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
