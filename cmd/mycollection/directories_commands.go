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
	"github.com/dvdlevanon/my-collection-sub000/internal/library"
)

func newDirectoriesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "directories",
		Aliases: []string{"dirs"},
		Short:   "List and manage source directories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				dirs, err := lib.Directories(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, dirs)
				}
				if len(dirs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No directories")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Path", "Files", "Tags", "State", "Synced"},
					buildDirectoryRows(dirs, time.Now()),
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
					shouldColorize(cmd.OutOrStdout()),
				))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add PATH",
		Short: "Register a directory for scanning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.AddDirectory(c, collection.Directory{Path: args[0]}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", args[0])
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove PATH",
		Short: "Exclude a directory from scanning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.RemoveDirectory(c, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show PATH",
		Short: "Show one directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				dir, err := lib.Directory(c, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, dir)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Path", "Files", "Tags", "State", "Synced"},
					buildDirectoryRows([]collection.Directory{dir}, time.Now()),
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
					shouldColorize(cmd.OutOrStdout()),
				))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "tag PATH TAG_ID",
		Short: "Tag every item under a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagID, err := parseID(args[1])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.AddTagToDirectory(c, args[0], tagID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tagged %s with %d\n", args[0], tagID)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "untag PATH TAG_ID",
		Short: "Remove a directory tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagID, err := parseID(args[1])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.RemoveTagFromDirectory(c, args[0], tagID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed tag %d from %s\n", tagID, args[0])
				return nil
			})
		},
	})
	return cmd
}

func directoryState(d collection.Directory) string {
	switch {
	case d.IsExcluded():
		return "excluded"
	case d.ProcessingStart != nil && *d.ProcessingStart > 0:
		return "syncing"
	default:
		return "scanned"
	}
}

func buildDirectoryRows(dirs []collection.Directory, now time.Time) [][]string {
	rows := make([][]string, 0, len(dirs))
	for _, d := range dirs {
		tags := make([]string, 0, len(d.Tags))
		for _, t := range d.Tags {
			tags = append(tags, t.Label())
		}
		synced := "never"
		if d.LastSynced > 0 {
			synced = humanize.RelTime(time.UnixMilli(d.LastSynced), now, "ago", "from now")
		}
		rows = append(rows, []string{
			d.Path,
			strconv.Itoa(d.Files()),
			strings.Join(tags, ", "),
			directoryState(d),
			synced,
		})
	}
	return rows
}
