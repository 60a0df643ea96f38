package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/library"
	"github.com/dvdlevanon/my-collection-sub000/internal/subtitles"
)

func newSubtitlesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtitles",
		Short: "Inspect caption tracks",
	}
	cmd.AddCommand(newSubtitlesListCommand(ctx))
	cmd.AddCommand(newSubtitlesShowCommand(ctx))
	return cmd
}

func newSubtitlesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list ITEM_ID",
		Short: "List caption tracks available for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				client := lib.Client()
				langs, err := client.FetchAvailableSubtitleLanguages(c, itemID)
				if err != nil {
					return err
				}
				tracks := make(map[string][]string, len(langs))
				var rows [][]string
				for _, lang := range langs {
					names, err := client.FetchAvailableSubtitleNames(c, itemID, lang)
					if err != nil {
						return err
					}
					tracks[lang] = names
					for _, name := range names {
						rows = append(rows, []string{lang, name})
					}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, tracks)
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No subtitles")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Language", "Name"}, rows, nil, shouldColorize(cmd.OutOrStdout()),
				))
				return nil
			})
		},
	}
}

func newSubtitlesShowCommand(ctx *commandContext) *cobra.Command {
	var name string
	var srtPath string
	var offsetMillis int64
	var at float64

	cmd := &cobra.Command{
		Use:   "show [ITEM_ID]",
		Short: "Print a caption track from the server or a local .srt file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []collection.SubtitleEntry
			switch {
			case srtPath != "":
				f, err := os.Open(srtPath)
				if err != nil {
					return fmt.Errorf("open subtitles: %w", err)
				}
				defer f.Close()
				if entries, err = subtitles.ParseSRT(f); err != nil {
					return err
				}
			case len(args) == 1:
				itemID, err := parseItemID(args[0])
				if err != nil {
					return err
				}
				err = ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
					sub, err := lib.Subtitle(c, itemID, name)
					entries = sub.Items
					return err
				})
				if err != nil {
					return err
				}
			default:
				return errors.New("an item id or --srt is required")
			}

			track := subtitles.NewTrack(entries)
			track.SetOffset(offsetMillis)
			if cmd.Flags().Changed("at") {
				text := track.TextAt(at)
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"seconds": at, "text": text})
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No captions")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for i, e := range entries {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					formatSubtitleTime(e.StartMillis - offsetMillis),
					formatSubtitleTime(e.EndMillis - offsetMillis),
					e.Text,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Start", "End", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
				shouldColorize(cmd.OutOrStdout()),
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Track name (default track when empty)")
	cmd.Flags().StringVar(&srtPath, "srt", "", "Read a local .srt file instead of the server")
	cmd.Flags().Int64Var(&offsetMillis, "offset", 0, "Offset in milliseconds added to playback time")
	cmd.Flags().Float64Var(&at, "at", 0, "Print only the caption shown at this playback second")
	return cmd
}

func parseItemID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", value)
	}
	return id, nil
}

// formatSubtitleTime renders milliseconds as hh:mm:ss,mmm.
func formatSubtitleTime(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%s%02d:%02d:%02d,%03d", sign, h, m, s, ms%1000)
}
