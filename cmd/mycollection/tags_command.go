package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/filter"
	"github.com/dvdlevanon/my-collection-sub000/internal/library"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	var category string
	var search string

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				all, err := lib.Tags(c)
				if err != nil {
					return err
				}
				tags, err := selectTags(all, category)
				if err != nil {
					return err
				}
				tags = filter.SortTags(filter.SearchTags(tags, search), filter.SortTitleAsc, 0)

				if ctx.jsonOutput() {
					return writeJSON(cmd, tags)
				}
				if len(tags) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tags")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Category", "Items", "Annotations"},
					buildTagRows(all, tags),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
					shouldColorize(cmd.OutOrStdout()),
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list tags under this category (id or title)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by title")

	cmd.AddCommand(newTagsCreateCommand(ctx))
	cmd.AddCommand(newTagsRenameCommand(ctx))
	cmd.AddCommand(newTagsRemoveCommand(ctx))
	cmd.AddCommand(newTagsAnnotationsCommand(ctx))
	cmd.AddCommand(newTagsImageCommand(ctx))
	cmd.AddCommand(newTagsImageTypesCommand(ctx))
	return cmd
}

func newTagsCreateCommand(ctx *commandContext) *cobra.Command {
	var parent int64

	cmd := &cobra.Command{
		Use:   "create TITLE",
		Short: "Create a tag, or a category when no parent is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				tag, err := lib.CreateTag(c, args[0], parent)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, tag)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created tag %d %s\n", tag.ID, tag.Title)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&parent, "parent", 0, "Parent category id")
	return cmd
}

// selectTags returns every tag, or the children of the named category.
func selectTags(all []collection.Tag, category string) ([]collection.Tag, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return all, nil
	}
	for _, cat := range filter.Categories(all) {
		if strconv.FormatInt(cat.ID, 10) == category || strings.EqualFold(cat.Title, category) {
			return filter.ChildrenOf(all, cat.ID), nil
		}
	}
	return nil, fmt.Errorf("category %q not found", category)
}

func buildTagRows(all, tags []collection.Tag) [][]string {
	rows := make([][]string, 0, len(tags))
	for _, tag := range tags {
		category := ""
		if !tag.IsCategory() {
			if parent, ok := filter.TagByID(all, tag.Parent()); ok {
				category = parent.Title
			}
		}
		annotations := make([]string, 0, len(tag.Annotations))
		for _, a := range tag.Annotations {
			annotations = append(annotations, a.Title)
		}
		rows = append(rows, []string{
			strconv.FormatInt(tag.ID, 10),
			tag.Label(),
			category,
			strconv.Itoa(len(tag.Items)),
			strings.Join(annotations, ", "),
		})
	}
	return rows
}

func newTagsRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID TITLE",
		Short: "Rename a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				tag, err := lib.Tag(c, id)
				if err != nil {
					return err
				}
				tag.Title = strings.TrimSpace(args[1])
				if tag.Title == "" {
					return fmt.Errorf("title required")
				}
				if err := lib.UpdateTag(c, tag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed tag %d to %s\n", tag.ID, tag.Title)
				return nil
			})
		},
	}
}

func newTagsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.RemoveTag(c, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed tag %d\n", id)
				return nil
			})
		},
	}
}

func newTagsAnnotationsCommand(ctx *commandContext) *cobra.Command {
	var available bool

	cmd := &cobra.Command{
		Use:   "annotations ID",
		Short: "List a tag's annotations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				query := lib.TagAnnotations
				if available {
					query = lib.AvailableAnnotations
				}
				annotations, err := query(c, id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, annotations)
				}
				if len(annotations) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No annotations")
					return nil
				}
				rows := make([][]string, 0, len(annotations))
				for _, a := range annotations {
					rows = append(rows, []string{strconv.FormatInt(a.ID, 10), a.Title})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title"},
					rows,
					[]columnAlignment{alignRight, alignLeft},
					shouldColorize(cmd.OutOrStdout()),
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&available, "available", false, "List annotations used by sibling tags instead")

	cmd.AddCommand(&cobra.Command{
		Use:   "add ID TITLE",
		Short: "Attach an annotation, creating it when new",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.AddAnnotation(c, id, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Annotated tag %d with %s\n", id, args[1])
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove ID ANNOTATION_ID",
		Short: "Detach an annotation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			annotationID, err := parseID(args[1])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.RemoveAnnotation(c, id, annotationID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed annotation %d from tag %d\n", annotationID, id)
				return nil
			})
		},
	})
	return cmd
}

func newTagsImageCommand(ctx *commandContext) *cobra.Command {
	var imageType int64

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage tag images",
	}
	cmd.PersistentFlags().Int64Var(&imageType, "type", 0, "Tag image type id")
	_ = cmd.MarkPersistentFlagRequired("type")

	cmd.AddCommand(&cobra.Command{
		Use:   "set ID FILE",
		Short: "Upload FILE as the tag's image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer f.Close()
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				tag, err := lib.Tag(c, id)
				if err != nil {
					return err
				}
				url, err := lib.UploadTagImage(c, tag, imageType, filepath.Base(args[1]), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", url)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove ID",
		Short: "Drop the tag's image of the given type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				if err := lib.RemoveTagImage(c, id, imageType); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed image type %d from tag %d\n", imageType, id)
				return nil
			})
		},
	})
	return cmd
}

func newTagsImageTypesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image-types",
		Short: "List tag image types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				tits, err := lib.TagImageTypes(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, tits)
				}
				rows := make([][]string, 0, len(tits))
				for _, t := range tits {
					rows = append(rows, []string{strconv.FormatInt(t.ID, 10), t.Nickname})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Nickname"},
					rows,
					[]columnAlignment{alignRight, alignLeft},
					shouldColorize(cmd.OutOrStdout()),
				))
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create NICKNAME",
		Short: "Add a tag image type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(c context.Context, lib *library.Service) error {
				tit, err := lib.CreateTagImageType(c, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, tit)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created image type %d %s\n", tit.ID, tit.Nickname)
				return nil
			})
		},
	})
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
