package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justyntemme/shelf/internal/readinglist"
	"github.com/justyntemme/shelf/internal/search"
	"github.com/justyntemme/shelf/internal/storage"
	"github.com/justyntemme/shelf/internal/view"
)

func newSearchCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Run one title search and print a page of results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := joinArgs(args)
			if page < 1 {
				return fmt.Errorf("page must be at least 1, got %d", page)
			}

			list, closeList, err := a.openList(ctx)
			if err != nil {
				return err
			}
			defer closeList()

			state := search.State{Query: query, Page: page}
			result, searchErr := a.catalogClient().Search(ctx, query, page)
			if searchErr != nil {
				state.Error = searchErr.Error()
			} else {
				state.Results = result.Results
				state.NumFound = result.NumFound
			}

			if err := view.RenderResults(cmd.OutOrStdout(), view.BuildResults(state, list.Has)); err != nil {
				return err
			}
			if searchErr != nil {
				return fmt.Errorf("search failed: %w", searchErr)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "result page (20 results per page)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the reading list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, closeList, err := a.openList(cmd.Context())
			if err != nil {
				return err
			}
			defer closeList()
			return view.RenderReadingList(cmd.OutOrStdout(), list.Entries())
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove an entry from the reading list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, closeList, err := a.openList(cmd.Context())
			if err != nil {
				return err
			}
			defer closeList()

			if list.Remove(cmd.Context(), args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not in the reading list\n", args[0])
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the reading list to " + readinglist.ExportFilename,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Export.Dir
			}
			list, closeList, err := a.openList(cmd.Context())
			if err != nil {
				return err
			}
			defer closeList()

			path, err := exportList(list, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", list.Len(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from export.dir)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a reading list file into the reading list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, closeList, err := a.openList(cmd.Context())
			if err != nil {
				return err
			}
			defer closeList()

			n, err := importList(cmd.Context(), list, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries (%d total)\n", n, list.Len())
			return nil
		},
	}
}

func exportList(list *readinglist.Manager, dir string) (string, error) {
	files, err := storage.NewFileStorage(dir)
	if err != nil {
		return "", fmt.Errorf("failed to prepare export directory: %w", err)
	}
	path, err := files.SaveFile(readinglist.ExportFilename, list.Export)
	if err != nil {
		return "", fmt.Errorf("failed to export reading list: %w", err)
	}
	return path, nil
}

func importList(ctx context.Context, list *readinglist.Manager, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	n, err := list.Import(ctx, f)
	if errors.Is(err, readinglist.ErrInvalidImport) {
		return 0, errors.New(readinglist.InvalidImportMessage)
	}
	return n, err
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func atoiPositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("expected a positive number, got %q", s)
	}
	return n, nil
}
