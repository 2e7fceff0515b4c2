package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/justyntemme/shelf/internal/search"
	"github.com/justyntemme/shelf/internal/view"
	"github.com/justyntemme/shelf/internal/widget"
)

const (
	historyFile   = ".shelf_history"
	settleTimeout = 30 * time.Second
)

var shellCommands = []string{
	":next", ":prev", ":page", ":refresh", ":results",
	":details", ":save", ":close",
	":list", ":remove", ":export", ":import",
	":help", ":quit",
}

const shellHelp = `Type a title to search. Commands:
  :next, :prev, :page N   move between result pages
  :refresh                re-run the current search
  :results                show the current page again
  :details N              show details for result N
  :save [N]               save or unsave result N (or the open details)
  :close                  close the details view
  :list                   show the reading list
  :remove KEY             remove an entry from the reading list
  :export                 write reading_list.json to the export directory
  :import FILE            merge a reading list file
  :quit                   leave the shell
`

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive search session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list, closeList, err := a.openList(ctx)
			if err != nil {
				return err
			}
			defer closeList()

			w := widget.New(a.catalogClient(), list, search.WithDebounce(a.cfg.Search.Debounce))
			defer w.Close()

			s := &session{widget: w, out: cmd.OutOrStdout(), exportDir: a.cfg.Export.Dir}
			return s.run(ctx)
		},
	}
}

// session executes shell lines against one widget
type session struct {
	widget    *widget.Widget
	out       io.Writer
	exportDir string
}

func (s *session) run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(s.out, "Shelf interactive shell. Type :help for commands.")
	for {
		input, err := line.Prompt("shelf> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input != "" {
			line.AppendHistory(input)
		}

		quit, err := s.exec(ctx, input)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// exec runs one line; quit reports whether the shell should exit
func (s *session) exec(ctx context.Context, input string) (quit bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return false, nil
	}
	if !strings.HasPrefix(input, ":") {
		s.widget.SetQuery(input)
		return false, s.showResults(ctx)
	}

	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case ":quit", ":q", ":exit":
		return true, nil
	case ":help":
		_, err := io.WriteString(s.out, shellHelp)
		return false, err
	case ":next":
		s.widget.NextPage()
		return false, s.showResults(ctx)
	case ":prev":
		s.widget.PrevPage()
		return false, s.showResults(ctx)
	case ":refresh":
		s.widget.Refresh()
		return false, s.showResults(ctx)
	case ":results":
		return false, s.showResults(ctx)
	case ":page":
		if len(args) != 1 {
			return false, errors.New("usage: :page N")
		}
		n, err := atoiPositive(args[0])
		if err != nil {
			return false, err
		}
		s.widget.SetPage(n)
		return false, s.showResults(ctx)
	case ":details":
		key, err := s.rowKey(args)
		if err != nil {
			return false, err
		}
		if err := s.widget.Select(key); err != nil {
			return false, err
		}
		return false, s.showDetails()
	case ":save":
		return false, s.toggle(ctx, args)
	case ":close":
		s.widget.Dismiss()
		return false, nil
	case ":list":
		return false, view.RenderReadingList(s.out, s.widget.ReadingList().Entries())
	case ":remove":
		if len(args) != 1 {
			return false, errors.New("usage: :remove KEY")
		}
		if s.widget.ReadingList().Remove(ctx, args[0]) {
			fmt.Fprintf(s.out, "Removed %s\n", args[0])
		} else {
			fmt.Fprintf(s.out, "%s is not in the reading list\n", args[0])
		}
		return false, nil
	case ":export":
		path, err := exportList(s.widget.ReadingList(), s.exportDir)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "Exported to %s\n", path)
		return false, nil
	case ":import":
		if len(args) != 1 {
			return false, errors.New("usage: :import FILE")
		}
		n, err := importList(ctx, s.widget.ReadingList(), args[0])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "Imported %d entries\n", n)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s (try :help)", cmd)
	}
}

func (s *session) showResults(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if _, err := s.widget.Settle(ctx); err != nil {
		return err
	}
	return view.RenderResults(s.out, s.widget.Results())
}

func (s *session) showDetails() error {
	d, ok := s.widget.Details()
	if !ok {
		return widget.ErrNothingSelected
	}
	return view.RenderDetails(s.out, d)
}

func (s *session) toggle(ctx context.Context, args []string) error {
	var (
		saved bool
		err   error
	)
	if len(args) == 0 {
		saved, err = s.widget.ToggleSelected(ctx)
	} else {
		var key string
		if key, err = s.rowKey(args); err != nil {
			return err
		}
		saved, err = s.widget.ToggleResult(ctx, key)
	}
	if err != nil {
		return err
	}

	if saved {
		fmt.Fprintln(s.out, "Saved")
	} else {
		fmt.Fprintln(s.out, "Removed")
	}
	return nil
}

// rowKey resolves a 1-based row number on the current page to its key
func (s *session) rowKey(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("expected a result number")
	}
	n, err := atoiPositive(args[0])
	if err != nil {
		return "", err
	}
	rows := s.widget.Results().Rows
	if n > len(rows) {
		return "", fmt.Errorf("no result %d on this page", n)
	}
	return rows[n-1].Key, nil
}

func completeCommand(line string) []string {
	if !strings.HasPrefix(line, ":") {
		return nil
	}
	var out []string
	for _, c := range shellCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}
