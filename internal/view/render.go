package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/justyntemme/shelf/internal/models"
)

// RenderResults writes a plain-text rendering of r
func RenderResults(w io.Writer, r Results) error {
	switch {
	case r.Loading:
		if _, err := fmt.Fprintln(w, "Loading..."); err != nil {
			return err
		}
	case r.Error != "":
		if _, err := fmt.Fprintf(w, "Error: %s\n", r.Error); err != nil {
			return err
		}
	case r.NoResults:
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}

	for i, row := range r.Rows {
		if _, err := fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, row.SaveLabel(), row.Line()); err != nil {
			return err
		}
	}

	if len(r.Rows) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Page %d of %d  %s  %s\n", r.Page, r.TotalPages,
		navLabel("Prev", r.PrevDisabled), navLabel("Next", r.NextDisabled))
	return err
}

// RenderDetails writes a plain-text rendering of d
func RenderDetails(w io.Writer, d Details) error {
	save := "Save"
	if d.Saved {
		save = "Saved"
	}
	_, err := fmt.Fprintf(w, "%s\n  Authors: %s\n  First published: %s\n  Editions: %s\n",
		d.Title, d.Authors, d.FirstPublishYear, d.EditionCount)
	if err != nil {
		return err
	}
	if d.HasSubjects {
		if _, err := fmt.Fprintf(w, "  Subjects: %s\n", d.Subjects); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "  [%s]  %s\n", save, d.Link)
	return err
}

// RenderReadingList writes one line per entry
func RenderReadingList(w io.Writer, entries []models.ReadingListEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Reading list is empty.")
		return err
	}
	for _, e := range entries {
		line := Row{Title: e.Title, Authors: strings.Join(e.Authors, ", ")}.Line()
		if _, err := fmt.Fprintf(w, "- %s  (%s)\n", line, e.Key); err != nil {
			return err
		}
	}
	return nil
}

func navLabel(label string, disabled bool) string {
	if disabled {
		return "(" + label + ")"
	}
	return "[" + label + "]"
}
