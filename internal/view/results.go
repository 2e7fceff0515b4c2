package view

import (
	"strconv"
	"strings"

	"github.com/justyntemme/shelf/internal/catalog"
	"github.com/justyntemme/shelf/internal/search"
)

// Row is one rendered search result
type Row struct {
	Key            string `json:"key"`
	Title          string `json:"title"`
	Authors        string `json:"authors"`
	FirstPublished string `json:"first_published,omitempty"` // "First published: <year>" or empty
	Saved          bool   `json:"saved"`
}

// Line renders the row as "Title — Authors — First published: <year>",
// skipping empty segments
func (r Row) Line() string {
	parts := []string{r.Title}
	if r.Authors != "" {
		parts = append(parts, r.Authors)
	}
	if r.FirstPublished != "" {
		parts = append(parts, r.FirstPublished)
	}
	return strings.Join(parts, " — ")
}

// SaveLabel is the toggle caption for the row
func (r Row) SaveLabel() string {
	if r.Saved {
		return "Saved"
	}
	return "Save"
}

// Results is the results and pagination view model
type Results struct {
	Query        string `json:"query"`
	Loading      bool   `json:"loading"`
	Error        string `json:"error,omitempty"`
	NoResults    bool   `json:"no_results"`
	Rows         []Row  `json:"rows"`
	NumFound     int    `json:"num_found"`
	Page         int    `json:"page"`
	TotalPages   int    `json:"total_pages"`
	PrevDisabled bool   `json:"prev_disabled"`
	NextDisabled bool   `json:"next_disabled"`
	PrevPage     int    `json:"prev_page"`
	NextPage     int    `json:"next_page"`
	Version      uint64 `json:"version"`
}

// TotalPages returns max(1, ceil(numFound / PageSize))
func TotalPages(numFound int) int {
	if numFound <= 0 {
		return 1
	}
	return (numFound + catalog.PageSize - 1) / catalog.PageSize
}

// ClampPage keeps page within [1, total]
func ClampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// BuildResults derives the results view from the session state and
// reading list membership
func BuildResults(s search.State, isSaved func(key string) bool) Results {
	total := TotalPages(s.NumFound)
	r := Results{
		Query:        s.Query,
		Loading:      s.Loading,
		Error:        s.Error,
		NumFound:     s.NumFound,
		Page:         s.Page,
		TotalPages:   total,
		PrevDisabled: s.Page <= 1,
		NextDisabled: s.Page >= total,
		PrevPage:     ClampPage(s.Page-1, total),
		NextPage:     ClampPage(s.Page+1, total),
		Rows:         make([]Row, 0, len(s.Results)),
		Version:      s.Version,
	}

	r.NoResults = !s.Loading && s.Error == "" && strings.TrimSpace(s.Query) != "" && len(s.Results) == 0

	for _, item := range s.Results {
		row := Row{
			Key:     item.ID(),
			Title:   item.Title,
			Authors: strings.Join(item.AuthorNames, ", "),
		}
		if item.FirstPublishYear != nil {
			row.FirstPublished = "First published: " + strconv.Itoa(*item.FirstPublishYear)
		}
		if isSaved != nil {
			row.Saved = isSaved(row.Key)
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}
