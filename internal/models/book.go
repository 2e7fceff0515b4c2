package models

import "strings"

// SearchResultItem represents one catalog document from a title search
type SearchResultItem struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_names"`
	FirstPublishYear *int     `json:"first_publish_year,omitempty"`
	EditionCount     *int     `json:"edition_count,omitempty"`
	Subjects         []string `json:"subjects,omitempty"` // nil when the catalog sent none
}

// ID returns the derived identifier used for reading list membership
func (i SearchResultItem) ID() string {
	return ItemKey(i.Key, i.Title, i.AuthorNames)
}

// ReadingListEntry represents a saved catalog item
type ReadingListEntry struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Key     string   `json:"key"`
}

// ReadingList maps derived identifiers to saved entries
type ReadingList map[string]ReadingListEntry

// Clone returns a shallow copy of the list
func (l ReadingList) Clone() ReadingList {
	out := make(ReadingList, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// ItemKey derives the identifier for a result or reading list candidate.
// The catalog key wins; otherwise title and comma-joined authors are
// concatenated. Two works with identical title and authors collide.
func ItemKey(key, title string, authors []string) string {
	if key != "" {
		return key
	}
	return title + strings.Join(authors, ",")
}
