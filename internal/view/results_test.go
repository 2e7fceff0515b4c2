package view

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/shelf/internal/models"
	"github.com/justyntemme/shelf/internal/search"
)

func intPtr(v int) *int { return &v }

func TestTotalPages(t *testing.T) {
	tests := []struct {
		numFound int
		expected int
	}{
		{0, 1},
		{1, 1},
		{19, 1},
		{20, 1},
		{21, 2},
		{40, 2},
		{41, 3},
		{1000, 50},
		{-3, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, TotalPages(tt.numFound), "numFound=%d", tt.numFound)
	}
}

func TestTotalPagesFormula(t *testing.T) {
	for n := 0; n <= 500; n++ {
		expected := (n + 19) / 20
		if expected < 1 {
			expected = 1
		}
		require.Equal(t, expected, TotalPages(n), "numFound=%d", n)
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 5))
	assert.Equal(t, 5, ClampPage(9, 5))
	assert.Equal(t, 3, ClampPage(3, 5))
	assert.Equal(t, 1, ClampPage(2, 0))
}

func TestBuildResultsDuneScenario(t *testing.T) {
	state := search.State{
		Query:    "dune",
		Page:     1,
		NumFound: 1,
		Results: []models.SearchResultItem{{
			Key:              "/works/OL1W",
			Title:            "Dune",
			AuthorNames:      []string{"Frank Herbert"},
			FirstPublishYear: intPtr(1965),
		}},
	}

	r := BuildResults(state, func(string) bool { return false })

	require.Len(t, r.Rows, 1)
	assert.Equal(t, "Dune — Frank Herbert — First published: 1965", r.Rows[0].Line())
	assert.Equal(t, 1, r.TotalPages)
	assert.True(t, r.PrevDisabled)
	assert.True(t, r.NextDisabled)
	assert.False(t, r.NoResults)
	assert.Equal(t, "Save", r.Rows[0].SaveLabel())
}

func TestBuildResultsEmptyQuery(t *testing.T) {
	r := BuildResults(search.State{Page: 1}, nil)
	assert.False(t, r.Loading)
	assert.False(t, r.NoResults)
	assert.Empty(t, r.Rows)
	assert.Equal(t, 1, r.TotalPages)
}

func TestBuildResultsNoResultsMessage(t *testing.T) {
	tests := []struct {
		name     string
		state    search.State
		expected bool
	}{
		{"settled empty", search.State{Query: "zzz", Page: 1}, true},
		{"loading", search.State{Query: "zzz", Page: 1, Loading: true}, false},
		{"blank query", search.State{Query: "  ", Page: 1}, false},
		{"errored", search.State{Query: "zzz", Page: 1, Error: "HTTP 500"}, false},
		{"has results", search.State{Query: "zzz", Page: 1, Results: []models.SearchResultItem{{Title: "Z"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildResults(tt.state, nil).NoResults)
		})
	}
}

func TestBuildResultsPagination(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		numFound     int
		prevDisabled bool
		nextDisabled bool
		prevPage     int
		nextPage     int
	}{
		{"first of many", 1, 95, true, false, 1, 2},
		{"middle", 3, 95, false, false, 2, 4},
		{"last", 5, 95, false, true, 4, 5},
		{"beyond last", 7, 95, false, true, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := BuildResults(search.State{Query: "q", Page: tt.page, NumFound: tt.numFound}, nil)
			assert.Equal(t, 5, r.TotalPages)
			assert.Equal(t, tt.prevDisabled, r.PrevDisabled)
			assert.Equal(t, tt.nextDisabled, r.NextDisabled)
			assert.Equal(t, tt.prevPage, r.PrevPage)
			assert.Equal(t, tt.nextPage, r.NextPage)
		})
	}
}

func TestBuildResultsSavedFlag(t *testing.T) {
	state := search.State{
		Query: "q",
		Page:  1,
		Results: []models.SearchResultItem{
			{Key: "/works/A", Title: "A"},
			{Title: "B", AuthorNames: []string{"X", "Y"}},
		},
	}
	saved := map[string]bool{"BX,Y": true}

	r := BuildResults(state, func(key string) bool { return saved[key] })

	require.Len(t, r.Rows, 2)
	assert.False(t, r.Rows[0].Saved)
	assert.True(t, r.Rows[1].Saved)
	assert.Equal(t, "BX,Y", r.Rows[1].Key)
	assert.Equal(t, "Saved", r.Rows[1].SaveLabel())
	assert.Equal(t, "B — X, Y", r.Rows[1].Line())
}

func TestRenderResults(t *testing.T) {
	r := BuildResults(search.State{
		Query:    "dune",
		Page:     1,
		NumFound: 25,
		Results: []models.SearchResultItem{{
			Key: "/works/OL1W", Title: "Dune", AuthorNames: []string{"Frank Herbert"}, FirstPublishYear: intPtr(1965),
		}},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, RenderResults(&buf, r))
	assert.Equal(t, " 1. [Save] Dune — Frank Herbert — First published: 1965\nPage 1 of 2  (Prev)  [Next]\n", buf.String())
}

func TestRenderResultsStates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderResults(&buf, Results{Loading: true}))
	assert.Equal(t, "Loading...\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderResults(&buf, Results{Error: "search request failed: HTTP 500"}))
	assert.Equal(t, "Error: search request failed: HTTP 500\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderResults(&buf, Results{NoResults: true}))
	assert.Equal(t, "No results.\n", buf.String())
}

func TestRenderReadingList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderReadingList(&buf, nil))
	assert.Equal(t, "Reading list is empty.\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderReadingList(&buf, []models.ReadingListEntry{
		{Title: "Dune", Authors: []string{"Frank Herbert"}, Key: "/works/OL1W"},
	}))
	assert.Equal(t, "- Dune — Frank Herbert  (/works/OL1W)\n", buf.String())
}
