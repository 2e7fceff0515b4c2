package search

import "github.com/justyntemme/shelf/internal/models"

// State is a snapshot of the search session
type State struct {
	Query    string                    `json:"query"`
	Page     int                       `json:"page"`
	NumFound int                       `json:"num_found"`
	Loading  bool                      `json:"loading"`
	Error    string                    `json:"error,omitempty"`
	Results  []models.SearchResultItem `json:"results"`
	Version  uint64                    `json:"version"`
}
