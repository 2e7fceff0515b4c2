package view

import (
	"sync"

	"github.com/justyntemme/shelf/internal/models"
)

// Selection holds at most one item selected for details
type Selection struct {
	mu   sync.Mutex
	item *models.SearchResultItem
}

// Select replaces the current selection
func (s *Selection) Select(item models.SearchResultItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.item = &item
}

// Dismiss clears the selection (close button or click outside)
func (s *Selection) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.item = nil
}

// Current returns the selected item, if any
func (s *Selection) Current() (models.SearchResultItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.item == nil {
		return models.SearchResultItem{}, false
	}
	return *s.item, true
}
