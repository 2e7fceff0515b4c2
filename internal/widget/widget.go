// Package widget composes the search controller, reading list and
// selection into the book search widget that the hosting surfaces drive.
package widget

import (
	"context"
	"errors"

	"github.com/justyntemme/shelf/internal/models"
	"github.com/justyntemme/shelf/internal/readinglist"
	"github.com/justyntemme/shelf/internal/search"
	"github.com/justyntemme/shelf/internal/view"
)

var (
	ErrNotInResults    = errors.New("item is not in the current results")
	ErrNothingSelected = errors.New("no item selected")
)

// Widget is one search session plus the shared reading list
type Widget struct {
	search    *search.Controller
	list      *readinglist.Manager
	selection view.Selection
}

// New wires a controller over searcher to list
func New(searcher search.Searcher, list *readinglist.Manager, opts ...search.Option) *Widget {
	return &Widget{
		search: search.NewController(searcher, opts...),
		list:   list,
	}
}

func (w *Widget) Search() *search.Controller        { return w.search }
func (w *Widget) ReadingList() *readinglist.Manager { return w.list }

func (w *Widget) SetQuery(q string) { w.search.SetQuery(q) }
func (w *Widget) SetPage(p int)     { w.search.SetPage(p) }
func (w *Widget) Refresh()          { w.search.Refresh() }

// NextPage advances one page unless already on the last one
func (w *Widget) NextPage() {
	s := w.search.State()
	total := view.TotalPages(s.NumFound)
	if s.Page >= total {
		return
	}
	w.search.SetPage(view.ClampPage(s.Page+1, total))
}

// PrevPage goes back one page unless already on the first one
func (w *Widget) PrevPage() {
	s := w.search.State()
	if s.Page <= 1 {
		return
	}
	w.search.SetPage(view.ClampPage(s.Page-1, view.TotalPages(s.NumFound)))
}

// Results returns the current results view
func (w *Widget) Results() view.Results {
	return view.BuildResults(w.search.State(), w.list.Has)
}

// Select picks a result from the current page for the details view
func (w *Widget) Select(key string) error {
	item, ok := w.find(key)
	if !ok {
		return ErrNotInResults
	}
	w.selection.Select(item)
	return nil
}

// Details returns the details view of the selection
func (w *Widget) Details() (view.Details, bool) {
	item, ok := w.selection.Current()
	if !ok {
		return view.Details{}, false
	}
	return view.BuildDetails(item, w.list.Has(item.ID())), true
}

// Dismiss clears the selection
func (w *Widget) Dismiss() { w.selection.Dismiss() }

// ToggleResult toggles a result on the current page in the reading list
func (w *Widget) ToggleResult(ctx context.Context, key string) (bool, error) {
	item, ok := w.find(key)
	if !ok {
		return false, ErrNotInResults
	}
	return w.list.Toggle(ctx, item), nil
}

// ToggleSelected toggles the selected item in the reading list
func (w *Widget) ToggleSelected(ctx context.Context) (bool, error) {
	item, ok := w.selection.Current()
	if !ok {
		return false, ErrNothingSelected
	}
	return w.list.Toggle(ctx, item), nil
}

// Settle blocks until no search is pending or in flight
func (w *Widget) Settle(ctx context.Context) (search.State, error) {
	changed := make(chan struct{}, 1)
	unsubscribe := w.search.Subscribe(func(search.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		if s := w.search.State(); !s.Loading {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return w.search.State(), ctx.Err()
		case <-changed:
		}
	}
}

// Close tears down the search session
func (w *Widget) Close() { w.search.Close() }

func (w *Widget) find(key string) (models.SearchResultItem, bool) {
	for _, item := range w.search.State().Results {
		if item.ID() == key {
			return item, true
		}
	}
	return models.SearchResultItem{}, false
}
