package search

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/justyntemme/shelf/internal/catalog"
	"github.com/justyntemme/shelf/internal/logger"
	"github.com/justyntemme/shelf/internal/metrics"
)

// DefaultDebounce is the quiet period before a search is issued
const DefaultDebounce = 450 * time.Millisecond

// Searcher fetches one page of results
type Searcher interface {
	Search(ctx context.Context, query string, page int) (*catalog.Page, error)
}

// Option configures a Controller
type Option func(*Controller)

// WithDebounce overrides DefaultDebounce
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.delay = d }
}

// WithScheduler replaces the timer source
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// Controller owns the query and page, debounces edits, and keeps at most
// one request in flight. A request only commits if no edit happened since
// it was scheduled.
type Controller struct {
	searcher  Searcher
	scheduler Scheduler
	delay     time.Duration

	mu     sync.Mutex
	state  State
	gen    uint64
	timer  Timer
	cancel context.CancelFunc
	closed bool

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// NewController creates an idle controller with an empty query on page 1
func NewController(searcher Searcher, opts ...Option) *Controller {
	c := &Controller{
		searcher:  searcher,
		scheduler: realScheduler{},
		delay:     DefaultDebounce,
		state:     State{Page: 1, Results: nil},
		subs:      make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current snapshot
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetQuery replaces the query and resets the page to 1
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	if c.closed || query == c.state.Query {
		c.mu.Unlock()
		return
	}
	c.state.Query = query
	c.state.Page = 1
	c.scheduleLocked()
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// SetPage moves to page (minimum 1)
func (c *Controller) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	if c.closed || page == c.state.Page {
		c.mu.Unlock()
		return
	}
	c.state.Page = page
	c.scheduleLocked()
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Refresh re-runs the search for the current query and page
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.scheduleLocked()
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Close cancels the pending timer and any in-flight request. Later edits
// are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.stopLocked()
}

// Subscribe registers fn for every state change; the returned func unsubscribes
func (c *Controller) Subscribe(fn func(State)) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// scheduleLocked supersedes pending work and schedules a search for the
// current query and page. c.mu must be held.
func (c *Controller) scheduleLocked() {
	c.gen++
	c.stopLocked()

	query := strings.TrimSpace(c.state.Query)
	if query == "" {
		c.state.Results = nil
		c.state.NumFound = 0
		c.state.Error = ""
		c.state.Loading = false
		return
	}

	c.state.Loading = true
	c.state.Error = ""

	gen, page := c.gen, c.state.Page
	c.timer = c.scheduler.AfterFunc(c.delay, func() {
		c.run(gen, query, page)
	})
}

// stopLocked drops the pending timer and cancels the in-flight request
func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) run(gen uint64, query string, page int) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	log := logger.For(ctx).WithField("query", query).WithField("page", page)
	metrics.IncSearchStarted()
	start := time.Now()
	result, err := c.searcher.Search(ctx, query, page)
	metrics.ObserveSearchDuration(time.Since(start))

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		metrics.IncSearchCanceled()
		log.Debug("discarding superseded search")
		return
	}
	c.cancel = nil
	c.state.Loading = false
	if errors.Is(err, catalog.ErrCancelled) {
		// cancelled without a newer edit; prior results stay
		metrics.IncSearchCanceled()
		log.Debug("current search cancelled")
	} else if err != nil {
		c.state.Error = err.Error()
		metrics.IncSearchFailed(failureStatus(err))
		log.WithError(err).Warn("search failed")
	} else {
		if result == nil {
			result = &catalog.Page{}
		}
		c.state.Results = result.Results
		c.state.NumFound = result.NumFound
		metrics.IncSearchCompleted()
		log.WithField("num_found", result.NumFound).Debug("search completed")
	}
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) bumpLocked() State {
	c.state.Version++
	return c.state
}

func (c *Controller) notify(s State) {
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func failureStatus(err error) string {
	var reqErr *catalog.RequestFailedError
	if errors.As(err, &reqErr) && reqErr.Status != 0 {
		return strconv.Itoa(reqErr.Status)
	}
	return "error"
}
