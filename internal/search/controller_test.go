package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/shelf/internal/catalog"
	"github.com/justyntemme/shelf/internal/models"
)

// manualScheduler only runs timers when the test fires them
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// firePending runs every live timer synchronously and returns how many ran
func (s *manualScheduler) firePending() int {
	s.mu.Lock()
	var live []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			live = append(live, t)
		}
	}
	s.mu.Unlock()

	for _, t := range live {
		t.f()
	}
	return len(live)
}

func (s *manualScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

type call struct {
	query string
	page  int
}

// fakeSearcher records calls and answers from a function
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []call
	respond func(ctx context.Context, query string, page int) (*catalog.Page, error)
}

func (f *fakeSearcher) Search(ctx context.Context, query string, page int) (*catalog.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{query, page})
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return pageOf(query), nil
	}
	return respond(ctx, query, page)
}

func (f *fakeSearcher) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func pageOf(titles ...string) *catalog.Page {
	p := &catalog.Page{NumFound: len(titles)}
	for _, title := range titles {
		p.Results = append(p.Results, models.SearchResultItem{Key: "/works/" + title, Title: title, AuthorNames: []string{}})
	}
	return p
}

func setupTestController(t *testing.T) (*Controller, *fakeSearcher, *manualScheduler) {
	searcher := &fakeSearcher{}
	sched := &manualScheduler{}
	c := NewController(searcher, WithScheduler(sched))
	t.Cleanup(c.Close)
	return c, searcher, sched
}

func TestInitialState(t *testing.T) {
	c, _, _ := setupTestController(t)
	s := c.State()
	assert.Equal(t, 1, s.Page)
	assert.Empty(t, s.Query)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Results)
}

func TestDebounceIssuesOneRequest(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	c.SetQuery("dune")
	s := c.State()
	assert.True(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Empty(t, searcher.recorded(), "no request before the debounce window elapses")

	require.Equal(t, 1, sched.firePending())
	assert.Equal(t, []call{{"dune", 1}}, searcher.recorded())

	s = c.State()
	assert.False(t, s.Loading)
	assert.Equal(t, 1, s.NumFound)
	require.Len(t, s.Results, 1)
	assert.Equal(t, "dune", s.Results[0].Title)
}

func TestDebounceUsesConfiguredDelay(t *testing.T) {
	searcher := &fakeSearcher{}
	sched := &manualScheduler{}
	c := NewController(searcher, WithScheduler(sched))
	defer c.Close()

	c.SetQuery("dune")
	require.Equal(t, 1, sched.count())
	assert.Equal(t, DefaultDebounce, sched.timers[0].d)
	assert.Equal(t, 450*time.Millisecond, sched.timers[0].d)
}

func TestRapidEditsOnlyLastCommits(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	c.SetQuery("d")
	c.SetQuery("du")
	c.SetPage(4)
	c.SetQuery("dune")

	assert.Equal(t, 4, sched.count())
	assert.Equal(t, 1, sched.firePending())
	assert.Equal(t, []call{{"dune", 1}}, searcher.recorded())
}

func TestStaleTimerCallbackIsIgnored(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	c.SetQuery("du")
	stale := sched.timers[0]
	c.SetQuery("dune")

	// a timer whose Stop lost the race still runs its callback
	stale.f()
	assert.Empty(t, searcher.recorded())
	assert.True(t, c.State().Loading)
}

func TestQueryChangeResetsPage(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	c.SetQuery("dune")
	sched.firePending()
	c.SetPage(3)
	assert.Equal(t, 3, c.State().Page)
	sched.firePending()

	c.SetQuery("emma")
	assert.Equal(t, 1, c.State().Page, "page resets before any request is scheduled")
	sched.firePending()

	assert.Equal(t, []call{{"dune", 1}, {"dune", 3}, {"emma", 1}}, searcher.recorded())
}

func TestSetPageClampsToOne(t *testing.T) {
	c, _, _ := setupTestController(t)
	c.SetQuery("dune")
	c.SetPage(0)
	assert.Equal(t, 1, c.State().Page)
	c.SetPage(-5)
	assert.Equal(t, 1, c.State().Page)
}

func TestSameQueryIsNoop(t *testing.T) {
	c, _, sched := setupTestController(t)
	c.SetQuery("dune")
	v := c.State().Version
	c.SetQuery("dune")
	assert.Equal(t, v, c.State().Version)
	assert.Equal(t, 1, sched.count())
}

func TestEmptyQueryClearsWithoutRequest(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	c.SetQuery("dune")
	sched.firePending()
	require.NotEmpty(t, c.State().Results)

	c.SetQuery("   ")
	s := c.State()
	assert.Empty(t, s.Results)
	assert.Equal(t, 0, s.NumFound)
	assert.Empty(t, s.Error)
	assert.False(t, s.Loading)
	assert.Equal(t, 0, sched.firePending())
	assert.Len(t, searcher.recorded(), 1)
}

func TestQueryIsTrimmedForRequest(t *testing.T) {
	c, searcher, sched := setupTestController(t)
	c.SetQuery("  dune ")
	sched.firePending()
	assert.Equal(t, []call{{"dune", 1}}, searcher.recorded())
	assert.Equal(t, "  dune ", c.State().Query)
}

func TestFailureKeepsPreviousResults(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	c.SetQuery("dune")
	sched.firePending()
	before := c.State()

	searcher.respond = func(context.Context, string, int) (*catalog.Page, error) {
		return nil, &catalog.RequestFailedError{Status: 500}
	}
	c.SetPage(2)
	sched.firePending()

	s := c.State()
	assert.Contains(t, s.Error, "500")
	assert.False(t, s.Loading)
	assert.Equal(t, before.Results, s.Results)
	assert.Equal(t, before.NumFound, s.NumFound)
}

func TestNextChangeClearsError(t *testing.T) {
	c, searcher, sched := setupTestController(t)
	searcher.respond = func(context.Context, string, int) (*catalog.Page, error) {
		return nil, &catalog.RequestFailedError{Message: "connection refused"}
	}
	c.SetQuery("dune")
	sched.firePending()
	require.NotEmpty(t, c.State().Error)

	c.Refresh()
	s := c.State()
	assert.Empty(t, s.Error)
	assert.True(t, s.Loading)
}

func TestInFlightRequestCancelledByNewEdit(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	started := make(chan struct{}, 1)
	searcher.respond = func(ctx context.Context, query string, page int) (*catalog.Page, error) {
		if query == "du" {
			started <- struct{}{}
			<-ctx.Done()
			return nil, catalog.ErrCancelled
		}
		return pageOf(query), nil
	}

	c.SetQuery("du")
	done := make(chan struct{})
	go func() {
		sched.firePending()
		close(done)
	}()
	<-started

	c.SetQuery("dune")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight request was not cancelled")
	}

	s := c.State()
	assert.True(t, s.Loading, "cancellation must not clear loading")
	assert.Empty(t, s.Error, "cancellation is not an error")
	assert.Empty(t, s.Results)

	sched.firePending()
	s = c.State()
	assert.False(t, s.Loading)
	require.Len(t, s.Results, 1)
	assert.Equal(t, "dune", s.Results[0].Title)
}

func TestLateCompletionAfterCancelIsDiscarded(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	searcher.respond = func(ctx context.Context, query string, page int) (*catalog.Page, error) {
		if query == "du" {
			started <- struct{}{}
			<-release // ignores cancellation and answers anyway
			return pageOf("stale"), nil
		}
		return pageOf(query), nil
	}

	c.SetQuery("du")
	done := make(chan struct{})
	go func() {
		sched.firePending()
		close(done)
	}()
	<-started

	c.SetQuery("dune")
	close(release)
	<-done

	s := c.State()
	assert.Empty(t, s.Results)
	assert.True(t, s.Loading)
}

func TestCancelWithoutNewerEditClearsLoading(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	c.SetQuery("dune")
	sched.firePending()
	before := c.State()

	searcher.respond = func(context.Context, string, int) (*catalog.Page, error) {
		return nil, catalog.ErrCancelled
	}
	c.Refresh()
	require.True(t, c.State().Loading)
	sched.firePending()

	s := c.State()
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Equal(t, before.Results, s.Results)
	assert.Greater(t, s.Version, before.Version)
}

func TestCloseCancelsPendingAndInFlight(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	c.SetQuery("dune")
	c.Close()
	assert.Equal(t, 0, sched.firePending())
	assert.Empty(t, searcher.recorded())

	c.SetQuery("emma")
	assert.Equal(t, "dune", c.State().Query, "edits after close are ignored")
}

func TestCloseDuringFlightDiscardsResult(t *testing.T) {
	c, searcher, sched := setupTestController(t)

	started := make(chan struct{}, 1)
	searcher.respond = func(ctx context.Context, query string, page int) (*catalog.Page, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, catalog.ErrCancelled
	}

	c.SetQuery("dune")
	done := make(chan struct{})
	go func() {
		sched.firePending()
		close(done)
	}()
	<-started
	v := c.State().Version
	c.Close()
	<-done

	assert.Equal(t, v, c.State().Version)
}

func TestSubscribersSeeEveryChange(t *testing.T) {
	c, _, sched := setupTestController(t)

	var mu sync.Mutex
	var seen []State
	unsubscribe := c.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	c.SetQuery("dune")
	sched.firePending()
	unsubscribe()
	c.SetQuery("emma")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	assert.Less(t, seen[0].Version, seen[1].Version)
}

func TestRealSchedulerDebounce(t *testing.T) {
	searcher := &fakeSearcher{}
	c := NewController(searcher, WithDebounce(20*time.Millisecond))
	defer c.Close()

	c.SetQuery("d")
	c.SetQuery("du")
	c.SetQuery("dune")

	require.Eventually(t, func() bool {
		return !c.State().Loading
	}, 2*time.Second, 5*time.Millisecond)

	// give any stray timer a chance to fire
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []call{{"dune", 1}}, searcher.recorded())
}
