package readinglist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/justyntemme/shelf/internal/logger"
	"github.com/justyntemme/shelf/internal/metrics"
	"github.com/justyntemme/shelf/internal/models"
)

// ExportFilename is the name surfaces give to exported reading lists
const ExportFilename = "reading_list.json"

// InvalidImportMessage is shown to the user when an import is rejected
const InvalidImportMessage = "Invalid JSON file"

// ErrInvalidImport reports an import that is not a JSON reading list
var ErrInvalidImport = errors.New("invalid JSON file")

// Store loads and saves the whole reading list
type Store interface {
	Load(ctx context.Context) models.ReadingList
	Save(ctx context.Context, list models.ReadingList)
}

// Manager owns the reading list. Every mutation is persisted before
// subscribers are notified.
type Manager struct {
	mu      sync.Mutex
	store   Store
	entries models.ReadingList

	subMu  sync.Mutex
	subs   map[int]func(models.ReadingList)
	nextID int
}

// NewManager loads the persisted list from store
func NewManager(ctx context.Context, store Store) *Manager {
	entries := store.Load(ctx)
	if entries == nil {
		entries = models.ReadingList{}
	}
	metrics.SetReadingListEntries(len(entries))
	return &Manager{
		store:   store,
		entries: entries,
		subs:    make(map[int]func(models.ReadingList)),
	}
}

// Toggle removes the item if saved, saves it otherwise. Returns the new
// membership.
func (m *Manager) Toggle(ctx context.Context, item models.SearchResultItem) bool {
	key := item.ID()

	m.mu.Lock()
	_, saved := m.entries[key]
	if saved {
		delete(m.entries, key)
	} else {
		m.entries[key] = models.ReadingListEntry{
			Title:   item.Title,
			Authors: append([]string{}, item.AuthorNames...),
			Key:     key,
		}
	}
	snapshot := m.persistLocked(ctx)
	m.mu.Unlock()

	logger.For(ctx).WithField("key", key).WithField("saved", !saved).Debug("reading list toggled")
	m.notify(snapshot)
	return !saved
}

// Remove deletes key. Returns false when it was not present.
func (m *Manager) Remove(ctx context.Context, key string) bool {
	m.mu.Lock()
	if _, ok := m.entries[key]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.entries, key)
	snapshot := m.persistLocked(ctx)
	m.mu.Unlock()

	m.notify(snapshot)
	return true
}

// Has reports whether key is saved
func (m *Manager) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Len returns the number of saved entries
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Snapshot returns a copy of the mapping
func (m *Manager) Snapshot() models.ReadingList {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Clone()
}

// Entries returns saved entries ordered by title, then key
func (m *Manager) Entries() []models.ReadingListEntry {
	m.mu.Lock()
	out := make([]models.ReadingListEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ExportBytes returns the mapping as pretty-printed JSON
func (m *Manager) ExportBytes() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return json.MarshalIndent(m.entries, "", "  ")
}

// Export writes the mapping as pretty-printed JSON to w
func (m *Manager) Export(w io.Writer) error {
	data, err := m.ExportBytes()
	if err != nil {
		return fmt.Errorf("encode reading list: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Import merges a JSON reading list into the current one. Imported entries
// overwrite same-key entries; others are kept. Malformed input returns
// ErrInvalidImport and changes nothing.
func (m *Manager) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read import: %w", err)
	}

	imported, err := decodeImport(data)
	if err != nil {
		logger.For(ctx).WithError(err).Warn("rejected reading list import")
		return 0, ErrInvalidImport
	}

	m.mu.Lock()
	for k, v := range imported {
		if v.Authors == nil {
			v.Authors = []string{}
		}
		m.entries[k] = v
	}
	snapshot := m.persistLocked(ctx)
	m.mu.Unlock()

	logger.For(ctx).WithField("entries", len(imported)).Info("reading list imported")
	m.notify(snapshot)
	return len(imported), nil
}

// Subscribe registers fn for every change; the returned func unsubscribes
func (m *Manager) Subscribe(fn func(models.ReadingList)) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// persistLocked saves the list and returns a snapshot; m.mu must be held
func (m *Manager) persistLocked(ctx context.Context) models.ReadingList {
	m.store.Save(context.WithoutCancel(ctx), m.entries)
	metrics.SetReadingListEntries(len(m.entries))
	return m.entries.Clone()
}

func (m *Manager) notify(list models.ReadingList) {
	m.subMu.Lock()
	fns := make([]func(models.ReadingList), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(list)
	}
}
