package storage

import (
	"context"
	"encoding/json"

	"github.com/justyntemme/shelf/internal/logger"
	"github.com/justyntemme/shelf/internal/models"
)

// ReadingListKey is the fixed storage key holding the reading list
const ReadingListKey = "readingList"

// KV is a durable string key-value store
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Adapter persists the reading list under ReadingListKey. It never returns
// errors: failed loads degrade to an empty list and failed saves are logged.
type Adapter struct {
	kv KV
}

// NewAdapter wraps kv
func NewAdapter(kv KV) *Adapter {
	return &Adapter{kv: kv}
}

// Load returns the persisted reading list, or an empty one
func (a *Adapter) Load(ctx context.Context) models.ReadingList {
	raw, found, err := a.kv.Get(ctx, ReadingListKey)
	if err != nil {
		logger.For(ctx).WithError(err).Warn("failed to read reading list, starting empty")
		return models.ReadingList{}
	}
	if !found {
		return models.ReadingList{}
	}

	list := models.ReadingList{}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.For(ctx).WithError(err).Warn("stored reading list is not valid JSON, starting empty")
		return models.ReadingList{}
	}
	if list == nil {
		// stored literal "null"
		return models.ReadingList{}
	}
	return list
}

// Save writes list as JSON, best-effort
func (a *Adapter) Save(ctx context.Context, list models.ReadingList) {
	if list == nil {
		list = models.ReadingList{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		logger.For(ctx).WithError(err).Error("failed to encode reading list")
		return
	}
	if err := a.kv.Set(ctx, ReadingListKey, string(data)); err != nil {
		logger.For(ctx).WithError(err).Error("failed to persist reading list")
	}
}
