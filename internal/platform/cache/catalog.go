package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/store"
)

const keyPrefix = "soright:catalog:"

func questionKey(id string) string { return keyPrefix + "question:" + id }

func modeKey(mode string) string { return keyPrefix + "mode:" + mode }

// CachedCatalog is a read-through decorator over a store.CatalogStore.
// Keys written by this instance bypass the cache for the rest of its life,
// so a unit of work never caches its own uncommitted writes; Flush removes
// them from the backend. Cache failures are logged and fall back to the
// inner store.
type CachedCatalog struct {
	inner   store.CatalogStore
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger
	dirty   map[string]bool
}

var _ store.CatalogStore = (*CachedCatalog)(nil)

// NewCachedCatalog wraps inner.
func NewCachedCatalog(inner store.CatalogStore, backend Backend, ttl time.Duration, logger *slog.Logger) *CachedCatalog {
	if inner == nil {
		panic("inner catalog cannot be nil")
	}
	if backend == nil {
		panic("cache backend cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedCatalog{
		inner:   inner,
		backend: backend,
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "catalog_cache")),
		dirty:   make(map[string]bool),
	}
}

// Get implements store.CatalogStore.
func (c *CachedCatalog) Get(ctx context.Context, id string) (*domain.Question, error) {
	key := questionKey(id)
	var q domain.Question
	if c.load(ctx, key, &q) {
		return &q, nil
	}

	found, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, found)
	return found, nil
}

// GetMany implements store.CatalogStore. Batches always hit the inner store.
func (c *CachedCatalog) GetMany(ctx context.Context, ids []string) (map[string]domain.Question, error) {
	return c.inner.GetMany(ctx, ids)
}

// ListByMode implements store.CatalogStore.
func (c *CachedCatalog) ListByMode(ctx context.Context, mode string) ([]domain.Question, error) {
	key := modeKey(mode)
	var list []domain.Question
	if c.load(ctx, key, &list) {
		return list, nil
	}

	list, err := c.inner.ListByMode(ctx, mode)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, list)
	return list, nil
}

// Insert implements store.CatalogStore.
func (c *CachedCatalog) Insert(ctx context.Context, question *domain.Question) (bool, error) {
	inserted, err := c.inner.Insert(ctx, question)
	if err != nil || !inserted {
		return inserted, err
	}
	c.invalidate(questionKey(question.ID), modeKey(question.Mode))
	return true, nil
}

// UpdateTags implements store.CatalogStore.
func (c *CachedCatalog) UpdateTags(ctx context.Context, id string, tags []string) error {
	existing, err := c.inner.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.inner.UpdateTags(ctx, id, tags); err != nil {
		return err
	}
	c.invalidate(questionKey(id), modeKey(existing.Mode))
	return nil
}

func (c *CachedCatalog) load(ctx context.Context, key string, dest any) bool {
	if c.dirty[key] {
		return false
	}

	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			logger.FromContextOrDefault(ctx, c.logger).Warn("catalog cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("discarding undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

func (c *CachedCatalog) save(ctx context.Context, key string, value any) {
	if c.dirty[key] {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("catalog cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

func (c *CachedCatalog) invalidate(keys ...string) {
	for _, k := range keys {
		c.dirty[k] = true
	}
}

// Flush deletes every key written through c. Call it once the writes are
// committed; deleting earlier lets a concurrent reader cache the old row
// again before the commit lands.
func (c *CachedCatalog) Flush(ctx context.Context) {
	if len(c.dirty) == 0 {
		return
	}
	keys := make([]string, 0, len(c.dirty))
	for k := range c.dirty {
		keys = append(keys, k)
	}
	if err := c.backend.Delete(ctx, keys...); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("catalog cache invalidation failed",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}

// TxManager wraps another store.TxManager so every unit of work sees a
// cached catalog.
type TxManager struct {
	inner   store.TxManager
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger
}

var _ store.TxManager = (*TxManager)(nil)

// NewTxManager creates a TxManager.
func NewTxManager(inner store.TxManager, backend Backend, ttl time.Duration, logger *slog.Logger) *TxManager {
	if inner == nil {
		panic("inner tx manager cannot be nil")
	}
	if backend == nil {
		panic("cache backend cannot be nil")
	}
	return &TxManager{inner: inner, backend: backend, ttl: ttl, logger: logger}
}

// WithinTx implements store.TxManager. Keys written by fn are evicted only
// after the inner transaction commits.
func (m *TxManager) WithinTx(ctx context.Context, fn store.UnitFn) error {
	var catalog *CachedCatalog
	err := m.inner.WithinTx(ctx, func(ctx context.Context, tx *store.Stores) error {
		catalog = NewCachedCatalog(tx.Catalog, m.backend, m.ttl, m.logger)
		wrapped := *tx
		wrapped.Catalog = catalog
		return fn(ctx, &wrapped)
	})
	if err != nil {
		return err
	}
	if catalog != nil {
		catalog.Flush(ctx)
	}
	return nil
}
