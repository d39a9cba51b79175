package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/metrics"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Loader produces the value for a cache miss.
type Loader func(ctx context.Context) (interface{}, error)

type entry struct {
	value     []byte
	tags      []string
	expiresAt time.Time
}

// Stats tracks cache performance
type Stats struct {
	Entries      int   `json:"entries"`
	MemoryHits   int64 `json:"memory_hits"`
	DatabaseHits int64 `json:"database_hits"`
	Misses       int64 `json:"misses"`
	LayerErrors  int64 `json:"layer_errors"`
	PendingTags  int   `json:"pending_tags"`
}

// Broadcaster tells other instances to drop a key or a tag from their
// memory layer. Exactly one of key and tag is set.
type Broadcaster interface {
	BroadcastInvalidation(ctx context.Context, key, tag string) error
}

// Manager is a memory cache with an optional database layer behind it
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	tags    map[string]map[string]struct{}
	// tags whose database deletion failed; rows carrying them are not served
	pending map[string]struct{}

	db    store.CacheStore
	peers Broadcaster
	group singleflight.Group
	now   func() time.Time
	log   zerolog.Logger

	memoryHits   atomic.Int64
	databaseHits atomic.Int64
	misses       atomic.Int64
	layerErrors  atomic.Int64
}

// New creates a cache manager. db may be nil for a memory-only cache.
func New(db store.CacheStore) *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		tags:    make(map[string]map[string]struct{}),
		pending: make(map[string]struct{}),
		db:      db,
		now:     time.Now,
		log:     logging.With("cache"),
	}
}

// SetBroadcaster relays invalidations to other instances. It must be
// called before the manager is shared.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.peers = b
}

// Key joins parts into a cache key
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// OrgTag tags entries derived from an organization's data.
func OrgTag(orgID string) string {
	return "org:" + orgID
}

// UserTag tags entries specific to one user.
func UserTag(userID string) string {
	return "user:" + userID
}

// Get reads key into dst. It reports whether the key was found.
func (m *Manager) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, ok := m.lookup(ctx, key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores v under key for ttl. A non-positive ttl uses the configured
// default.
func (m *Manager) Set(ctx context.Context, key string, v interface{}, ttl time.Duration, tags ...string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.setRaw(ctx, key, data, m.ttl(ttl), tags)
	return nil
}

// GetOrLoad reads key into dst, calling loader on a miss. Concurrent misses
// for the same key share one loader call.
func (m *Manager) GetOrLoad(ctx context.Context, key string, ttl time.Duration, dst interface{}, loader Loader, tags ...string) error {
	if data, ok := m.lookup(ctx, key); ok {
		return json.Unmarshal(data, dst)
	}

	res, err, _ := m.group.Do(key, func() (interface{}, error) {
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		m.setRaw(ctx, key, data, m.ttl(ttl), tags)
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(res.([]byte), dst)
}

// Invalidate removes key from every layer and from the memory of the
// other instances
func (m *Manager) Invalidate(ctx context.Context, key string) {
	m.DropKey(key)

	if m.db != nil {
		if err := m.db.Delete(ctx, key); err != nil {
			m.layerError(err, "delete", key)
		}
	}
	m.broadcast(ctx, key, "")
}

// InvalidateTag removes every entry carrying tag from every layer and from
// the memory of the other instances. When the database deletion fails the
// tag stays pending: database rows carrying it are ignored until a sweep
// manages to delete them.
func (m *Manager) InvalidateTag(ctx context.Context, tag string) {
	m.DropTag(tag)

	if m.db != nil {
		if err := m.db.DeleteByTag(ctx, tag); err != nil {
			m.layerError(err, "delete_by_tag", tag)
			m.mu.Lock()
			m.pending[tag] = struct{}{}
			m.mu.Unlock()
		}
	}
	m.broadcast(ctx, "", tag)
}

// DropKey removes key from the memory layer only. It applies invalidations
// received from other instances, which already cleared the database layer.
func (m *Manager) DropKey(key string) {
	m.mu.Lock()
	m.removeLocked(key)
	m.mu.Unlock()
}

// DropTag removes the entries carrying tag from the memory layer only
func (m *Manager) DropTag(tag string) {
	m.mu.Lock()
	for key := range m.tags[tag] {
		m.removeLocked(key)
	}
	delete(m.tags, tag)
	m.mu.Unlock()
}

func (m *Manager) broadcast(ctx context.Context, key, tag string) {
	if m.peers == nil {
		return
	}
	if err := m.peers.BroadcastInvalidation(ctx, key, tag); err != nil {
		m.log.Warn().Err(err).Str("key", key).Str("tag", tag).Msg("failed to broadcast cache invalidation")
	}
}

// Sweep drops expired entries from memory and the database layer. It
// returns the number of memory entries removed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()

	m.mu.Lock()
	removed := 0
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			m.removeLocked(key)
			removed++
		}
	}
	m.mu.Unlock()

	if m.db != nil {
		if n, err := m.db.DeleteExpired(ctx, now); err != nil {
			m.layerError(err, "delete_expired", "")
		} else if n > 0 {
			m.log.Debug().Int64("count", n).Msg("expired database cache entries removed")
		}
		m.retryPending(ctx)
	}
	return removed
}

func (m *Manager) retryPending(ctx context.Context) {
	m.mu.RLock()
	tags := make([]string, 0, len(m.pending))
	for tag := range m.pending {
		tags = append(tags, tag)
	}
	m.mu.RUnlock()

	for _, tag := range tags {
		if err := m.db.DeleteByTag(ctx, tag); err != nil {
			m.layerError(err, "delete_by_tag", tag)
			continue
		}
		m.mu.Lock()
		delete(m.pending, tag)
		m.mu.Unlock()
	}
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Stats returns a snapshot of cache statistics
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	n, pending := len(m.entries), len(m.pending)
	m.mu.RUnlock()

	return Stats{
		Entries:      n,
		MemoryHits:   m.memoryHits.Load(),
		DatabaseHits: m.databaseHits.Load(),
		Misses:       m.misses.Load(),
		LayerErrors:  m.layerErrors.Load(),
		PendingTags:  pending,
	}
}

func (m *Manager) ttl(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return config.Get().CacheTTL()
}

func (m *Manager) lookup(ctx context.Context, key string) ([]byte, bool) {
	now := m.now()

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		if now.Before(e.expiresAt) {
			m.memoryHits.Add(1)
			metrics.CacheHits.WithLabelValues("memory").Inc()
			return e.value, true
		}
		m.mu.Lock()
		if cur, still := m.entries[key]; still && !now.Before(cur.expiresAt) {
			m.removeLocked(key)
		}
		m.mu.Unlock()
	}

	if m.db != nil {
		row, err := m.db.Get(ctx, key)
		switch {
		case err == nil && now.Before(row.ExpiresAt) && !m.isPending(row.Tags):
			m.databaseHits.Add(1)
			metrics.CacheHits.WithLabelValues("database").Inc()
			m.setMemory(key, row.Value, row.ExpiresAt, row.Tags)
			return row.Value, true
		case err != nil && !errors.Is(err, store.ErrNotFound):
			m.layerError(err, "get", key)
		}
	}

	m.misses.Add(1)
	metrics.CacheMisses.Inc()
	return nil, false
}

func (m *Manager) isPending(tags []string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tag := range tags {
		if _, ok := m.pending[tag]; ok {
			return true
		}
	}
	return false
}

func (m *Manager) setRaw(ctx context.Context, key string, data []byte, ttl time.Duration, tags []string) {
	expiresAt := m.now().Add(ttl)
	m.setMemory(key, data, expiresAt, tags)

	if m.db != nil {
		row := &model.CacheEntry{Key: key, Value: data, Tags: tags, ExpiresAt: expiresAt}
		if err := m.db.Set(ctx, row); err != nil {
			m.layerError(err, "set", key)
		}
	}
}

func (m *Manager) setMemory(key string, data []byte, expiresAt time.Time, tags []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(key)
	m.entries[key] = &entry{value: data, tags: tags, expiresAt: expiresAt}
	for _, tag := range tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	metrics.CacheEntries.Set(float64(len(m.entries)))
}

// removeLocked deletes key and its tag index entries. m.mu must be held.
func (m *Manager) removeLocked(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	for _, tag := range e.tags {
		if keys, ok := m.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.tags, tag)
			}
		}
	}
	metrics.CacheEntries.Set(float64(len(m.entries)))
}

func (m *Manager) layerError(err error, op, key string) {
	m.layerErrors.Add(1)
	metrics.CacheLayerErrors.Inc()
	m.log.Warn().Err(err).Str("op", op).Str("key", key).Msg("database cache layer failed")
}
