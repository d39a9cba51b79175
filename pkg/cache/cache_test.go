package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/server/store/storetest"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newMemoryManager() (*Manager, *clock) {
	c := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := New(nil)
	m.now = c.Now
	return m, c
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemoryManager()

	require.NoError(t, m.Set(ctx, "k", payload{Name: "board", Count: 3}, time.Minute))

	var got payload
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "board", Count: 3}, got)

	ok, err = m.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiredEntryIsNeverReturned(t *testing.T) {
	ctx := context.Background()
	m, c := newMemoryManager()

	require.NoError(t, m.Set(ctx, "k", payload{Name: "x"}, time.Minute))
	c.Advance(time.Minute)

	var got payload
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Stats().Entries)
}

func TestInvalidateTag(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemoryManager()

	require.NoError(t, m.Set(ctx, "a", 1, time.Minute, OrgTag("o1")))
	require.NoError(t, m.Set(ctx, "b", 2, time.Minute, OrgTag("o1"), UserTag("u1")))
	require.NoError(t, m.Set(ctx, "c", 3, time.Minute, OrgTag("o2")))

	m.InvalidateTag(ctx, OrgTag("o1"))

	var v int
	ok, _ := m.Get(ctx, "a", &v)
	assert.False(t, ok)
	ok, _ = m.Get(ctx, "b", &v)
	assert.False(t, ok)
	ok, _ = m.Get(ctx, "c", &v)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	m.Invalidate(ctx, "c")
	ok, _ = m.Get(ctx, "c", &v)
	assert.False(t, ok)
}

func TestGetOrLoadCoalesces(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemoryManager()

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		<-release
		return []string{"a", "b"}, nil
	}

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out []string
			assert.NoError(t, m.GetOrLoad(ctx, "list", time.Minute, &out, loader))
			results[i] = out
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
	for _, r := range results {
		assert.Equal(t, []string{"a", "b"}, r)
	}

	// Served from memory afterwards
	var out []string
	require.NoError(t, m.GetOrLoad(ctx, "list", time.Minute, &out, func(context.Context) (interface{}, error) {
		t.Error("loader should not be called")
		return nil, nil
	}))
}

func TestGetOrLoadError(t *testing.T) {
	m, _ := newMemoryManager()
	boom := errors.New("boom")

	var out int
	err := m.GetOrLoad(context.Background(), "k", time.Minute, &out, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	ok, _ := m.Get(context.Background(), "k", &out)
	assert.False(t, ok)
}

func TestDatabaseLayerFallback(t *testing.T) {
	ctx := context.Background()
	db := &storetest.MockCacheStore{}
	m := New(db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	db.On("Get", ctx, "remote").Return(&model.CacheEntry{
		Key: "remote", Value: []byte(`{"name":"shared","count":1}`), Tags: []string{"org:o1"}, ExpiresAt: now.Add(time.Minute),
	}, nil).Once()
	db.On("Get", ctx, "stale").Return(&model.CacheEntry{
		Key: "stale", Value: []byte(`{}`), ExpiresAt: now.Add(-time.Second),
	}, nil)
	db.On("Get", ctx, "absent").Return(nil, store.ErrNotFound)

	var got payload
	ok, err := m.Get(ctx, "remote", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "shared", got.Name)

	// second read is served by memory
	ok, _ = m.Get(ctx, "remote", &got)
	assert.True(t, ok)

	ok, _ = m.Get(ctx, "stale", &got)
	assert.False(t, ok)
	ok, _ = m.Get(ctx, "absent", &got)
	assert.False(t, ok)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.MemoryHits)
	assert.Equal(t, int64(1), stats.DatabaseHits)
	assert.Equal(t, int64(2), stats.Misses)
	db.AssertExpectations(t)
}

func TestDatabaseLayerErrorsDegrade(t *testing.T) {
	ctx := context.Background()
	db := &storetest.MockCacheStore{}
	m := New(db)

	down := errors.New("connection refused")
	db.On("Set", ctx, mock.AnythingOfType("*model.CacheEntry")).Return(down)
	db.On("Get", ctx, "other").Return(nil, down)
	db.On("DeleteByTag", ctx, "org:o1").Return(down).Once()

	require.NoError(t, m.Set(ctx, "k", 1, time.Minute, "org:o1"))

	var v int
	ok, err := m.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Get(ctx, "other", &v)
	require.NoError(t, err)
	assert.False(t, ok)

	// the row survives in the database because the tag deletion failed
	db.On("Get", ctx, "k").Return(&model.CacheEntry{
		Key: "k", Value: []byte("1"), Tags: []string{"org:o1"}, ExpiresAt: time.Now().Add(time.Hour),
	}, nil)

	m.InvalidateTag(ctx, "org:o1")
	ok, _ = m.Get(ctx, "k", &v)
	assert.False(t, ok)

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.LayerErrors)
	assert.Equal(t, int64(0), stats.DatabaseHits)
	assert.Equal(t, 1, stats.PendingTags)

	// the next sweep retries the deletion
	db.On("DeleteExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	db.On("DeleteByTag", ctx, "org:o1").Return(nil).Once()
	m.Sweep(ctx)
	assert.Equal(t, 0, m.Stats().PendingTags)
	db.AssertExpectations(t)
}

type recordingPeers struct {
	mu   sync.Mutex
	keys []string
	tags []string
}

func (p *recordingPeers) BroadcastInvalidation(_ context.Context, key, tag string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if key != "" {
		p.keys = append(p.keys, key)
	}
	if tag != "" {
		p.tags = append(p.tags, tag)
	}
	return nil
}

func TestInvalidationsReachPeers(t *testing.T) {
	ctx := context.Background()
	local, _ := newMemoryManager()
	remote, _ := newMemoryManager()
	peers := &recordingPeers{}
	local.SetBroadcaster(peers)

	for _, m := range []*Manager{local, remote} {
		require.NoError(t, m.Set(ctx, "orgs:alice", 1, time.Minute, "org:o1"))
		require.NoError(t, m.Set(ctx, "profile:alice", 2, time.Minute))
	}

	local.InvalidateTag(ctx, "org:o1")
	local.Invalidate(ctx, "profile:alice")
	assert.Equal(t, []string{"org:o1"}, peers.tags)
	assert.Equal(t, []string{"profile:alice"}, peers.keys)

	// the receiving side only drops its memory copy
	for _, tag := range peers.tags {
		remote.DropTag(tag)
	}
	for _, key := range peers.keys {
		remote.DropKey(key)
	}
	var v int
	ok, _ := remote.Get(ctx, "orgs:alice", &v)
	assert.False(t, ok)
	ok, _ = remote.Get(ctx, "profile:alice", &v)
	assert.False(t, ok)
	assert.Equal(t, 0, remote.Stats().Entries)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	db := &storetest.MockCacheStore{}
	m := New(db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	db.On("Set", ctx, mock.Anything).Return(nil)
	db.On("DeleteExpired", ctx, now.Add(2*time.Minute)).Return(int64(1), nil)

	require.NoError(t, m.Set(ctx, "short", 1, time.Minute))
	require.NoError(t, m.Set(ctx, "long", 2, time.Hour))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, m.Sweep(ctx))
	assert.Equal(t, 1, m.Stats().Entries)
	db.AssertExpectations(t)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "orgs:u1:50:0", Key("orgs", "u1", "50", "0"))
	assert.Equal(t, "org:o1", OrgTag("o1"))
	assert.Equal(t, "user:u1", UserTag("u1"))
}
