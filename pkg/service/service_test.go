package service

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/server/store/storetest"
	"github.com/appboardguru/boardguru/pkg/storage"
)

func TestMain(m *testing.M) {
	audit.DefaultLogger.SetWriter(io.Discard)
	os.Exit(m.Run())
}

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []realtime.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type harness struct {
	svc   *Services
	mocks *storetest.Mocks
	tx    *storetest.TxRunner
	pub   *recordingPublisher
	blobs *storage.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mocks := storetest.New()
	stores := mocks.Stores()
	a, err := authz.New(mocks.Members, mocks.Vaults)
	require.NoError(t, err)

	h := &harness{
		mocks: mocks,
		tx:    stores.Tx.(*storetest.TxRunner),
		pub:   &recordingPublisher{},
		blobs: storage.NewMemoryStore(),
	}
	h.svc = New(Deps{
		Stores:    stores,
		Authz:     a,
		Publisher: h.pub,
		Blobs:     h.blobs,
		Now:       func() time.Time { return fixedNow },
	})
	return h
}

// member registers an active membership for authorization lookups
func (h *harness) member(orgID, userID string, role model.Role) *model.OrganizationMember {
	m := &model.OrganizationMember{
		ID:             "m-" + userID,
		OrganizationID: orgID,
		UserID:         userID,
		Email:          userID + "@example.com",
		Role:           role,
		Status:         model.MemberActive,
	}
	h.mocks.Members.On("Get", anyCtx, orgID, userID).Return(m, nil)
	return m
}

const anyCtx = mock.Anything

func actor(userID string) *identity.Identity {
	return &identity.Identity{UserID: userID, Email: userID + "@example.com"}
}

func assertCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.CodeOf(err), "unexpected error: %v", err)
}

func TestNotFoundAs(t *testing.T) {
	assert.NoError(t, notFoundAs(nil, "meeting", "m-1"))

	err := notFoundAs(store.ErrNotFound, "meeting", "m-1")
	assertCode(t, err, apperr.CodeNotFound)
	assert.Equal(t, "meeting not found", apperr.From(err).Message)
}

func TestNewPageNeverNil(t *testing.T) {
	p := newPage[model.Vault](nil, 0, store.ListOptions{Limit: 10, Offset: 20})
	assert.NotNil(t, p.Items)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 20, p.Offset)
}

func bg() context.Context {
	return context.Background()
}
