// Package storetest provides testify mocks of the store interfaces for
// service and endpoint tests.
package storetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Mocks holds one mock per store. Stores returns them as a store.Stores
// bundle whose TxRunner runs the callback with the same mocks.
type Mocks struct {
	Organizations *MockOrganizationsStore
	Members       *MockMembersStore
	Invitations   *MockInvitationsStore
	Vaults        *MockVaultsStore
	Assets        *MockAssetsStore
	Annotations   *MockAnnotationsStore
	Meetings      *MockMeetingsStore
	ActionItems   *MockActionItemsStore
	Compliance    *MockComplianceStore
	Notifications *MockNotificationsStore
	Audit         *MockAuditStore
	Jobs          *MockJobsStore
	Cache         *MockCacheStore
	Health        *MockHealthStore
}

// New creates a fresh set of mocks
func New() *Mocks {
	return &Mocks{
		Organizations: &MockOrganizationsStore{},
		Members:       &MockMembersStore{},
		Invitations:   &MockInvitationsStore{},
		Vaults:        &MockVaultsStore{},
		Assets:        &MockAssetsStore{},
		Annotations:   &MockAnnotationsStore{},
		Meetings:      &MockMeetingsStore{},
		ActionItems:   &MockActionItemsStore{},
		Compliance:    &MockComplianceStore{},
		Notifications: &MockNotificationsStore{},
		Audit:         &MockAuditStore{},
		Jobs:          &MockJobsStore{},
		Cache:         &MockCacheStore{},
		Health:        &MockHealthStore{},
	}
}

// Stores returns the mocks as a store bundle
func (m *Mocks) Stores() store.Stores {
	s := store.Stores{
		Organizations: m.Organizations,
		Members:       m.Members,
		Invitations:   m.Invitations,
		Vaults:        m.Vaults,
		Assets:        m.Assets,
		Annotations:   m.Annotations,
		Meetings:      m.Meetings,
		ActionItems:   m.ActionItems,
		Compliance:    m.Compliance,
		Notifications: m.Notifications,
		Audit:         m.Audit,
		Jobs:          m.Jobs,
		Cache:         m.Cache,
		Health:        m.Health,
	}
	s.Tx = &TxRunner{stores: &s}
	return s
}

// AssertExpectations asserts the expectations of every mock
func (m *Mocks) AssertExpectations(t mock.TestingT) {
	m.Organizations.AssertExpectations(t)
	m.Members.AssertExpectations(t)
	m.Invitations.AssertExpectations(t)
	m.Vaults.AssertExpectations(t)
	m.Assets.AssertExpectations(t)
	m.Annotations.AssertExpectations(t)
	m.Meetings.AssertExpectations(t)
	m.ActionItems.AssertExpectations(t)
	m.Compliance.AssertExpectations(t)
	m.Notifications.AssertExpectations(t)
	m.Audit.AssertExpectations(t)
	m.Jobs.AssertExpectations(t)
	m.Cache.AssertExpectations(t)
	m.Health.AssertExpectations(t)
}

// TxRunner runs transactions against the mocks without a database. It
// records how many transactions ran and whether the last one rolled back.
type TxRunner struct {
	stores     *store.Stores
	Calls      int
	RolledBack bool
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(tx store.Stores) error) error {
	r.Calls++
	err := fn(*r.stores)
	r.RolledBack = err != nil
	return err
}

func list[T any](args mock.Arguments) ([]T, int64, error) {
	var items []T
	if v := args.Get(0); v != nil {
		items = v.([]T)
	}
	return items, args.Get(1).(int64), args.Error(2)
}

func one[T any](args mock.Arguments) (*T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func many[T any](args mock.Arguments) ([]T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

// MockOrganizationsStore implements store.OrganizationsStore
type MockOrganizationsStore struct{ mock.Mock }

func (m *MockOrganizationsStore) Create(ctx context.Context, org *model.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationsStore) Get(ctx context.Context, id string) (*model.Organization, error) {
	return one[model.Organization](m.Called(ctx, id))
}

func (m *MockOrganizationsStore) GetBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	return one[model.Organization](m.Called(ctx, slug))
}

func (m *MockOrganizationsStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrganizationsStore) ListForUser(ctx context.Context, userID string, opts store.ListOptions) ([]model.Organization, int64, error) {
	return list[model.Organization](m.Called(ctx, userID, opts))
}

func (m *MockOrganizationsStore) Update(ctx context.Context, org *model.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationsStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockMembersStore implements store.MembersStore
type MockMembersStore struct{ mock.Mock }

func (m *MockMembersStore) Add(ctx context.Context, member *model.OrganizationMember) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockMembersStore) Get(ctx context.Context, orgID, userID string) (*model.OrganizationMember, error) {
	return one[model.OrganizationMember](m.Called(ctx, orgID, userID))
}

func (m *MockMembersStore) List(ctx context.Context, orgID string, opts store.ListOptions) ([]model.OrganizationMember, int64, error) {
	return list[model.OrganizationMember](m.Called(ctx, orgID, opts))
}

func (m *MockMembersStore) ActiveUserIDs(ctx context.Context, orgID string) ([]string, error) {
	return many[string](m.Called(ctx, orgID))
}

func (m *MockMembersStore) OrganizationIDs(ctx context.Context, userID string) ([]string, error) {
	return many[string](m.Called(ctx, userID))
}

func (m *MockMembersStore) FindByEmail(ctx context.Context, orgID, email string) (*model.OrganizationMember, error) {
	return one[model.OrganizationMember](m.Called(ctx, orgID, email))
}

func (m *MockMembersStore) UpdateRole(ctx context.Context, orgID, userID string, role model.Role) error {
	return m.Called(ctx, orgID, userID, role).Error(0)
}

func (m *MockMembersStore) UpdateStatus(ctx context.Context, orgID, userID string, status model.MemberStatus) error {
	return m.Called(ctx, orgID, userID, status).Error(0)
}

func (m *MockMembersStore) Remove(ctx context.Context, orgID, userID string) error {
	return m.Called(ctx, orgID, userID).Error(0)
}

func (m *MockMembersStore) CountOwners(ctx context.Context, orgID string) (int64, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(int64), args.Error(1)
}

// MockInvitationsStore implements store.InvitationsStore
type MockInvitationsStore struct{ mock.Mock }

func (m *MockInvitationsStore) Create(ctx context.Context, inv *model.Invitation) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvitationsStore) Get(ctx context.Context, id string) (*model.Invitation, error) {
	return one[model.Invitation](m.Called(ctx, id))
}

func (m *MockInvitationsStore) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	return one[model.Invitation](m.Called(ctx, token))
}

func (m *MockInvitationsStore) FindPending(ctx context.Context, orgID, email string) (*model.Invitation, error) {
	return one[model.Invitation](m.Called(ctx, orgID, email))
}

func (m *MockInvitationsStore) ListPending(ctx context.Context, orgID string, opts store.ListOptions) ([]model.Invitation, int64, error) {
	return list[model.Invitation](m.Called(ctx, orgID, opts))
}

func (m *MockInvitationsStore) Update(ctx context.Context, inv *model.Invitation) error {
	return m.Called(ctx, inv).Error(0)
}

// MockVaultsStore implements store.VaultsStore
type MockVaultsStore struct{ mock.Mock }

func (m *MockVaultsStore) Create(ctx context.Context, vault *model.Vault) error {
	return m.Called(ctx, vault).Error(0)
}

func (m *MockVaultsStore) Get(ctx context.Context, id string) (*model.Vault, error) {
	return one[model.Vault](m.Called(ctx, id))
}

func (m *MockVaultsStore) List(ctx context.Context, orgID string, opts store.ListOptions) ([]model.Vault, int64, error) {
	return list[model.Vault](m.Called(ctx, orgID, opts))
}

func (m *MockVaultsStore) ListForMember(ctx context.Context, orgID, userID string, opts store.ListOptions) ([]model.Vault, int64, error) {
	return list[model.Vault](m.Called(ctx, orgID, userID, opts))
}

func (m *MockVaultsStore) Update(ctx context.Context, vault *model.Vault) error {
	return m.Called(ctx, vault).Error(0)
}

func (m *MockVaultsStore) SetMember(ctx context.Context, member *model.VaultMember) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockVaultsStore) GetMember(ctx context.Context, vaultID, userID string) (*model.VaultMember, error) {
	return one[model.VaultMember](m.Called(ctx, vaultID, userID))
}

func (m *MockVaultsStore) ListMembers(ctx context.Context, vaultID string) ([]model.VaultMember, error) {
	return many[model.VaultMember](m.Called(ctx, vaultID))
}

func (m *MockVaultsStore) RemoveMember(ctx context.Context, vaultID, userID string) error {
	return m.Called(ctx, vaultID, userID).Error(0)
}

// MockAssetsStore implements store.AssetsStore
type MockAssetsStore struct{ mock.Mock }

func (m *MockAssetsStore) Create(ctx context.Context, asset *model.Asset) error {
	return m.Called(ctx, asset).Error(0)
}

func (m *MockAssetsStore) Get(ctx context.Context, id string) (*model.Asset, error) {
	return one[model.Asset](m.Called(ctx, id))
}

func (m *MockAssetsStore) GetMany(ctx context.Context, orgID string, ids []string) ([]model.Asset, error) {
	return many[model.Asset](m.Called(ctx, orgID, ids))
}

func (m *MockAssetsStore) List(ctx context.Context, vaultID string, opts store.ListOptions) ([]model.Asset, int64, error) {
	return list[model.Asset](m.Called(ctx, vaultID, opts))
}

func (m *MockAssetsStore) SetSummary(ctx context.Context, id, summary string) error {
	return m.Called(ctx, id, summary).Error(0)
}

func (m *MockAssetsStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockAnnotationsStore implements store.AnnotationsStore
type MockAnnotationsStore struct{ mock.Mock }

func (m *MockAnnotationsStore) Create(ctx context.Context, a *model.Annotation) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnnotationsStore) Get(ctx context.Context, id string) (*model.Annotation, error) {
	return one[model.Annotation](m.Called(ctx, id))
}

func (m *MockAnnotationsStore) ListByAsset(ctx context.Context, assetID string) ([]model.Annotation, error) {
	return many[model.Annotation](m.Called(ctx, assetID))
}

func (m *MockAnnotationsStore) Update(ctx context.Context, a *model.Annotation) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnnotationsStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockMeetingsStore implements store.MeetingsStore
type MockMeetingsStore struct{ mock.Mock }

func (m *MockMeetingsStore) Create(ctx context.Context, meeting *model.BoardMeeting) error {
	return m.Called(ctx, meeting).Error(0)
}

func (m *MockMeetingsStore) Get(ctx context.Context, id string) (*model.BoardMeeting, error) {
	return one[model.BoardMeeting](m.Called(ctx, id))
}

func (m *MockMeetingsStore) List(ctx context.Context, orgID string, filter store.MeetingFilter, opts store.ListOptions) ([]model.BoardMeeting, int64, error) {
	return list[model.BoardMeeting](m.Called(ctx, orgID, filter, opts))
}

func (m *MockMeetingsStore) Update(ctx context.Context, meeting *model.BoardMeeting) error {
	return m.Called(ctx, meeting).Error(0)
}

func (m *MockMeetingsStore) Transition(ctx context.Context, meeting *model.BoardMeeting, from model.MeetingStatus) error {
	return m.Called(ctx, meeting, from).Error(0)
}

func (m *MockMeetingsStore) SetMinutes(ctx context.Context, id, minutes string) error {
	return m.Called(ctx, id, minutes).Error(0)
}

func (m *MockMeetingsStore) AppendTranscript(ctx context.Context, segments []model.TranscriptSegment) error {
	return m.Called(ctx, segments).Error(0)
}

func (m *MockMeetingsStore) Transcript(ctx context.Context, meetingID string) ([]model.TranscriptSegment, error) {
	return many[model.TranscriptSegment](m.Called(ctx, meetingID))
}

func (m *MockMeetingsStore) LastSequence(ctx context.Context, meetingID string) (int, error) {
	args := m.Called(ctx, meetingID)
	return args.Int(0), args.Error(1)
}

// MockActionItemsStore implements store.ActionItemsStore
type MockActionItemsStore struct{ mock.Mock }

func (m *MockActionItemsStore) Create(ctx context.Context, item *model.ActionItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockActionItemsStore) Get(ctx context.Context, id string) (*model.ActionItem, error) {
	return one[model.ActionItem](m.Called(ctx, id))
}

func (m *MockActionItemsStore) List(ctx context.Context, orgID string, filter store.ActionItemFilter, opts store.ListOptions) ([]model.ActionItem, int64, error) {
	return list[model.ActionItem](m.Called(ctx, orgID, filter, opts))
}

func (m *MockActionItemsStore) Update(ctx context.Context, item *model.ActionItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockActionItemsStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockComplianceStore implements store.ComplianceStore
type MockComplianceStore struct{ mock.Mock }

func (m *MockComplianceStore) Create(ctx context.Context, req *model.ComplianceRequirement) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockComplianceStore) Get(ctx context.Context, id string) (*model.ComplianceRequirement, error) {
	return one[model.ComplianceRequirement](m.Called(ctx, id))
}

func (m *MockComplianceStore) List(ctx context.Context, orgID string, opts store.ListOptions) ([]model.ComplianceRequirement, int64, error) {
	return list[model.ComplianceRequirement](m.Called(ctx, orgID, opts))
}

func (m *MockComplianceStore) Update(ctx context.Context, req *model.ComplianceRequirement) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockComplianceStore) ListOverdue(ctx context.Context, orgID string, now time.Time) ([]model.ComplianceRequirement, error) {
	return many[model.ComplianceRequirement](m.Called(ctx, orgID, now))
}

func (m *MockComplianceStore) CountByStatus(ctx context.Context, orgID string) (map[model.ComplianceStatus]int64, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.ComplianceStatus]int64), args.Error(1)
}

func (m *MockComplianceStore) CountOpenDueBetween(ctx context.Context, orgID string, from, to time.Time) (int64, error) {
	args := m.Called(ctx, orgID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotificationsStore implements store.NotificationsStore
type MockNotificationsStore struct{ mock.Mock }

func (m *MockNotificationsStore) Create(ctx context.Context, n *model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationsStore) List(ctx context.Context, userID string, filter store.NotificationFilter, opts store.ListOptions) ([]model.Notification, int64, error) {
	return list[model.Notification](m.Called(ctx, userID, filter, opts))
}

func (m *MockNotificationsStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationsStore) MarkRead(ctx context.Context, userID string, ids []string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, ids, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationsStore) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationsStore) Archive(ctx context.Context, userID, id string, at time.Time) error {
	return m.Called(ctx, userID, id, at).Error(0)
}

// MockAuditStore implements store.AuditStore
type MockAuditStore struct{ mock.Mock }

func (m *MockAuditStore) List(ctx context.Context, orgID string, filter store.AuditFilter, opts store.ListOptions) ([]model.AuditLog, int64, error) {
	return list[model.AuditLog](m.Called(ctx, orgID, filter, opts))
}

// MockJobsStore implements store.JobsStore
type MockJobsStore struct{ mock.Mock }

func (m *MockJobsStore) Create(ctx context.Context, job *model.AIJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *MockJobsStore) Get(ctx context.Context, id string) (*model.AIJob, error) {
	return one[model.AIJob](m.Called(ctx, id))
}

func (m *MockJobsStore) FindActive(ctx context.Context, jobType model.JobType, resourceID string) (*model.AIJob, error) {
	return one[model.AIJob](m.Called(ctx, jobType, resourceID))
}

func (m *MockJobsStore) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]model.AIJob, error) {
	return many[model.AIJob](m.Called(ctx, now, lease, limit))
}

func (m *MockJobsStore) Complete(ctx context.Context, id string, result model.JSON) error {
	return m.Called(ctx, id, result).Error(0)
}

func (m *MockJobsStore) Reschedule(ctx context.Context, id string, attempts int, runAfter time.Time, lastErr string) error {
	return m.Called(ctx, id, attempts, runAfter, lastErr).Error(0)
}

func (m *MockJobsStore) Fail(ctx context.Context, id string, attempts int, lastErr string) error {
	return m.Called(ctx, id, attempts, lastErr).Error(0)
}

// MockCacheStore implements store.CacheStore
type MockCacheStore struct{ mock.Mock }

func (m *MockCacheStore) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	return one[model.CacheEntry](m.Called(ctx, key))
}

func (m *MockCacheStore) Set(ctx context.Context, entry *model.CacheEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockCacheStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheStore) DeleteByTag(ctx context.Context, tag string) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *MockCacheStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockHealthStore implements store.HealthStore
type MockHealthStore struct{ mock.Mock }

func (m *MockHealthStore) CheckConnectivity(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var (
	_ store.OrganizationsStore = (*MockOrganizationsStore)(nil)
	_ store.MembersStore       = (*MockMembersStore)(nil)
	_ store.InvitationsStore   = (*MockInvitationsStore)(nil)
	_ store.VaultsStore        = (*MockVaultsStore)(nil)
	_ store.AssetsStore        = (*MockAssetsStore)(nil)
	_ store.AnnotationsStore   = (*MockAnnotationsStore)(nil)
	_ store.MeetingsStore      = (*MockMeetingsStore)(nil)
	_ store.ActionItemsStore   = (*MockActionItemsStore)(nil)
	_ store.ComplianceStore    = (*MockComplianceStore)(nil)
	_ store.NotificationsStore = (*MockNotificationsStore)(nil)
	_ store.AuditStore         = (*MockAuditStore)(nil)
	_ store.JobsStore          = (*MockJobsStore)(nil)
	_ store.CacheStore         = (*MockCacheStore)(nil)
	_ store.HealthStore        = (*MockHealthStore)(nil)
	_ store.TxRunner           = (*TxRunner)(nil)
)
