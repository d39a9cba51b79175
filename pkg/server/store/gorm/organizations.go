package gorm

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Ensure OrganizationsStore implements store.OrganizationsStore
var _ store.OrganizationsStore = (*OrganizationsStore)(nil)

// OrganizationsStore implements store.OrganizationsStore using GORM
type OrganizationsStore struct {
	db *gorm.DB
}

// NewOrganizationsStore creates a new OrganizationsStore
func NewOrganizationsStore(db *gorm.DB) *OrganizationsStore {
	return &OrganizationsStore{db: db}
}

var organizationSorts = map[string]string{
	"name":       "organizations.name",
	"created_at": "organizations.created_at",
}

func (s *OrganizationsStore) Create(ctx context.Context, org *model.Organization) error {
	return mapErr(s.db.WithContext(ctx).Create(org).Error)
}

func (s *OrganizationsStore) Get(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, mapErr(err)
	}
	return &org, nil
}

func (s *OrganizationsStore) GetBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	var org model.Organization
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, mapErr(err)
	}
	return &org, nil
}

// SlugExists includes soft deleted organizations so slugs are never reused
func (s *OrganizationsStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Unscoped().
		Model(&model.Organization{}).
		Where("slug = ?", slug).
		Count(&n).Error
	return n > 0, mapErr(err)
}

func (s *OrganizationsStore) ListForUser(ctx context.Context, userID string, opts store.ListOptions) ([]model.Organization, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.Organization{}).
		Joins("JOIN organization_members m ON m.organization_id = organizations.id AND m.user_id = ? AND m.status = ?",
			userID, model.MemberActive)
	if opts.Search != "" {
		q = q.Where("organizations.name ILIKE ?", likePattern(opts.Search))
	}
	return listPage[model.Organization](q, opts, organizationSorts, "organizations.name")
}

func (s *OrganizationsStore) Update(ctx context.Context, org *model.Organization) error {
	result := s.db.WithContext(ctx).
		Model(&model.Organization{}).
		Where("id = ?", org.ID).
		Updates(map[string]interface{}{
			"name":        strings.TrimSpace(org.Name),
			"description": org.Description,
			"website":     org.Website,
			"industry":    org.Industry,
			"size":        org.Size,
			"settings":    org.Settings,
			"is_active":   org.IsActive,
		})
	return affected(result)
}

func (s *OrganizationsStore) Delete(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Organization{}))
}

// Ensure MembersStore implements store.MembersStore
var _ store.MembersStore = (*MembersStore)(nil)

// MembersStore implements store.MembersStore using GORM
type MembersStore struct {
	db *gorm.DB
}

// NewMembersStore creates a new MembersStore
func NewMembersStore(db *gorm.DB) *MembersStore {
	return &MembersStore{db: db}
}

var memberSorts = map[string]string{
	"email":     "email",
	"role":      "role",
	"joined_at": "joined_at",
}

func (s *MembersStore) Add(ctx context.Context, member *model.OrganizationMember) error {
	return mapErr(s.db.WithContext(ctx).Create(member).Error)
}

func (s *MembersStore) Get(ctx context.Context, orgID, userID string) (*model.OrganizationMember, error) {
	var m model.OrganizationMember
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&m).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *MembersStore) List(ctx context.Context, orgID string, opts store.ListOptions) ([]model.OrganizationMember, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.OrganizationMember{}).
		Where("organization_id = ?", orgID)
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.Search != "" {
		q = q.Where("email ILIKE ?", likePattern(opts.Search))
	}
	return listPage[model.OrganizationMember](q, opts, memberSorts, "joined_at")
}

func (s *MembersStore) ActiveUserIDs(ctx context.Context, orgID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&model.OrganizationMember{}).
		Where("organization_id = ? AND status = ?", orgID, model.MemberActive).
		Pluck("user_id", &ids).Error
	return ids, mapErr(err)
}

func (s *MembersStore) OrganizationIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&model.OrganizationMember{}).
		Where("user_id = ? AND status = ?", userID, model.MemberActive).
		Pluck("organization_id", &ids).Error
	return ids, mapErr(err)
}

func (s *MembersStore) FindByEmail(ctx context.Context, orgID, email string) (*model.OrganizationMember, error) {
	var m model.OrganizationMember
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND lower(email) = lower(?)", orgID, email).
		First(&m).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *MembersStore) UpdateRole(ctx context.Context, orgID, userID string, role model.Role) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Update("role", role))
}

func (s *MembersStore) UpdateStatus(ctx context.Context, orgID, userID string, status model.MemberStatus) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Update("status", status))
}

func (s *MembersStore) Remove(ctx context.Context, orgID, userID string) error {
	return affected(s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&model.OrganizationMember{}))
}

// CountOwners selects the owner rows FOR UPDATE: Postgres refuses row locks
// on aggregates, so they are counted here. A concurrent demotion blocks on
// the lock and then sees the committed role.
func (s *MembersStore) CountOwners(ctx context.Context, orgID string) (int64, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&model.OrganizationMember{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ? AND role = ? AND status = ?", orgID, model.RoleOwner, model.MemberActive).
		Pluck("id", &ids).Error
	return int64(len(ids)), mapErr(err)
}

// Ensure InvitationsStore implements store.InvitationsStore
var _ store.InvitationsStore = (*InvitationsStore)(nil)

// InvitationsStore implements store.InvitationsStore using GORM
type InvitationsStore struct {
	db *gorm.DB
}

// NewInvitationsStore creates a new InvitationsStore
func NewInvitationsStore(db *gorm.DB) *InvitationsStore {
	return &InvitationsStore{db: db}
}

func (s *InvitationsStore) Create(ctx context.Context, inv *model.Invitation) error {
	return mapErr(s.db.WithContext(ctx).Create(inv).Error)
}

func (s *InvitationsStore) Get(ctx context.Context, id string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (s *InvitationsStore) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (s *InvitationsStore) FindPending(ctx context.Context, orgID, email string) (*model.Invitation, error) {
	var inv model.Invitation
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND lower(email) = lower(?) AND status = ?", orgID, email, model.InvitationPending).
		First(&inv).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (s *InvitationsStore) ListPending(ctx context.Context, orgID string, opts store.ListOptions) ([]model.Invitation, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("organization_id = ? AND status = ?", orgID, model.InvitationPending)
	return listPage[model.Invitation](q, opts, map[string]string{"created_at": "created_at", "email": "email"}, "created_at DESC")
}

func (s *InvitationsStore) Update(ctx context.Context, inv *model.Invitation) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("id = ?", inv.ID).
		Updates(map[string]interface{}{
			"status":      inv.Status,
			"accepted_at": inv.AcceptedAt,
		}))
}
