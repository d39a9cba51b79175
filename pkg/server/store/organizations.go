package store

import (
	"context"

	"github.com/appboardguru/boardguru/pkg/model"
)

// OrganizationsStore abstracts organization storage
type OrganizationsStore interface {
	Create(ctx context.Context, org *model.Organization) error
	Get(ctx context.Context, id string) (*model.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*model.Organization, error)

	// SlugExists reports whether any organization, deleted or not, uses slug
	SlugExists(ctx context.Context, slug string) (bool, error)

	// ListForUser returns the organizations the user is an active member of
	ListForUser(ctx context.Context, userID string, opts ListOptions) ([]model.Organization, int64, error)

	Update(ctx context.Context, org *model.Organization) error

	// Delete soft deletes the organization
	Delete(ctx context.Context, id string) error
}

// MembersStore abstracts organization membership storage
type MembersStore interface {
	Add(ctx context.Context, member *model.OrganizationMember) error
	Get(ctx context.Context, orgID, userID string) (*model.OrganizationMember, error)
	List(ctx context.Context, orgID string, opts ListOptions) ([]model.OrganizationMember, int64, error)

	// ActiveUserIDs returns the user IDs of every active member
	ActiveUserIDs(ctx context.Context, orgID string) ([]string, error)

	// OrganizationIDs returns the organizations a user is an active member of
	OrganizationIDs(ctx context.Context, userID string) ([]string, error)

	// FindByEmail finds a member by email, case-insensitively
	FindByEmail(ctx context.Context, orgID, email string) (*model.OrganizationMember, error)

	UpdateRole(ctx context.Context, orgID, userID string, role model.Role) error
	UpdateStatus(ctx context.Context, orgID, userID string, status model.MemberStatus) error
	Remove(ctx context.Context, orgID, userID string) error

	// CountOwners counts active owners and locks their rows until the
	// surrounding transaction ends
	CountOwners(ctx context.Context, orgID string) (int64, error)
}

// InvitationsStore abstracts invitation storage
type InvitationsStore interface {
	Create(ctx context.Context, inv *model.Invitation) error
	Get(ctx context.Context, id string) (*model.Invitation, error)
	GetByToken(ctx context.Context, token string) (*model.Invitation, error)

	// FindPending returns the pending invitation for email, case-insensitively
	FindPending(ctx context.Context, orgID, email string) (*model.Invitation, error)

	ListPending(ctx context.Context, orgID string, opts ListOptions) ([]model.Invitation, int64, error)
	Update(ctx context.Context, inv *model.Invitation) error
}
