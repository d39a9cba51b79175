package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/validation"
)

// VaultService manages vaults and their members
type VaultService struct {
	base
}

// VaultInput is the body of a vault creation or update request
type VaultInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// VaultMemberInput grants a vault role to an organization member
type VaultMemberInput struct {
	UserID string          `json:"user_id" validate:"required"`
	Role   model.VaultRole `json:"role" validate:"required,oneof=owner editor viewer"`
}

// Create creates a vault; the actor becomes its owner
func (s *VaultService) Create(ctx context.Context, actor *identity.Identity, orgID string, in VaultInput) (*model.Vault, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjVault, authz.ActCreate); err != nil {
		return nil, err
	}

	vault := &model.Vault{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           in.Name,
		Description:    in.Description,
		Status:         model.VaultActive,
		CreatedBy:      actor.UserID,
	}
	err := s.stores().Tx.WithinTx(ctx, func(tx store.Stores) error {
		if err := tx.Vaults.Create(ctx, vault); err != nil {
			return err
		}
		return tx.Vaults.SetMember(ctx, &model.VaultMember{VaultID: vault.ID, UserID: actor.UserID, Role: model.VaultOwner})
	})
	err = vaultConflict(err)
	audit.Log(audit.VaultEvent{Common: s.common(actor, orgID, "create", err), VaultID: vault.ID, Name: vault.Name})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.invalidate(ctx, cache.OrgTag(orgID))
	s.publish(ctx, realtime.VaultUpdated, orgID, "", vault)
	return vault, nil
}

// List lists the vaults visible to the actor. Admins see every vault.
func (s *VaultService) List(ctx context.Context, actor *identity.Identity, orgID string, opts store.ListOptions) (Page[model.Vault], error) {
	m, err := s.authorize(ctx, actor, orgID, authz.ObjVault, authz.ActRead)
	if err != nil {
		return Page[model.Vault]{}, err
	}

	var (
		vaults []model.Vault
		total  int64
	)
	if m.Role.AtLeast(model.RoleAdmin) {
		vaults, total, err = s.stores().Vaults.List(ctx, orgID, opts)
	} else {
		vaults, total, err = s.stores().Vaults.ListForMember(ctx, orgID, actor.UserID, opts)
	}
	if err != nil {
		return Page[model.Vault]{}, apperr.From(err)
	}
	return newPage(vaults, total, opts), nil
}

// Get returns a vault the actor may read
func (s *VaultService) Get(ctx context.Context, actor *identity.Identity, vaultID string) (*model.Vault, error) {
	vault, _, err := s.load(ctx, actor, vaultID, authz.ActRead)
	return vault, err
}

// Update renames or redescribes a vault
func (s *VaultService) Update(ctx context.Context, actor *identity.Identity, vaultID string, in VaultInput) (*model.Vault, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	vault, _, err := s.load(ctx, actor, vaultID, authz.ActUpdate)
	if err != nil {
		return nil, err
	}
	if vault.Status == model.VaultArchived {
		return nil, apperr.BusinessRule("archived vaults cannot be changed")
	}

	vault.Name = in.Name
	vault.Description = in.Description
	err = vaultConflict(s.stores().Vaults.Update(ctx, vault))
	audit.Log(audit.VaultEvent{Common: s.common(actor, vault.OrganizationID, "update", err), VaultID: vault.ID, Name: vault.Name})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.invalidate(ctx, cache.OrgTag(vault.OrganizationID))
	s.publish(ctx, realtime.VaultUpdated, vault.OrganizationID, "", vault)
	return vault, nil
}

// Archive archives a vault. The default vault cannot be archived.
func (s *VaultService) Archive(ctx context.Context, actor *identity.Identity, vaultID string) (*model.Vault, error) {
	vault, _, err := s.load(ctx, actor, vaultID, authz.ActDelete)
	if err != nil {
		return nil, err
	}
	if vault.IsDefault {
		return nil, apperr.BusinessRule("the default vault cannot be archived")
	}
	if vault.Status == model.VaultArchived {
		return vault, nil
	}

	vault.Status = model.VaultArchived
	err = s.stores().Vaults.Update(ctx, vault)
	audit.Log(audit.VaultEvent{Common: s.common(actor, vault.OrganizationID, "archive", err), VaultID: vault.ID, Name: vault.Name})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.invalidate(ctx, cache.OrgTag(vault.OrganizationID))
	s.publish(ctx, realtime.VaultUpdated, vault.OrganizationID, "", vault)
	return vault, nil
}

// Members lists the explicit members of a vault
func (s *VaultService) Members(ctx context.Context, actor *identity.Identity, vaultID string) ([]model.VaultMember, error) {
	if _, _, err := s.load(ctx, actor, vaultID, authz.ActRead); err != nil {
		return nil, err
	}
	members, err := s.stores().Vaults.ListMembers(ctx, vaultID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return members, nil
}

// AddMember grants or changes a vault role. The user must be an active
// member of the vault's organization.
func (s *VaultService) AddMember(ctx context.Context, actor *identity.Identity, vaultID string, in VaultMemberInput) (*model.VaultMember, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	vault, _, err := s.load(ctx, actor, vaultID, authz.ActManage)
	if err != nil {
		return nil, err
	}

	target, err := s.stores().Members.Get(ctx, vault.OrganizationID, in.UserID)
	if err != nil || !target.IsActive() {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.From(err)
		}
		return nil, apperr.Validation("user_id", "user is not an active member of the organization")
	}

	member := &model.VaultMember{VaultID: vault.ID, UserID: in.UserID, Role: in.Role}
	err = s.stores().Vaults.SetMember(ctx, member)
	audit.Log(audit.VaultEvent{
		Common:   s.common(actor, vault.OrganizationID, "update", err),
		VaultID:  vault.ID,
		MemberID: in.UserID,
		Role:     string(in.Role),
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.invalidate(ctx, cache.UserTag(in.UserID))
	s.notify(ctx, &model.Notification{
		UserID:         in.UserID,
		OrganizationID: strPtr(vault.OrganizationID),
		Type:           "vault_access_granted",
		Title:          "Vault access granted",
		Message:        "You now have " + string(in.Role) + " access to " + vault.Name,
		ResourceType:   "vault",
		ResourceID:     vault.ID,
	})
	return member, nil
}

// RemoveMember revokes a user's vault role
func (s *VaultService) RemoveMember(ctx context.Context, actor *identity.Identity, vaultID, userID string) error {
	vault, _, err := s.load(ctx, actor, vaultID, authz.ActManage)
	if err != nil {
		return err
	}

	err = s.stores().Vaults.RemoveMember(ctx, vaultID, userID)
	audit.Log(audit.VaultEvent{Common: s.common(actor, vault.OrganizationID, "remove", err), VaultID: vaultID, MemberID: userID})
	if err != nil {
		return notFoundAs(err, "vault member", userID)
	}

	s.invalidate(ctx, cache.UserTag(userID))
	return nil
}

// load fetches a vault and checks the actor's right to act on it
func (s *VaultService) load(ctx context.Context, actor *identity.Identity, vaultID string, action authz.Action) (*model.Vault, *model.OrganizationMember, error) {
	return loadVault(ctx, s.base, actor, vaultID, action)
}

func loadVault(ctx context.Context, b base, actor *identity.Identity, vaultID string, action authz.Action) (*model.Vault, *model.OrganizationMember, error) {
	vault, err := b.stores().Vaults.Get(ctx, vaultID)
	if err != nil {
		return nil, nil, notFoundAs(err, "vault", vaultID)
	}
	m, err := b.deps.Authz.RequireVault(ctx, actor.UserID, vault, action)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return nil, nil, apperr.NotFound("vault", vaultID)
		}
		return nil, nil, err
	}
	return vault, m, nil
}

func vaultConflict(err error) error {
	if errors.Is(err, store.ErrConflict) {
		return apperr.Conflict("a vault with this name already exists").WithField("name").Wrap(err)
	}
	return err
}
