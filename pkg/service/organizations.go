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
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/validation"
)

// OrganizationService manages organizations
type OrganizationService struct {
	base
}

// CreateOrganizationInput is the body of an organization creation request
type CreateOrganizationInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Slug        string `json:"slug" validate:"required,min=2,max=50,slug,notreserved"`
	Description string `json:"description" validate:"max=1000"`
	Website     string `json:"website" validate:"omitempty,url"`
	Industry    string `json:"industry" validate:"max=100"`
	Size        string `json:"size" validate:"max=50"`
}

// UpdateOrganizationInput holds the fields to change; nil fields are kept
type UpdateOrganizationInput struct {
	Name        *string    `json:"name" validate:"omitempty,min=2,max=100"`
	Slug        *string    `json:"slug"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Website     *string    `json:"website" validate:"omitempty,url"`
	Industry    *string    `json:"industry" validate:"omitempty,max=100"`
	Size        *string    `json:"size" validate:"omitempty,max=50"`
	Settings    model.JSON `json:"settings"`
}

// SlugAvailability answers a slug availability check
type SlugAvailability struct {
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Create creates an organization owned by the actor together with its
// default vault. Nothing is written unless every insert succeeds.
func (s *OrganizationService) Create(ctx context.Context, actor *identity.Identity, in CreateOrganizationInput) (*model.Organization, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	exists, err := s.stores().Organizations.SlugExists(ctx, in.Slug)
	if err != nil {
		return nil, apperr.From(err)
	}
	if exists {
		return nil, apperr.Conflict("an organization with this slug already exists").WithField("slug")
	}

	now := s.now()
	org := &model.Organization{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Website:     in.Website,
		Industry:    in.Industry,
		Size:        in.Size,
		CreatedBy:   actor.UserID,
		IsActive:    true,
	}
	owner := &model.OrganizationMember{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		UserID:         actor.UserID,
		Email:          strings.ToLower(actor.Email),
		Role:           model.RoleOwner,
		Status:         model.MemberActive,
		JoinedAt:       now,
	}
	vault := &model.Vault{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		Name:           model.DefaultVaultName,
		Description:    "Default vault for board documents",
		Status:         model.VaultActive,
		IsDefault:      true,
		CreatedBy:      actor.UserID,
	}

	err = s.stores().Tx.WithinTx(ctx, func(tx store.Stores) error {
		if err := tx.Organizations.Create(ctx, org); err != nil {
			return err
		}
		if err := tx.Members.Add(ctx, owner); err != nil {
			return err
		}
		if err := tx.Vaults.Create(ctx, vault); err != nil {
			return err
		}
		return tx.Vaults.SetMember(ctx, &model.VaultMember{VaultID: vault.ID, UserID: actor.UserID, Role: model.VaultOwner})
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			err = apperr.Conflict("an organization with this slug already exists").WithField("slug").Wrap(err)
		}
		audit.Log(audit.OrganizationEvent{Common: s.common(actor, "", "create", err), Slug: in.Slug})
		return nil, apperr.From(err)
	}

	audit.Log(audit.OrganizationEvent{Common: s.common(actor, org.ID, "create", nil), Slug: org.Slug})
	s.invalidate(ctx, cache.UserTag(actor.UserID))
	s.log.Info().Str("organization_id", org.ID).Str("slug", org.Slug).Str("user_id", actor.UserID).Msg("organization created")
	return org, nil
}

// Get returns an organization the actor is a member of
func (s *OrganizationService) Get(ctx context.Context, actor *identity.Identity, orgID string) (*model.Organization, error) {
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjOrganization, authz.ActRead); err != nil {
		return nil, err
	}
	org, err := s.stores().Organizations.Get(ctx, orgID)
	if err != nil {
		return nil, notFoundAs(err, "organization", orgID)
	}
	return org, nil
}

// ListForUser lists the organizations the actor is an active member of
func (s *OrganizationService) ListForUser(ctx context.Context, actor *identity.Identity, opts store.ListOptions) (Page[model.Organization], error) {
	orgs, total, err := s.stores().Organizations.ListForUser(ctx, actor.UserID, opts)
	if err != nil {
		return Page[model.Organization]{}, apperr.From(err)
	}
	return newPage(orgs, total, opts), nil
}

// Update changes an organization's profile. The slug cannot change.
func (s *OrganizationService) Update(ctx context.Context, actor *identity.Identity, orgID string, in UpdateOrganizationInput) (*model.Organization, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjOrganization, authz.ActUpdate); err != nil {
		return nil, err
	}

	org, err := s.stores().Organizations.Get(ctx, orgID)
	if err != nil {
		return nil, notFoundAs(err, "organization", orgID)
	}
	if in.Slug != nil && strings.ToLower(strings.TrimSpace(*in.Slug)) != org.Slug {
		return nil, apperr.Validation("slug", "slug cannot be changed")
	}

	if in.Name != nil {
		org.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		org.Description = *in.Description
	}
	if in.Website != nil {
		org.Website = *in.Website
	}
	if in.Industry != nil {
		org.Industry = *in.Industry
	}
	if in.Size != nil {
		org.Size = *in.Size
	}
	if in.Settings != nil {
		org.Settings = in.Settings
	}

	err = s.stores().Organizations.Update(ctx, org)
	audit.Log(audit.OrganizationEvent{Common: s.common(actor, orgID, "update", err), Slug: org.Slug})
	if err != nil {
		return nil, notFoundAs(err, "organization", orgID)
	}

	s.invalidateMembers(ctx, orgID)
	return org, nil
}

// Delete soft deletes an organization. confirmSlug must repeat its slug.
func (s *OrganizationService) Delete(ctx context.Context, actor *identity.Identity, orgID, confirmSlug string) error {
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjOrganization, authz.ActDelete); err != nil {
		return err
	}
	org, err := s.stores().Organizations.Get(ctx, orgID)
	if err != nil {
		return notFoundAs(err, "organization", orgID)
	}
	if confirmSlug != org.Slug {
		return apperr.Validation("confirm_slug", "confirmation does not match the organization slug").
			WithSuggestion("repeat the organization slug to confirm the deletion")
	}

	// collect members before the organization disappears from their lists
	var userIDs []string
	if s.deps.Cache != nil {
		userIDs, _ = s.stores().Members.ActiveUserIDs(ctx, orgID)
	}

	err = s.stores().Organizations.Delete(ctx, orgID)
	audit.Log(audit.OrganizationEvent{Common: s.common(actor, orgID, "delete", err), Slug: org.Slug})
	if err != nil {
		return notFoundAs(err, "organization", orgID)
	}

	s.invalidate(ctx, cache.OrgTag(orgID))
	for _, id := range userIDs {
		s.invalidate(ctx, cache.UserTag(id))
	}
	s.log.Info().Str("organization_id", orgID).Str("user_id", actor.UserID).Msg("organization deleted")
	return nil
}

// CheckSlug reports whether slug can be used for a new organization
func (s *OrganizationService) CheckSlug(ctx context.Context, slug string) (SlugAvailability, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	res := SlugAvailability{Slug: slug}

	switch {
	case len(slug) < 2 || len(slug) > 50:
		res.Reason = "slug must be between 2 and 50 characters"
	case !validation.IsSlug(slug):
		res.Reason = "slug may only contain lowercase letters, digits and single hyphens"
	case config.Get().IsReservedSlug(slug):
		res.Reason = "slug is reserved"
	default:
		exists, err := s.stores().Organizations.SlugExists(ctx, slug)
		if err != nil {
			return res, apperr.From(err)
		}
		if exists {
			res.Reason = "slug is already taken"
		} else {
			res.Available = true
		}
	}
	return res, nil
}

// invalidateMembers drops the cached organization lists of every member
func (s *OrganizationService) invalidateMembers(ctx context.Context, orgID string) {
	if s.deps.Cache == nil {
		return
	}
	s.invalidate(ctx, cache.OrgTag(orgID))
	userIDs, err := s.stores().Members.ActiveUserIDs(ctx, orgID)
	if err != nil {
		s.log.Warn().Err(err).Str("organization_id", orgID).Msg("failed to list members for cache invalidation")
		return
	}
	for _, id := range userIDs {
		s.invalidate(ctx, cache.UserTag(id))
	}
}
