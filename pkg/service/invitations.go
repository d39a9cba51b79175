package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/idgen"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/validation"
)

// InvitationService invites users into organizations
type InvitationService struct {
	base
}

// InviteInput is the body of an invitation request
type InviteInput struct {
	Email string     `json:"email" validate:"required,email,max=254"`
	Role  model.Role `json:"role" validate:"required,oneof=owner admin member viewer"`
}

// IssuedInvitation is a new invitation together with its secret token,
// which is only ever returned to the inviter
type IssuedInvitation struct {
	*model.Invitation
	Token string `json:"token"`
}

// Invite creates a pending invitation for email
func (s *InvitationService) Invite(ctx context.Context, actor *identity.Identity, orgID string, in InviteInput) (*IssuedInvitation, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	actorMember, err := s.authorize(ctx, actor, orgID, authz.ObjInvitation, authz.ActCreate)
	if err != nil {
		return nil, err
	}
	if in.Role == model.RoleOwner && actorMember.Role != model.RoleOwner {
		return nil, apperr.Forbidden("only owners can invite owners")
	}

	_, err = s.stores().Members.FindByEmail(ctx, orgID, in.Email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("this user is already a member of the organization").WithField("email")
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.From(err)
	}

	now := s.now()
	pending, err := s.stores().Invitations.FindPending(ctx, orgID, in.Email)
	switch {
	case err == nil && !pending.Expired(now):
		return nil, apperr.Conflict("a pending invitation already exists for this email").WithField("email")
	case err == nil:
		// an expired invitation gives way to the new one
		pending.Status = model.InvitationRevoked
		if err := s.stores().Invitations.Update(ctx, pending); err != nil {
			return nil, apperr.From(err)
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.From(err)
	}

	token, err := idgen.InvitationToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	inv := &model.Invitation{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Email:          in.Email,
		Role:           in.Role,
		Token:          token,
		Status:         model.InvitationPending,
		InvitedBy:      actor.UserID,
		ExpiresAt:      now.Add(config.Get().InvitationTTL()),
	}

	err = s.stores().Invitations.Create(ctx, inv)
	if errors.Is(err, store.ErrConflict) {
		err = apperr.Conflict("a pending invitation already exists for this email").WithField("email").Wrap(err)
	}
	audit.Log(audit.InvitationEvent{
		Common:       s.common(actor, orgID, "invite", err),
		InvitationID: inv.ID,
		Email:        inv.Email,
		Role:         string(inv.Role),
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.log.Info().Str("organization_id", orgID).Str("invitation_id", inv.ID).Str("role", string(inv.Role)).Msg("invitation created")
	return &IssuedInvitation{Invitation: inv, Token: token}, nil
}

// Accept turns the invitation with token into a membership of the actor
func (s *InvitationService) Accept(ctx context.Context, actor *identity.Identity, token string) (*model.OrganizationMember, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Validation("token", "token is required")
	}
	inv, err := s.stores().Invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, notFoundAs(err, "invitation", "")
	}

	now := s.now()
	if inv.Status != model.InvitationPending {
		return nil, apperr.BusinessRule(fmt.Sprintf("invitation has already been %s", inv.Status))
	}
	if inv.Expired(now) {
		return nil, apperr.New(apperr.CodeInvitationExpired, "invitation has expired").
			WithSuggestion("ask an administrator for a new invitation")
	}
	if !strings.EqualFold(strings.TrimSpace(actor.Email), inv.Email) {
		return nil, apperr.Forbidden("this invitation was issued to a different email address")
	}

	existing, err := s.stores().Members.Get(ctx, inv.OrganizationID, actor.UserID)
	switch {
	case err == nil && existing.IsActive():
		return nil, apperr.Conflict("you are already a member of this organization")
	case err == nil:
		return nil, apperr.Forbidden("your membership of this organization is suspended")
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.From(err)
	}

	member := &model.OrganizationMember{
		ID:             uuid.NewString(),
		OrganizationID: inv.OrganizationID,
		UserID:         actor.UserID,
		Email:          inv.Email,
		Role:           inv.Role,
		Status:         model.MemberActive,
		JoinedAt:       now,
	}
	err = s.stores().Tx.WithinTx(ctx, func(tx store.Stores) error {
		if err := tx.Members.Add(ctx, member); err != nil {
			return err
		}
		inv.Status = model.InvitationAccepted
		inv.AcceptedAt = &now
		return tx.Invitations.Update(ctx, inv)
	})
	audit.Log(audit.InvitationEvent{
		Common:       s.common(actor, inv.OrganizationID, "accept", err),
		InvitationID: inv.ID,
		Email:        inv.Email,
		Role:         string(inv.Role),
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.invalidate(ctx, cache.OrgTag(inv.OrganizationID), cache.UserTag(actor.UserID))
	s.notify(ctx, &model.Notification{
		UserID:         inv.InvitedBy,
		OrganizationID: strPtr(inv.OrganizationID),
		Type:           "invitation_accepted",
		Title:          "Invitation accepted",
		Message:        fmt.Sprintf("%s joined as %s", inv.Email, inv.Role),
		ResourceType:   "member",
		ResourceID:     actor.UserID,
	})
	return member, nil
}

// Revoke withdraws a pending invitation
func (s *InvitationService) Revoke(ctx context.Context, actor *identity.Identity, orgID, id string) error {
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjInvitation, authz.ActDelete); err != nil {
		return err
	}
	inv, err := s.stores().Invitations.Get(ctx, id)
	if err != nil {
		return notFoundAs(err, "invitation", id)
	}
	if inv.OrganizationID != orgID {
		return apperr.NotFound("invitation", id)
	}
	if inv.Status != model.InvitationPending {
		return apperr.BusinessRule(fmt.Sprintf("invitation has already been %s", inv.Status))
	}

	inv.Status = model.InvitationRevoked
	err = s.stores().Invitations.Update(ctx, inv)
	audit.Log(audit.InvitationEvent{
		Common:       s.common(actor, orgID, "revoke", err),
		InvitationID: inv.ID,
		Email:        inv.Email,
		Role:         string(inv.Role),
	})
	if err != nil {
		return apperr.From(err)
	}
	return nil
}

// ListPending lists the pending invitations of an organization
func (s *InvitationService) ListPending(ctx context.Context, actor *identity.Identity, orgID string, opts store.ListOptions) (Page[model.Invitation], error) {
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjInvitation, authz.ActRead); err != nil {
		return Page[model.Invitation]{}, err
	}
	invs, total, err := s.stores().Invitations.ListPending(ctx, orgID, opts)
	if err != nil {
		return Page[model.Invitation]{}, apperr.From(err)
	}
	return newPage(invs, total, opts), nil
}
