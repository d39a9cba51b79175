package service

import (
	"context"
	"fmt"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// MemberService manages organization memberships
type MemberService struct {
	base
}

// List lists the members of an organization
func (s *MemberService) List(ctx context.Context, actor *identity.Identity, orgID string, opts store.ListOptions) (Page[model.OrganizationMember], error) {
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjMember, authz.ActRead); err != nil {
		return Page[model.OrganizationMember]{}, err
	}
	members, total, err := s.stores().Members.List(ctx, orgID, opts)
	if err != nil {
		return Page[model.OrganizationMember]{}, apperr.From(err)
	}
	return newPage(members, total, opts), nil
}

// UpdateRole changes a member's role. Only owners grant or revoke the
// owner role and the last owner cannot be demoted.
func (s *MemberService) UpdateRole(ctx context.Context, actor *identity.Identity, orgID, userID string, role model.Role) (*model.OrganizationMember, error) {
	if !role.Valid() {
		return nil, apperr.Validation("role", "role must be one of owner, admin, member, viewer")
	}
	actorMember, err := s.authorize(ctx, actor, orgID, authz.ObjMember, authz.ActUpdate)
	if err != nil {
		return nil, err
	}
	target, err := s.target(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if (role == model.RoleOwner || target.Role == model.RoleOwner) && actorMember.Role != model.RoleOwner {
		return nil, apperr.Forbidden("only owners can grant or revoke the owner role")
	}
	if target.Role == role {
		return target, nil
	}

	oldRole := target.Role
	err = s.stores().Tx.WithinTx(ctx, func(tx store.Stores) error {
		if role != model.RoleOwner {
			if err := ensureAnotherOwner(ctx, tx, target); err != nil {
				return err
			}
		}
		return tx.Members.UpdateRole(ctx, orgID, userID, role)
	})
	audit.Log(audit.MemberEvent{
		Common:   s.common(actor, orgID, "role_change", err),
		MemberID: userID,
		OldRole:  string(oldRole),
		NewRole:  string(role),
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	target.Role = role
	s.invalidate(ctx, cache.OrgTag(orgID), cache.UserTag(userID))
	s.notify(ctx, &model.Notification{
		UserID:         userID,
		OrganizationID: strPtr(orgID),
		Type:           "member_role_changed",
		Title:          "Your role has changed",
		Message:        fmt.Sprintf("Your role changed from %s to %s", oldRole, role),
		ResourceType:   "organization",
		ResourceID:     orgID,
	})
	return target, nil
}

// Remove removes a member. Members removing themselves go through Leave.
func (s *MemberService) Remove(ctx context.Context, actor *identity.Identity, orgID, userID string) error {
	if userID == actor.UserID {
		return s.Leave(ctx, actor, orgID)
	}
	actorMember, err := s.authorize(ctx, actor, orgID, authz.ObjMember, authz.ActDelete)
	if err != nil {
		return err
	}
	target, err := s.target(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if target.Role == model.RoleOwner && actorMember.Role != model.RoleOwner {
		return apperr.Forbidden("only owners can remove an owner")
	}

	err = s.removeMember(ctx, target)
	audit.Log(audit.MemberEvent{Common: s.common(actor, orgID, "remove", err), MemberID: userID, OldRole: string(target.Role)})
	if err != nil {
		return apperr.From(err)
	}
	return nil
}

// Leave removes the actor from the organization
func (s *MemberService) Leave(ctx context.Context, actor *identity.Identity, orgID string) error {
	m, err := s.deps.Authz.Membership(ctx, actor.UserID, orgID)
	if err != nil {
		return err
	}

	err = s.removeMember(ctx, m)
	audit.Log(audit.MemberEvent{Common: s.common(actor, orgID, "leave", err), MemberID: actor.UserID, OldRole: string(m.Role)})
	if err != nil {
		return apperr.From(err)
	}
	return nil
}

// Suspend suspends a membership; suspended members lose all access
func (s *MemberService) Suspend(ctx context.Context, actor *identity.Identity, orgID, userID string) (*model.OrganizationMember, error) {
	actorMember, err := s.authorize(ctx, actor, orgID, authz.ObjMember, authz.ActManage)
	if err != nil {
		return nil, err
	}
	if userID == actor.UserID {
		return nil, apperr.BusinessRule("you cannot suspend yourself")
	}
	target, err := s.target(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == model.RoleOwner && actorMember.Role != model.RoleOwner {
		return nil, apperr.Forbidden("only owners can suspend an owner")
	}
	if target.Status == model.MemberSuspended {
		return target, nil
	}

	err = s.stores().Tx.WithinTx(ctx, func(tx store.Stores) error {
		if err := ensureAnotherOwner(ctx, tx, target); err != nil {
			return err
		}
		return tx.Members.UpdateStatus(ctx, orgID, userID, model.MemberSuspended)
	})
	audit.Log(audit.MemberEvent{Common: s.common(actor, orgID, "suspend", err), MemberID: userID, OldRole: string(target.Role)})
	if err != nil {
		return nil, apperr.From(err)
	}

	target.Status = model.MemberSuspended
	s.invalidate(ctx, cache.OrgTag(orgID), cache.UserTag(userID))
	s.publish(ctx, realtime.MemberRemoved, orgID, userID, map[string]string{"reason": "suspended"})
	return target, nil
}

func (s *MemberService) target(ctx context.Context, orgID, userID string) (*model.OrganizationMember, error) {
	m, err := s.stores().Members.Get(ctx, orgID, userID)
	if err != nil {
		return nil, notFoundAs(err, "member", userID)
	}
	return m, nil
}

func (s *MemberService) removeMember(ctx context.Context, m *model.OrganizationMember) error {
	err := s.stores().Tx.WithinTx(ctx, func(tx store.Stores) error {
		if err := ensureAnotherOwner(ctx, tx, m); err != nil {
			return err
		}
		return tx.Members.Remove(ctx, m.OrganizationID, m.UserID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, cache.OrgTag(m.OrganizationID), cache.UserTag(m.UserID))
	s.publish(ctx, realtime.MemberRemoved, m.OrganizationID, m.UserID, map[string]string{"reason": "removed"})
	s.log.Info().Str("organization_id", m.OrganizationID).Str("member_id", m.UserID).Msg("member removed")
	return nil
}

// ensureAnotherOwner fails when m is the organization's only active owner
func ensureAnotherOwner(ctx context.Context, tx store.Stores, m *model.OrganizationMember) error {
	if m.Role != model.RoleOwner || !m.IsActive() {
		return nil
	}
	owners, err := tx.Members.CountOwners(ctx, m.OrganizationID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return apperr.BusinessRule("an organization must keep at least one owner").
			WithSuggestion("promote another member to owner first")
	}
	return nil
}
