package authz

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Object is a protected resource kind.
type Object string

const (
	ObjOrganization Object = "organization"
	ObjMember       Object = "member"
	ObjInvitation   Object = "invitation"
	ObjVault        Object = "vault"
	ObjAsset        Object = "asset"
	ObjAnnotation   Object = "annotation"
	ObjMeeting      Object = "meeting"
	ObjActionItem   Object = "action_item"
	ObjCompliance   Object = "compliance"
	ObjAuditLog     Object = "audit_log"
	ObjAI           Object = "ai"
	ObjJob          Object = "job"
)

// Action is an operation on an object.
type Action string

const (
	ActRead   Action = "read"
	ActCreate Action = "create"
	ActUpdate Action = "update"
	ActDelete Action = "delete"
	ActManage Action = "manage"
)

// Authorizer enforces organization and vault permissions.
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
	members  store.MembersStore
	vaults   store.VaultsStore
}

// New creates an Authorizer with the embedded policy.
func New(members store.MembersStore, vaults store.VaultsStore) (*Authorizer, error) {
	m, err := casbinmodel.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer, members: members, vaults: vaults}, nil
}

// loadPolicy parses the policy CSV into the enforcer.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if len(parts) != 4 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case "g":
			if len(parts) != 3 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		}
	}
	return nil
}

// RoleCan reports whether an organization role permits action on object.
func (a *Authorizer) RoleCan(role model.Role, object Object, action Action) bool {
	if !role.Valid() {
		return false
	}
	ok, err := a.enforcer.Enforce(string(role), string(object), string(action))
	return err == nil && ok
}

// VaultRoleCan reports whether a vault role permits action on the vault.
func (a *Authorizer) VaultRoleCan(role model.VaultRole, action Action) bool {
	if !role.Valid() {
		return false
	}
	ok, err := a.enforcer.Enforce("vault:"+string(role), string(ObjVault), string(action))
	return err == nil && ok
}

// Membership returns the user's active membership. Missing or suspended
// memberships yield NOT_FOUND for the organization.
func (a *Authorizer) Membership(ctx context.Context, userID, orgID string) (*model.OrganizationMember, error) {
	m, err := a.members.Get(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("organization", orgID)
		}
		return nil, apperr.From(err)
	}
	if !m.IsActive() {
		return nil, apperr.NotFound("organization", orgID)
	}
	return m, nil
}

// Can reports whether the user may perform action on object in the
// organization. Missing or suspended memberships yield false.
func (a *Authorizer) Can(ctx context.Context, userID, orgID string, object Object, action Action) (bool, error) {
	m, err := a.Membership(ctx, userID, orgID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return a.RoleCan(m.Role, object, action), nil
}

// Require returns the user's membership if they may perform action on
// object, NOT_FOUND if they are not an active member, FORBIDDEN otherwise.
func (a *Authorizer) Require(ctx context.Context, userID, orgID string, object Object, action Action) (*model.OrganizationMember, error) {
	m, err := a.Membership(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if !a.RoleCan(m.Role, object, action) {
		return nil, apperr.Forbidden(fmt.Sprintf("your role does not allow %s on %s", action, object))
	}
	return m, nil
}

// VaultRole returns the effective vault role of a non-admin member: their
// vault_members role, or an implicit role on the organization's default
// vault. ok is false when the user has no access to the vault.
func (a *Authorizer) VaultRole(ctx context.Context, member *model.OrganizationMember, vault *model.Vault) (model.VaultRole, bool, error) {
	vm, err := a.vaults.GetMember(ctx, vault.ID, member.UserID)
	switch {
	case err == nil:
		return vm.Role, true, nil
	case !errors.Is(err, store.ErrNotFound):
		return "", false, apperr.From(err)
	}

	if vault.IsDefault {
		if member.Role.AtLeast(model.RoleMember) {
			return model.VaultEditor, true, nil
		}
		return model.VaultViewer, true, nil
	}
	return "", false, nil
}

// CanAccessVault reports whether the user may perform action on the vault.
// Organization admins and owners may always; other members need a vault
// role that permits the action.
func (a *Authorizer) CanAccessVault(ctx context.Context, userID string, vault *model.Vault, action Action) (bool, error) {
	_, err := a.RequireVault(ctx, userID, vault, action)
	if err == nil {
		return true, nil
	}
	code := apperr.CodeOf(err)
	if code == apperr.CodeNotFound || code == apperr.CodeForbidden {
		return false, nil
	}
	return false, err
}

// RequireVault is CanAccessVault returning the membership, NOT_FOUND when
// the vault is invisible to the user and FORBIDDEN when the vault role is
// insufficient.
func (a *Authorizer) RequireVault(ctx context.Context, userID string, vault *model.Vault, action Action) (*model.OrganizationMember, error) {
	m, err := a.Membership(ctx, userID, vault.OrganizationID)
	if err != nil {
		return nil, err
	}
	if m.Role.AtLeast(model.RoleAdmin) {
		return m, nil
	}

	role, ok, err := a.VaultRole(ctx, m, vault)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("vault", vault.ID)
	}
	if !a.VaultRoleCan(role, action) {
		return nil, apperr.Forbidden(fmt.Sprintf("your vault role does not allow %s", action))
	}
	return m, nil
}
