package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/server/store/storetest"
)

func newAuthorizer(t *testing.T) (*Authorizer, *storetest.Mocks) {
	t.Helper()
	mocks := storetest.New()
	a, err := New(mocks.Members, mocks.Vaults)
	require.NoError(t, err)
	return a, mocks
}

func member(role model.Role) *model.OrganizationMember {
	return &model.OrganizationMember{OrganizationID: "org-1", UserID: "user-1", Role: role, Status: model.MemberActive}
}

func TestRoleInheritance(t *testing.T) {
	a, _ := newAuthorizer(t)

	tests := []struct {
		role   model.Role
		object Object
		action Action
		want   bool
	}{
		{model.RoleViewer, ObjMeeting, ActRead, true},
		{model.RoleViewer, ObjAnnotation, ActCreate, false},
		{model.RoleMember, ObjAnnotation, ActCreate, true},
		{model.RoleMember, ObjMeeting, ActRead, true},
		{model.RoleMember, ObjMeeting, ActCreate, false},
		{model.RoleMember, ObjInvitation, ActCreate, false},
		{model.RoleAdmin, ObjInvitation, ActCreate, true},
		{model.RoleAdmin, ObjMeeting, ActDelete, true},
		{model.RoleAdmin, ObjOrganization, ActUpdate, true},
		{model.RoleAdmin, ObjOrganization, ActDelete, false},
		{model.RoleAdmin, ObjAuditLog, ActRead, true},
		{model.RoleMember, ObjAuditLog, ActRead, false},
		{model.RoleOwner, ObjOrganization, ActDelete, true},
		{model.RoleOwner, ObjCompliance, ActUpdate, true},
		{model.Role("superuser"), ObjOrganization, ActRead, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+" "+string(tt.action)+" "+string(tt.object), func(t *testing.T) {
			assert.Equal(t, tt.want, a.RoleCan(tt.role, tt.object, tt.action))
		})
	}
}

func TestVaultRoleCan(t *testing.T) {
	a, _ := newAuthorizer(t)

	assert.True(t, a.VaultRoleCan(model.VaultViewer, ActRead))
	assert.False(t, a.VaultRoleCan(model.VaultViewer, ActUpdate))
	assert.True(t, a.VaultRoleCan(model.VaultEditor, ActUpdate))
	assert.True(t, a.VaultRoleCan(model.VaultEditor, ActRead))
	assert.False(t, a.VaultRoleCan(model.VaultEditor, ActDelete))
	assert.True(t, a.VaultRoleCan(model.VaultOwner, ActDelete))
	assert.False(t, a.VaultRoleCan(model.VaultRole("guest"), ActRead))
}

func TestRequire(t *testing.T) {
	ctx := context.Background()

	t.Run("non-member is not found", func(t *testing.T) {
		a, mocks := newAuthorizer(t)
		mocks.Members.On("Get", ctx, "org-1", "user-1").Return(nil, store.ErrNotFound)

		_, err := a.Require(ctx, "user-1", "org-1", ObjMeeting, ActRead)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
		mocks.AssertExpectations(t)
	})

	t.Run("suspended member is not found", func(t *testing.T) {
		a, mocks := newAuthorizer(t)
		m := member(model.RoleOwner)
		m.Status = model.MemberSuspended
		mocks.Members.On("Get", ctx, "org-1", "user-1").Return(m, nil)

		_, err := a.Require(ctx, "user-1", "org-1", ObjMeeting, ActRead)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("insufficient role is forbidden", func(t *testing.T) {
		a, mocks := newAuthorizer(t)
		mocks.Members.On("Get", ctx, "org-1", "user-1").Return(member(model.RoleMember), nil)

		_, err := a.Require(ctx, "user-1", "org-1", ObjInvitation, ActCreate)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("allowed returns membership", func(t *testing.T) {
		a, mocks := newAuthorizer(t)
		mocks.Members.On("Get", ctx, "org-1", "user-1").Return(member(model.RoleAdmin), nil)

		m, err := a.Require(ctx, "user-1", "org-1", ObjInvitation, ActCreate)
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, m.Role)
	})
}

func TestCan(t *testing.T) {
	ctx := context.Background()
	a, mocks := newAuthorizer(t)
	mocks.Members.On("Get", ctx, "org-1", "user-1").Return(member(model.RoleViewer), nil)
	mocks.Members.On("Get", ctx, "org-1", "stranger").Return(nil, store.ErrNotFound)

	ok, err := a.Can(ctx, "user-1", "org-1", ObjMeeting, ActRead)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Can(ctx, "stranger", "org-1", ObjMeeting, ActRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequireVault(t *testing.T) {
	ctx := context.Background()
	defaultVault := &model.Vault{ID: "vault-default", OrganizationID: "org-1", IsDefault: true}
	boardVault := &model.Vault{ID: "vault-board", OrganizationID: "org-1"}

	t.Run("admin bypasses vault roles", func(t *testing.T) {
		a, mocks := newAuthorizer(t)
		mocks.Members.On("Get", ctx, "org-1", "user-1").Return(member(model.RoleAdmin), nil)

		_, err := a.RequireVault(ctx, "user-1", boardVault, ActDelete)
		require.NoError(t, err)
		mocks.Vaults.AssertNotCalled(t, "GetMember")
	})

	t.Run("member without vault role cannot see vault", func(t *testing.T) {
		a, mocks := newAuthorizer(t)
		mocks.Members.On("Get", ctx, "org-1", "user-1").Return(member(model.RoleMember), nil)
		mocks.Vaults.On("GetMember", ctx, "vault-board", "user-1").Return(nil, store.ErrNotFound)

		_, err := a.RequireVault(ctx, "user-1", boardVault, ActRead)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("explicit viewer cannot update", func(t *testing.T) {
		a, mocks := newAuthorizer(t)
		mocks.Members.On("Get", ctx, "org-1", "user-1").Return(member(model.RoleMember), nil)
		mocks.Vaults.On("GetMember", ctx, "vault-board", "user-1").
			Return(&model.VaultMember{VaultID: "vault-board", UserID: "user-1", Role: model.VaultViewer}, nil)

		_, err := a.RequireVault(ctx, "user-1", boardVault, ActRead)
		require.NoError(t, err)

		_, err = a.RequireVault(ctx, "user-1", boardVault, ActUpdate)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("default vault grants implicit roles", func(t *testing.T) {
		a, mocks := newAuthorizer(t)
		mocks.Members.On("Get", ctx, "org-1", "user-1").Return(member(model.RoleMember), nil)
		mocks.Members.On("Get", ctx, "org-1", "user-2").Return(&model.OrganizationMember{
			OrganizationID: "org-1", UserID: "user-2", Role: model.RoleViewer, Status: model.MemberActive,
		}, nil)
		mocks.Vaults.On("GetMember", ctx, "vault-default", "user-1").Return(nil, store.ErrNotFound)
		mocks.Vaults.On("GetMember", ctx, "vault-default", "user-2").Return(nil, store.ErrNotFound)

		ok, err := a.CanAccessVault(ctx, "user-1", defaultVault, ActUpdate)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = a.CanAccessVault(ctx, "user-2", defaultVault, ActRead)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = a.CanAccessVault(ctx, "user-2", defaultVault, ActUpdate)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
