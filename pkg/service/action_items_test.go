package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/realtime"
)

func TestSetStatusTracksCompletion(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "member", model.RoleMember)
	item := &model.ActionItem{ID: "ai-1", OrganizationID: "org-1", AssignedTo: strPtr("member"), Status: model.ActionOpen}
	h.mocks.ActionItems.On("Get", anyCtx, "ai-1").Return(item, nil)
	h.mocks.ActionItems.On("Update", anyCtx, item).Return(nil)

	out, err := h.svc.ActionItems.SetStatus(bg(), actor("member"), "ai-1", model.ActionCompleted)
	require.NoError(t, err)
	require.NotNil(t, out.CompletedAt)
	assert.Equal(t, fixedNow, *out.CompletedAt)

	out, err = h.svc.ActionItems.SetStatus(bg(), actor("member"), "ai-1", model.ActionInProgress)
	require.NoError(t, err)
	assert.Nil(t, out.CompletedAt)

	assert.Equal(t, []realtime.EventType{realtime.ActionItemUpdated, realtime.ActionItemUpdated}, h.pub.types())
}

func TestSetStatusRequiresAssignee(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "member", model.RoleMember)
	h.member("org-1", "admin", model.RoleAdmin)
	item := &model.ActionItem{ID: "ai-1", OrganizationID: "org-1", AssignedTo: strPtr("someone-else"), Status: model.ActionOpen}
	h.mocks.ActionItems.On("Get", anyCtx, "ai-1").Return(item, nil)
	h.mocks.ActionItems.On("Update", anyCtx, item).Return(nil)

	_, err := h.svc.ActionItems.SetStatus(bg(), actor("member"), "ai-1", model.ActionCompleted)
	assertCode(t, err, apperr.CodeForbidden)

	_, err = h.svc.ActionItems.SetStatus(bg(), actor("member"), "ai-1", model.ActionItemStatus("done"))
	assertCode(t, err, apperr.CodeValidation)

	_, err = h.svc.ActionItems.SetStatus(bg(), actor("admin"), "ai-1", model.ActionCancelled)
	require.NoError(t, err)
}

func TestCreateActionItemChecksAssignee(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "admin", model.RoleAdmin)
	h.member("org-1", "director", model.RoleMember)
	h.mocks.Members.On("Get", anyCtx, "org-1", "ghost").Return(nil, store.ErrNotFound)
	h.mocks.ActionItems.On("Create", anyCtx, mock.AnythingOfType("*model.ActionItem")).Return(nil)
	h.mocks.Notifications.On("Create", anyCtx, mock.MatchedBy(func(n *model.Notification) bool {
		return n.UserID == "director" && n.Type == "action_item_assigned"
	})).Return(nil)

	_, err := h.svc.ActionItems.Create(bg(), actor("admin"), "org-1", ActionItemInput{Title: "Review policy", AssignedTo: strPtr("ghost")})
	assertCode(t, err, apperr.CodeValidation)
	assert.Equal(t, "assigned_to", apperr.From(err).Field)

	item, err := h.svc.ActionItems.Create(bg(), actor("admin"), "org-1", ActionItemInput{Title: "Review policy", AssignedTo: strPtr("director")})
	require.NoError(t, err)
	assert.Equal(t, model.ActionOpen, item.Status)
	assert.Equal(t, model.PriorityMedium, item.Priority)
	h.mocks.AssertExpectations(t)
}
