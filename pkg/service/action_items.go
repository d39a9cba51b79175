package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

// ActionItemService manages follow-up tasks
type ActionItemService struct {
	base
}

// ActionItemInput is the body of an action item creation request
type ActionItemInput struct {
	Title       string         `json:"title" validate:"required,min=1,max=300"`
	Description string         `json:"description" validate:"max=5000"`
	MeetingID   *string        `json:"meeting_id"`
	AssignedTo  *string        `json:"assigned_to"`
	Priority    model.Priority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	DueDate     *time.Time     `json:"due_date"`
}

// UpdateActionItemInput holds the fields to change; nil fields are kept.
// An empty AssignedTo unassigns the item.
type UpdateActionItemInput struct {
	Title       *string         `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string         `json:"description" validate:"omitempty,max=5000"`
	AssignedTo  *string         `json:"assigned_to"`
	Priority    *model.Priority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	DueDate     *time.Time      `json:"due_date"`
}

// ActionItemQuery narrows action item listings
type ActionItemQuery struct {
	AssignedTo  string
	MeetingID   string
	OverdueOnly bool
}

// Create adds an action item. The assignee must be an active member.
func (s *ActionItemService) Create(ctx context.Context, actor *identity.Identity, orgID string, in ActionItemInput) (*model.ActionItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjActionItem, authz.ActCreate); err != nil {
		return nil, err
	}

	item := &model.ActionItem{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Title:          in.Title,
		Description:    in.Description,
		Status:         model.ActionOpen,
		Priority:       in.Priority,
		DueDate:        in.DueDate,
		Source:         model.SourceManual,
		CreatedBy:      actor.UserID,
	}
	if item.Priority == "" {
		item.Priority = model.PriorityMedium
	}
	if in.MeetingID != nil && *in.MeetingID != "" {
		m, err := s.stores().Meetings.Get(ctx, *in.MeetingID)
		if err != nil || m.OrganizationID != orgID {
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, apperr.From(err)
			}
			return nil, apperr.Validation("meeting_id", "meeting does not belong to this organization")
		}
		item.MeetingID = in.MeetingID
	}
	if in.AssignedTo != nil && *in.AssignedTo != "" {
		if err := s.checkAssignee(ctx, orgID, *in.AssignedTo); err != nil {
			return nil, err
		}
		item.AssignedTo = in.AssignedTo
	}

	err := s.stores().ActionItems.Create(ctx, item)
	audit.Log(audit.ActionItemEvent{
		Common:       s.common(actor, orgID, "create", err),
		ActionItemID: item.ID,
		AssignedTo:   deref(item.AssignedTo),
		Status:       string(item.Status),
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.invalidate(ctx, cache.OrgTag(orgID))
	s.publish(ctx, realtime.ActionItemCreated, orgID, "", item)
	s.notifyAssignee(ctx, actor, item)
	return item, nil
}

// List lists action items by status, assignee, meeting or overdue state
func (s *ActionItemService) List(ctx context.Context, actor *identity.Identity, orgID string, q ActionItemQuery, opts store.ListOptions) (Page[model.ActionItem], error) {
	if opts.Status != "" && !model.ActionItemStatus(opts.Status).Valid() {
		return Page[model.ActionItem]{}, apperr.Validation("status", "unknown action item status")
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjActionItem, authz.ActRead); err != nil {
		return Page[model.ActionItem]{}, err
	}

	filter := store.ActionItemFilter{AssignedTo: q.AssignedTo, MeetingID: q.MeetingID}
	if q.OverdueOnly {
		now := s.now()
		filter.OverdueAt = &now
	}
	items, total, err := s.stores().ActionItems.List(ctx, orgID, filter, opts)
	if err != nil {
		return Page[model.ActionItem]{}, apperr.From(err)
	}
	return newPage(items, total, opts), nil
}

// Update edits an action item. Members may only edit items assigned to
// them and cannot reassign them.
func (s *ActionItemService) Update(ctx context.Context, actor *identity.Identity, id string, in UpdateActionItemInput) (*model.ActionItem, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	item, manager, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !manager && in.AssignedTo != nil && *in.AssignedTo != deref(item.AssignedTo) {
		return nil, apperr.Forbidden("only administrators can reassign action items")
	}

	prevAssignee := deref(item.AssignedTo)
	if in.Title != nil {
		item.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Priority != nil {
		item.Priority = *in.Priority
	}
	if in.DueDate != nil {
		item.DueDate = in.DueDate
	}
	if in.AssignedTo != nil {
		if *in.AssignedTo == "" {
			item.AssignedTo = nil
		} else {
			if err := s.checkAssignee(ctx, item.OrganizationID, *in.AssignedTo); err != nil {
				return nil, err
			}
			assignee := *in.AssignedTo
			item.AssignedTo = &assignee
		}
	}

	item, err = s.save(ctx, actor, item, "update")
	if err != nil {
		return nil, err
	}
	if deref(item.AssignedTo) != prevAssignee {
		s.notifyAssignee(ctx, actor, item)
	}
	return item, nil
}

// SetStatus changes the status of an action item. Completing records
// CompletedAt; any other status clears it.
func (s *ActionItemService) SetStatus(ctx context.Context, actor *identity.Identity, id string, status model.ActionItemStatus) (*model.ActionItem, error) {
	if !status.Valid() {
		return nil, apperr.Validation("status", "status must be one of open, in_progress, completed, cancelled")
	}
	item, _, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if item.Status == status {
		return item, nil
	}

	item.Status = status
	if status == model.ActionCompleted {
		now := s.now()
		item.CompletedAt = &now
	} else {
		item.CompletedAt = nil
	}
	return s.save(ctx, actor, item, "status")
}

// Delete removes an action item
func (s *ActionItemService) Delete(ctx context.Context, actor *identity.Identity, id string) error {
	item, err := s.stores().ActionItems.Get(ctx, id)
	if err != nil {
		return notFoundAs(err, "action item", id)
	}
	if _, err := s.authorizeResource(ctx, actor, item.OrganizationID, authz.ObjActionItem, authz.ActDelete, "action item", id); err != nil {
		return err
	}

	err = s.stores().ActionItems.Delete(ctx, id)
	audit.Log(audit.ActionItemEvent{Common: s.common(actor, item.OrganizationID, "delete", err), ActionItemID: id})
	if err != nil {
		return notFoundAs(err, "action item", id)
	}
	s.invalidate(ctx, cache.OrgTag(item.OrganizationID))
	return nil
}

// load fetches an action item the actor may change. manager is true for
// actors who may change any item of the organization.
func (s *ActionItemService) load(ctx context.Context, actor *identity.Identity, id string) (*model.ActionItem, bool, error) {
	item, err := s.stores().ActionItems.Get(ctx, id)
	if err != nil {
		return nil, false, notFoundAs(err, "action item", id)
	}
	m, err := s.authorizeResource(ctx, actor, item.OrganizationID, authz.ObjActionItem, authz.ActUpdate, "action item", id)
	if err != nil {
		return nil, false, err
	}
	manager := s.deps.Authz.RoleCan(m.Role, authz.ObjActionItem, authz.ActManage)
	if !manager && deref(item.AssignedTo) != actor.UserID {
		return nil, false, apperr.Forbidden("you can only change action items assigned to you")
	}
	return item, manager, nil
}

func (s *ActionItemService) save(ctx context.Context, actor *identity.Identity, item *model.ActionItem, action string) (*model.ActionItem, error) {
	err := s.stores().ActionItems.Update(ctx, item)
	audit.Log(audit.ActionItemEvent{
		Common:       s.common(actor, item.OrganizationID, action, err),
		ActionItemID: item.ID,
		AssignedTo:   deref(item.AssignedTo),
		Status:       string(item.Status),
	})
	if err != nil {
		return nil, notFoundAs(err, "action item", item.ID)
	}
	s.invalidate(ctx, cache.OrgTag(item.OrganizationID))
	s.publish(ctx, realtime.ActionItemUpdated, item.OrganizationID, "", item)
	return item, nil
}

func (s *ActionItemService) checkAssignee(ctx context.Context, orgID, userID string) error {
	m, err := s.stores().Members.Get(ctx, orgID, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.From(err)
	}
	if err != nil || !m.IsActive() {
		return apperr.Validation("assigned_to", "assignee is not an active member of the organization")
	}
	return nil
}

func (s *ActionItemService) notifyAssignee(ctx context.Context, actor *identity.Identity, item *model.ActionItem) {
	assignee := deref(item.AssignedTo)
	if assignee == "" || assignee == actor.UserID {
		return
	}
	msg := item.Title
	if item.DueDate != nil {
		msg = fmt.Sprintf("%s (due %s)", item.Title, item.DueDate.Format("2006-01-02"))
	}
	s.notify(ctx, &model.Notification{
		UserID:         assignee,
		OrganizationID: strPtr(item.OrganizationID),
		Type:           "action_item_assigned",
		Title:          "Action item assigned to you",
		Message:        msg,
		Priority:       item.Priority,
		ResourceType:   "action_item",
		ResourceID:     item.ID,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
