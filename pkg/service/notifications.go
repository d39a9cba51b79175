package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/jobs"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// NotificationService manages the in-app notification feed
type NotificationService struct {
	base
}

var _ jobs.Notifier = (*NotificationService)(nil)

// Notify stores a notification and pushes it to the user's connections
func (s *NotificationService) Notify(ctx context.Context, n *model.Notification) error {
	if n.UserID == "" {
		return apperr.Validation("user_id", "notification needs a recipient")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Priority == "" {
		n.Priority = model.PriorityMedium
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if err := s.stores().Notifications.Create(ctx, n); err != nil {
		return apperr.From(err)
	}
	s.publish(ctx, realtime.NotificationCreated, deref(n.OrganizationID), n.UserID, n)
	return nil
}

// List lists the actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actor *identity.Identity, filter store.NotificationFilter, opts store.ListOptions) (Page[model.Notification], error) {
	items, total, err := s.stores().Notifications.List(ctx, actor.UserID, filter, opts)
	if err != nil {
		return Page[model.Notification]{}, apperr.From(err)
	}
	return newPage(items, total, opts), nil
}

// UnreadCount counts the actor's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, actor *identity.Identity) (int64, error) {
	n, err := s.stores().Notifications.UnreadCount(ctx, actor.UserID)
	if err != nil {
		return 0, apperr.From(err)
	}
	return n, nil
}

// MarkRead marks notifications read. IDs of other users are ignored.
func (s *NotificationService) MarkRead(ctx context.Context, actor *identity.Identity, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("ids", "ids is required")
	}
	if len(ids) > 500 {
		return 0, apperr.Validation("ids", "at most 500 notifications can be marked at once")
	}
	n, err := s.stores().Notifications.MarkRead(ctx, actor.UserID, ids, s.now())
	if err != nil {
		return 0, apperr.From(err)
	}
	return n, nil
}

// MarkAllRead marks every notification of the actor read
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *identity.Identity) (int64, error) {
	n, err := s.stores().Notifications.MarkAllRead(ctx, actor.UserID, s.now())
	if err != nil {
		return 0, apperr.From(err)
	}
	return n, nil
}

// Archive hides a notification from the default feed
func (s *NotificationService) Archive(ctx context.Context, actor *identity.Identity, id string) error {
	if err := s.stores().Notifications.Archive(ctx, actor.UserID, id, s.now()); err != nil {
		return notFoundAs(err, "notification", id)
	}
	return nil
}
