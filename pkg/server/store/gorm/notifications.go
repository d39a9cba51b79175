package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Ensure NotificationsStore implements store.NotificationsStore
var _ store.NotificationsStore = (*NotificationsStore)(nil)

// NotificationsStore implements store.NotificationsStore using GORM
type NotificationsStore struct {
	db *gorm.DB
}

// NewNotificationsStore creates a new NotificationsStore
func NewNotificationsStore(db *gorm.DB) *NotificationsStore {
	return &NotificationsStore{db: db}
}

func (s *NotificationsStore) Create(ctx context.Context, n *model.Notification) error {
	return mapErr(s.db.WithContext(ctx).Create(n).Error)
}

func (s *NotificationsStore) List(ctx context.Context, userID string, filter store.NotificationFilter, opts store.ListOptions) ([]model.Notification, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ?", userID)
	if filter.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if !filter.IncludeArchived {
		q = q.Where("archived_at IS NULL")
	}
	return listPage[model.Notification](q, opts, map[string]string{"created_at": "created_at"}, "created_at DESC")
}

func (s *NotificationsStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL AND archived_at IS NULL", userID).
		Count(&n).Error
	return n, mapErr(err)
}

func (s *NotificationsStore) MarkRead(ctx context.Context, userID string, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND id IN ? AND read_at IS NULL", userID, ids).
		Update("read_at", at)
	return result.RowsAffected, mapErr(result.Error)
}

func (s *NotificationsStore) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	return result.RowsAffected, mapErr(result.Error)
}

func (s *NotificationsStore) Archive(ctx context.Context, userID, id string, at time.Time) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("archived_at", at))
}

// Ensure AuditStore implements store.AuditStore
var _ store.AuditStore = (*AuditStore)(nil)

// AuditStore implements store.AuditStore using GORM
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates a new AuditStore
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) List(ctx context.Context, orgID string, filter store.AuditFilter, opts store.ListOptions) ([]model.AuditLog, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.AuditLog{}).
		Where("organization_id = ?", orgID)
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ResourceType != "" {
		q = q.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.Since != nil {
		q = q.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		q = q.Where("created_at < ?", *filter.Until)
	}
	return listPage[model.AuditLog](q, opts, map[string]string{"created_at": "created_at"}, "created_at DESC")
}
