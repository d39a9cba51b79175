package store

import (
	"context"
	"time"

	"github.com/appboardguru/boardguru/pkg/model"
)

// NotificationFilter narrows notification listings
type NotificationFilter struct {
	UnreadOnly      bool
	IncludeArchived bool
}

// NotificationsStore abstracts notification storage
type NotificationsStore interface {
	Create(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, userID string, filter NotificationFilter, opts ListOptions) ([]model.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)

	// MarkRead marks the user's notifications with the given IDs as read.
	// IDs belonging to other users are ignored.
	MarkRead(ctx context.Context, userID string, ids []string, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	Archive(ctx context.Context, userID, id string, at time.Time) error
}

// AuditFilter narrows audit log listings
type AuditFilter struct {
	Action       string
	UserID       string
	ResourceType string
	Since        *time.Time
	Until        *time.Time
}

// AuditStore abstracts audit log queries. Writes go through the audit package.
type AuditStore interface {
	List(ctx context.Context, orgID string, filter AuditFilter, opts ListOptions) ([]model.AuditLog, int64, error)
}

// JobsStore abstracts the AI processing job queue
type JobsStore interface {
	Create(ctx context.Context, job *model.AIJob) error
	Get(ctx context.Context, id string) (*model.AIJob, error)

	// FindActive returns a pending or running job for the resource
	FindActive(ctx context.Context, jobType model.JobType, resourceID string) (*model.AIJob, error)

	// ClaimDue marks up to limit due pending jobs as running and returns
	// them. Running jobs locked before now-lease were abandoned by their
	// worker; they are claimed again with the lost run counted as an
	// attempt. Concurrent claimers never receive the same job.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]model.AIJob, error)

	Complete(ctx context.Context, id string, result model.JSON) error
	Reschedule(ctx context.Context, id string, attempts int, runAfter time.Time, lastErr string) error
	Fail(ctx context.Context, id string, attempts int, lastErr string) error
}

// CacheStore abstracts the database cache layer
type CacheStore interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	Set(ctx context.Context, entry *model.CacheEntry) error
	Delete(ctx context.Context, key string) error
	DeleteByTag(ctx context.Context, tag string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
