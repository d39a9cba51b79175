package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/appboardguru/boardguru/pkg/ai"
	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/jobs"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/storage"
)

// Deps are the collaborators shared by every service
type Deps struct {
	Stores    store.Stores
	Authz     *authz.Authorizer
	Publisher realtime.Publisher
	Cache     *cache.Manager
	Blobs     storage.BlobStore
	AI        *ai.Client
	Queue     *jobs.Queue
	Now       func() time.Time
}

// Page is one page of a list result
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func newPage[T any](items []T, total int64, opts store.ListOptions) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}
}

// Services bundles every service
type Services struct {
	Organizations *OrganizationService
	Members       *MemberService
	Invitations   *InvitationService
	Vaults        *VaultService
	Assets        *AssetService
	Annotations   *AnnotationService
	Meetings      *MeetingService
	ActionItems   *ActionItemService
	Compliance    *ComplianceService
	Notifications *NotificationService
	Chat          *ChatService
	Audit         *AuditService
	Jobs          *JobService
}

// New creates every service on d
func New(d Deps) *Services {
	if d.Publisher == nil {
		d.Publisher = realtime.NoopPublisher{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Queue == nil && d.Stores.Jobs != nil {
		d.Queue = jobs.NewQueue(d.Stores.Jobs)
	}

	notifications := &NotificationService{base: newBase(d, "notifications")}
	b := func(component string) base {
		nb := newBase(d, component)
		nb.notifier = notifications
		return nb
	}

	return &Services{
		Organizations: &OrganizationService{base: b("organizations")},
		Members:       &MemberService{base: b("members")},
		Invitations:   &InvitationService{base: b("invitations")},
		Vaults:        &VaultService{base: b("vaults")},
		Assets:        &AssetService{base: b("assets")},
		Annotations:   &AnnotationService{base: b("annotations")},
		Meetings:      &MeetingService{base: b("meetings")},
		ActionItems:   &ActionItemService{base: b("action-items")},
		Compliance:    &ComplianceService{base: b("compliance")},
		Notifications: notifications,
		Chat:          &ChatService{base: b("chat")},
		Audit:         &AuditService{base: b("audit")},
		Jobs:          &JobService{base: b("jobs")},
	}
}

// base carries the dependencies and helpers of a service
type base struct {
	deps     Deps
	notifier *NotificationService
	log      zerolog.Logger
}

func newBase(d Deps, component string) base {
	return base{deps: d, log: logging.With(component)}
}

func (b base) stores() store.Stores {
	return b.deps.Stores
}

func (b base) now() time.Time {
	return b.deps.Now()
}

// common fills the audit fields shared by every event
func (b base) common(actor *identity.Identity, orgID, action string, err error) audit.Common {
	c := audit.Common{
		UserID:         actor.UserID,
		ClientIP:       actor.IPString(),
		OrganizationID: orgID,
		Action:         action,
		Success:        err == nil,
	}
	if err != nil {
		c.ErrorMessage = apperr.From(err).Message
	}
	return c
}

// publish sends a realtime event; delivery problems are only logged
func (b base) publish(ctx context.Context, t realtime.EventType, orgID, userID string, payload interface{}) {
	if err := b.deps.Publisher.Publish(ctx, realtime.NewEvent(t, orgID, userID, payload)); err != nil {
		b.log.Warn().Err(err).Str("type", string(t)).Msg("failed to publish realtime event")
	}
}

// notify delivers an in-app notification; failures are only logged
func (b base) notify(ctx context.Context, n *model.Notification) {
	if b.notifier == nil || n.UserID == "" {
		return
	}
	if err := b.notifier.Notify(ctx, n); err != nil {
		b.log.Warn().Err(err).Str("user_id", n.UserID).Msg("failed to create notification")
	}
}

// invalidate drops cached responses tagged with the given tags
func (b base) invalidate(ctx context.Context, tags ...string) {
	if b.deps.Cache == nil {
		return
	}
	for _, tag := range tags {
		b.deps.Cache.InvalidateTag(ctx, tag)
	}
}

// authorize requires the actor to hold action on object in the organization
func (b base) authorize(ctx context.Context, actor *identity.Identity, orgID string, object authz.Object, action authz.Action) (*model.OrganizationMember, error) {
	return b.deps.Authz.Require(ctx, actor.UserID, orgID, object, action)
}

// authorizeResource is authorize for a resource reached by its own ID.
// Non-members learn nothing about the resource: they get NOT_FOUND for it
// rather than for its organization.
func (b base) authorizeResource(ctx context.Context, actor *identity.Identity, orgID string, object authz.Object, action authz.Action, resource, id string) (*model.OrganizationMember, error) {
	m, err := b.authorize(ctx, actor, orgID, object, action)
	if apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound(resource, id)
	}
	return m, err
}

// notFoundAs converts store.ErrNotFound into NOT_FOUND for resource
func notFoundAs(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if apperr.IsCode(err, apperr.CodeNotFound) {
		return apperr.NotFound(resource, id)
	}
	return apperr.From(err)
}

func strPtr(s string) *string {
	return &s
}
