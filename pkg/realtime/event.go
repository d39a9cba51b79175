package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a realtime event
type EventType string

const (
	MeetingCreated      EventType = "meeting_created"
	MeetingUpdated      EventType = "meeting_updated"
	NotificationCreated EventType = "notification_created"
	ActionItemCreated   EventType = "action_item_created"
	ActionItemUpdated   EventType = "action_item_updated"
	AssetUploaded       EventType = "asset_uploaded"
	AnnotationCreated   EventType = "annotation_created"
	JobCompleted        EventType = "job_completed"
	JobFailed           EventType = "job_failed"
	VaultUpdated        EventType = "vault_updated"
	// MemberRemoved tells a user they lost access to OrganizationID. Hubs
	// stop routing that organization's events to the user's connections.
	MemberRemoved EventType = "member_removed"
)

// Event is a message delivered to websocket clients. UserID, when set,
// restricts delivery to that user; otherwise every connected member of
// OrganizationID receives it.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	OrganizationID string      `json:"organization_id,omitempty"`
	UserID         string      `json:"user_id,omitempty"`
	Payload        interface{} `json:"payload,omitempty"`
	At             time.Time   `json:"at"`
	Origin         string      `json:"origin,omitempty"`
}

// NewEvent creates an event stamped with a fresh ID and the current time
func NewEvent(t EventType, orgID, userID string, payload interface{}) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           t,
		OrganizationID: orgID,
		UserID:         userID,
		Payload:        payload,
		At:             time.Now().UTC(),
	}
}

// Publisher delivers events to interested clients
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NoopPublisher discards every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, ev Event) error {
	return nil
}

var (
	_ Publisher = NoopPublisher{}
	_ Publisher = (*Hub)(nil)
	_ Publisher = (*NATSBridge)(nil)
)
