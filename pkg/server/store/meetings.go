package store

import (
	"context"
	"time"

	"github.com/appboardguru/boardguru/pkg/model"
)

// MeetingFilter narrows meeting listings to a scheduled start range
type MeetingFilter struct {
	From *time.Time
	To   *time.Time
}

// MeetingsStore abstracts meeting and transcript storage
type MeetingsStore interface {
	Create(ctx context.Context, m *model.BoardMeeting) error
	Get(ctx context.Context, id string) (*model.BoardMeeting, error)
	List(ctx context.Context, orgID string, filter MeetingFilter, opts ListOptions) ([]model.BoardMeeting, int64, error)

	// Update writes the editable details of a meeting. Status, timestamps
	// and minutes are left untouched.
	Update(ctx context.Context, m *model.BoardMeeting) error

	// Transition writes m's status, StartedAt and EndedAt if the stored
	// status is still from, and returns ErrStale otherwise
	Transition(ctx context.Context, m *model.BoardMeeting, from model.MeetingStatus) error

	// SetMinutes stores generated minutes
	SetMinutes(ctx context.Context, id, minutes string) error

	// AppendTranscript inserts transcript segments
	AppendTranscript(ctx context.Context, segments []model.TranscriptSegment) error

	// Transcript returns the transcript ordered by sequence
	Transcript(ctx context.Context, meetingID string) ([]model.TranscriptSegment, error)

	// LastSequence returns the highest segment sequence, or 0 when empty
	LastSequence(ctx context.Context, meetingID string) (int, error)
}

// ActionItemFilter narrows action item listings
type ActionItemFilter struct {
	AssignedTo string
	MeetingID  string
	// OverdueAt, when set, keeps open items due before it
	OverdueAt *time.Time
}

// ActionItemsStore abstracts action item storage
type ActionItemsStore interface {
	Create(ctx context.Context, item *model.ActionItem) error
	Get(ctx context.Context, id string) (*model.ActionItem, error)
	List(ctx context.Context, orgID string, filter ActionItemFilter, opts ListOptions) ([]model.ActionItem, int64, error)
	Update(ctx context.Context, item *model.ActionItem) error
	Delete(ctx context.Context, id string) error
}

// ComplianceStore abstracts compliance requirement storage
type ComplianceStore interface {
	Create(ctx context.Context, req *model.ComplianceRequirement) error
	Get(ctx context.Context, id string) (*model.ComplianceRequirement, error)
	List(ctx context.Context, orgID string, opts ListOptions) ([]model.ComplianceRequirement, int64, error)
	Update(ctx context.Context, req *model.ComplianceRequirement) error

	// ListOverdue returns open requirements due before now
	ListOverdue(ctx context.Context, orgID string, now time.Time) ([]model.ComplianceRequirement, error)

	// CountByStatus counts requirements per status
	CountByStatus(ctx context.Context, orgID string) (map[model.ComplianceStatus]int64, error)

	// CountOpenDueBetween counts open requirements due in [from, to)
	CountOpenDueBetween(ctx context.Context, orgID string, from, to time.Time) (int64, error)
}
