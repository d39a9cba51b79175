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

// meetingTransitions lists the allowed status changes
var meetingTransitions = map[model.MeetingStatus][]model.MeetingStatus{
	model.MeetingDraft:      {model.MeetingScheduled, model.MeetingCancelled},
	model.MeetingScheduled:  {model.MeetingInProgress, model.MeetingCancelled, model.MeetingDraft},
	model.MeetingInProgress: {model.MeetingCompleted},
}

// CanTransition reports whether a meeting may move from one status to another
func CanTransition(from, to model.MeetingStatus) bool {
	for _, s := range meetingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// MeetingService manages board meetings and their transcripts
type MeetingService struct {
	base
}

// MeetingInput is the body of a meeting creation request
type MeetingInput struct {
	Title          string       `json:"title" validate:"required,min=1,max=200"`
	Description    string       `json:"description" validate:"max=5000"`
	Location       string       `json:"location" validate:"max=200"`
	ScheduledStart time.Time    `json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time    `json:"scheduled_end" validate:"required,gtfield=ScheduledStart"`
	Agenda         model.Agenda `json:"agenda"`
}

// UpdateMeetingInput holds the fields to change; nil fields are kept
type UpdateMeetingInput struct {
	Title          *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string       `json:"description" validate:"omitempty,max=5000"`
	Location       *string       `json:"location" validate:"omitempty,max=200"`
	ScheduledStart *time.Time    `json:"scheduled_start"`
	ScheduledEnd   *time.Time    `json:"scheduled_end"`
	Agenda         *model.Agenda `json:"agenda"`
}

// SegmentInput is one transcript segment pushed by a client
type SegmentInput struct {
	Speaker string `json:"speaker" validate:"max=200"`
	Text    string `json:"text" validate:"required"`
	StartMs int64  `json:"start_ms" validate:"gte=0"`
	EndMs   int64  `json:"end_ms" validate:"gtefield=StartMs"`
}

// TranscriptInput is the body of a transcript append request
type TranscriptInput struct {
	Segments []SegmentInput `json:"segments" validate:"required,min=1,max=500,dive"`
}

// Create schedules a draft meeting
func (s *MeetingService) Create(ctx context.Context, actor *identity.Identity, orgID string, in MeetingInput) (*model.BoardMeeting, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjMeeting, authz.ActCreate); err != nil {
		return nil, err
	}

	m := &model.BoardMeeting{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Title:          in.Title,
		Description:    in.Description,
		Location:       in.Location,
		Status:         model.MeetingDraft,
		ScheduledStart: in.ScheduledStart.UTC(),
		ScheduledEnd:   in.ScheduledEnd.UTC(),
		Agenda:         in.Agenda,
		CreatedBy:      actor.UserID,
	}
	if m.Agenda == nil {
		m.Agenda = model.Agenda{}
	}

	err := s.stores().Meetings.Create(ctx, m)
	audit.Log(audit.MeetingEvent{Common: s.common(actor, orgID, "create", err), MeetingID: m.ID})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.invalidate(ctx, cache.OrgTag(orgID))
	s.publish(ctx, realtime.MeetingCreated, orgID, "", m)
	return m, nil
}

// List lists meetings, optionally by status and scheduled start range
func (s *MeetingService) List(ctx context.Context, actor *identity.Identity, orgID string, filter store.MeetingFilter, opts store.ListOptions) (Page[model.BoardMeeting], error) {
	if opts.Status != "" && !model.MeetingStatus(opts.Status).Valid() {
		return Page[model.BoardMeeting]{}, apperr.Validation("status", "unknown meeting status")
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjMeeting, authz.ActRead); err != nil {
		return Page[model.BoardMeeting]{}, err
	}
	meetings, total, err := s.stores().Meetings.List(ctx, orgID, filter, opts)
	if err != nil {
		return Page[model.BoardMeeting]{}, apperr.From(err)
	}
	return newPage(meetings, total, opts), nil
}

// Get returns a meeting
func (s *MeetingService) Get(ctx context.Context, actor *identity.Identity, id string) (*model.BoardMeeting, error) {
	return s.load(ctx, actor, id, authz.ActRead)
}

// Update edits a meeting that is neither completed nor cancelled
func (s *MeetingService) Update(ctx context.Context, actor *identity.Identity, id string, in UpdateMeetingInput) (*model.BoardMeeting, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	m, err := s.load(ctx, actor, id, authz.ActUpdate)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() {
		return nil, apperr.BusinessRule(fmt.Sprintf("a %s meeting cannot be changed", m.Status))
	}

	if in.Title != nil {
		m.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.Location != nil {
		m.Location = *in.Location
	}
	if in.ScheduledStart != nil {
		m.ScheduledStart = in.ScheduledStart.UTC()
	}
	if in.ScheduledEnd != nil {
		m.ScheduledEnd = in.ScheduledEnd.UTC()
	}
	if in.Agenda != nil {
		m.Agenda = *in.Agenda
	}
	if !m.ScheduledEnd.After(m.ScheduledStart) {
		return nil, apperr.Validation("scheduled_end", "scheduled_end must be after scheduled_start")
	}

	err = s.stores().Meetings.Update(ctx, m)
	audit.Log(audit.MeetingEvent{Common: s.common(actor, m.OrganizationID, "update", err), MeetingID: m.ID})
	if err != nil {
		return nil, notFoundAs(err, "meeting", id)
	}

	s.invalidate(ctx, cache.OrgTag(m.OrganizationID))
	s.publish(ctx, realtime.MeetingUpdated, m.OrganizationID, "", m)
	return m, nil
}

// Transition moves a meeting to another status. Starting a meeting records
// StartedAt and completing it records EndedAt. The write only applies if
// the status read is still current. Members are notified when a
// meeting is scheduled.
func (s *MeetingService) Transition(ctx context.Context, actor *identity.Identity, id string, to model.MeetingStatus) (*model.BoardMeeting, error) {
	if !to.Valid() {
		return nil, apperr.Validation("status", "unknown meeting status")
	}
	m, err := s.load(ctx, actor, id, authz.ActUpdate)
	if err != nil {
		return nil, err
	}
	from := m.Status
	if !CanTransition(from, to) {
		return nil, apperr.BusinessRule(fmt.Sprintf("a %s meeting cannot become %s", from, to)).
			WithDetail("from", string(from)).
			WithDetail("to", string(to))
	}

	now := s.now()
	m.Status = to
	switch to {
	case model.MeetingInProgress:
		m.StartedAt = &now
	case model.MeetingCompleted:
		m.EndedAt = &now
	}

	err = s.stores().Meetings.Transition(ctx, m, from)
	audit.Log(audit.MeetingEvent{
		Common:     s.common(actor, m.OrganizationID, "transition", err),
		MeetingID:  m.ID,
		FromStatus: string(from),
		ToStatus:   string(to),
	})
	if errors.Is(err, store.ErrStale) {
		return nil, apperr.BusinessRule(fmt.Sprintf("the meeting is no longer %s", from)).
			WithDetail("from", string(from)).
			WithDetail("to", string(to)).
			WithSuggestion("reload the meeting and retry").
			Wrap(err)
	}
	if err != nil {
		return nil, notFoundAs(err, "meeting", id)
	}

	s.invalidate(ctx, cache.OrgTag(m.OrganizationID))
	s.publish(ctx, realtime.MeetingUpdated, m.OrganizationID, "", m)
	if to == model.MeetingScheduled {
		s.notifyAttendees(ctx, actor, m)
	}
	return m, nil
}

// AppendTranscript adds segments to the transcript of a running or
// completed meeting, numbering them after the last stored segment
func (s *MeetingService) AppendTranscript(ctx context.Context, actor *identity.Identity, id string, in TranscriptInput) ([]model.TranscriptSegment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	m, err := s.load(ctx, actor, id, authz.ActUpdate)
	if err != nil {
		return nil, err
	}
	if m.Status != model.MeetingInProgress && m.Status != model.MeetingCompleted {
		return nil, apperr.BusinessRule("transcripts can only be recorded for meetings in progress or completed")
	}

	var segments []model.TranscriptSegment
	err = s.stores().Tx.WithinTx(ctx, func(tx store.Stores) error {
		last, err := tx.Meetings.LastSequence(ctx, m.ID)
		if err != nil {
			return err
		}
		segments = make([]model.TranscriptSegment, len(in.Segments))
		for i, seg := range in.Segments {
			segments[i] = model.TranscriptSegment{
				ID:        uuid.NewString(),
				MeetingID: m.ID,
				Speaker:   strings.TrimSpace(seg.Speaker),
				Text:      strings.TrimSpace(seg.Text),
				StartMs:   seg.StartMs,
				EndMs:     seg.EndMs,
				Sequence:  last + i + 1,
			}
		}
		return tx.Meetings.AppendTranscript(ctx, segments)
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	return segments, nil
}

// Transcript returns the full transcript of a meeting
func (s *MeetingService) Transcript(ctx context.Context, actor *identity.Identity, id string) ([]model.TranscriptSegment, error) {
	m, err := s.load(ctx, actor, id, authz.ActRead)
	if err != nil {
		return nil, err
	}
	segments, err := s.stores().Meetings.Transcript(ctx, m.ID)
	if err != nil {
		return nil, apperr.From(err)
	}
	if segments == nil {
		segments = []model.TranscriptSegment{}
	}
	return segments, nil
}

// RequestMinutes queues AI generation of the meeting minutes
func (s *MeetingService) RequestMinutes(ctx context.Context, actor *identity.Identity, id string) (*model.AIJob, error) {
	return s.enqueue(ctx, actor, id, model.JobGenerateMinutes, "minutes")
}

// RequestActionItems queues AI extraction of action items
func (s *MeetingService) RequestActionItems(ctx context.Context, actor *identity.Identity, id string) (*model.AIJob, error) {
	return s.enqueue(ctx, actor, id, model.JobExtractActionItems, "action_items")
}

func (s *MeetingService) enqueue(ctx context.Context, actor *identity.Identity, id string, jobType model.JobType, feature string) (*model.AIJob, error) {
	m, err := s.load(ctx, actor, id, authz.ActRead)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, m.OrganizationID, authz.ObjAI, authz.ActCreate); err != nil {
		return nil, err
	}
	last, err := s.stores().Meetings.LastSequence(ctx, m.ID)
	if err != nil {
		return nil, apperr.From(err)
	}
	if last == 0 {
		return nil, apperr.BusinessRule("the meeting has no transcript yet").
			WithSuggestion("record transcript segments before requesting AI processing")
	}

	job, created, err := s.deps.Queue.Enqueue(ctx, m.OrganizationID, jobType, m.ID, actor.UserID)
	if created || err != nil {
		audit.Log(audit.AIEvent{Common: s.common(actor, m.OrganizationID, "create", err), Feature: feature, ResourceID: m.ID})
	}
	if err != nil {
		return nil, apperr.From(err)
	}
	return job, nil
}

// notifyAttendees tells every other active member about a scheduled meeting
func (s *MeetingService) notifyAttendees(ctx context.Context, actor *identity.Identity, m *model.BoardMeeting) {
	userIDs, err := s.stores().Members.ActiveUserIDs(ctx, m.OrganizationID)
	if err != nil {
		s.log.Warn().Err(err).Str("meeting_id", m.ID).Msg("failed to list attendees")
		return
	}
	for _, userID := range userIDs {
		if userID == actor.UserID {
			continue
		}
		s.notify(ctx, &model.Notification{
			UserID:         userID,
			OrganizationID: strPtr(m.OrganizationID),
			Type:           "meeting_scheduled",
			Title:          "Meeting scheduled: " + m.Title,
			Message:        fmt.Sprintf("%s starts %s", m.Title, m.ScheduledStart.Format(time.RFC1123)),
			Priority:       model.PriorityHigh,
			ResourceType:   "meeting",
			ResourceID:     m.ID,
		})
	}
}

func (s *MeetingService) load(ctx context.Context, actor *identity.Identity, id string, action authz.Action) (*model.BoardMeeting, error) {
	m, err := s.stores().Meetings.Get(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "meeting", id)
	}
	if _, err := s.authorizeResource(ctx, actor, m.OrganizationID, authz.ObjMeeting, action, "meeting", id); err != nil {
		return nil, err
	}
	return m, nil
}
