package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

func testMeeting(status model.MeetingStatus) *model.BoardMeeting {
	return &model.BoardMeeting{
		ID:             "meeting-1",
		OrganizationID: "org-1",
		Title:          "Q3 board meeting",
		Status:         status,
		ScheduledStart: fixedNow.Add(24 * time.Hour),
		ScheduledEnd:   fixedNow.Add(26 * time.Hour),
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to model.MeetingStatus
		allowed  bool
	}{
		{model.MeetingDraft, model.MeetingScheduled, true},
		{model.MeetingDraft, model.MeetingCancelled, true},
		{model.MeetingDraft, model.MeetingInProgress, false},
		{model.MeetingScheduled, model.MeetingInProgress, true},
		{model.MeetingScheduled, model.MeetingDraft, true},
		{model.MeetingScheduled, model.MeetingCompleted, false},
		{model.MeetingInProgress, model.MeetingCompleted, true},
		{model.MeetingInProgress, model.MeetingCancelled, false},
		{model.MeetingCompleted, model.MeetingInProgress, false},
		{model.MeetingCancelled, model.MeetingScheduled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCreateMeeting(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "admin", model.RoleAdmin)
	h.member("org-1", "member", model.RoleMember)
	h.mocks.Meetings.On("Create", anyCtx, mock.AnythingOfType("*model.BoardMeeting")).Return(nil)

	in := MeetingInput{
		Title:          "  Annual meeting ",
		ScheduledStart: fixedNow.Add(time.Hour),
		ScheduledEnd:   fixedNow.Add(3 * time.Hour),
	}
	m, err := h.svc.Meetings.Create(bg(), actor("admin"), "org-1", in)
	require.NoError(t, err)
	assert.Equal(t, "Annual meeting", m.Title)
	assert.Equal(t, model.MeetingDraft, m.Status)
	assert.NotNil(t, m.Agenda)
	assert.Equal(t, []realtime.EventType{realtime.MeetingCreated}, h.pub.types())

	_, err = h.svc.Meetings.Create(bg(), actor("member"), "org-1", in)
	assertCode(t, err, apperr.CodeForbidden)

	in.ScheduledEnd = in.ScheduledStart
	_, err = h.svc.Meetings.Create(bg(), actor("admin"), "org-1", in)
	assertCode(t, err, apperr.CodeValidation)
}

func TestTransitionStartsMeeting(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "admin", model.RoleAdmin)
	h.mocks.Meetings.On("Get", anyCtx, "meeting-1").Return(testMeeting(model.MeetingScheduled), nil)
	h.mocks.Meetings.On("Transition", anyCtx, mock.AnythingOfType("*model.BoardMeeting"), model.MeetingScheduled).Return(nil)

	m, err := h.svc.Meetings.Transition(bg(), actor("admin"), "meeting-1", model.MeetingInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.MeetingInProgress, m.Status)
	require.NotNil(t, m.StartedAt)
	assert.Equal(t, fixedNow, *m.StartedAt)
	assert.Nil(t, m.EndedAt)
}

func TestTransitionRejected(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "admin", model.RoleAdmin)
	h.mocks.Meetings.On("Get", anyCtx, "meeting-1").Return(testMeeting(model.MeetingCompleted), nil)

	_, err := h.svc.Meetings.Transition(bg(), actor("admin"), "meeting-1", model.MeetingInProgress)
	assertCode(t, err, apperr.CodeBusinessRule)
	assert.Equal(t, "completed", apperr.From(err).Details["from"])

	_, err = h.svc.Meetings.Transition(bg(), actor("admin"), "meeting-1", model.MeetingStatus("postponed"))
	assertCode(t, err, apperr.CodeValidation)
	h.mocks.Meetings.AssertNotCalled(t, "Transition", anyCtx, mock.Anything, mock.Anything)
}

func TestConcurrentTransitionLoses(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "admin", model.RoleAdmin)
	h.mocks.Meetings.On("Get", anyCtx, "meeting-1").Return(testMeeting(model.MeetingDraft), nil)
	h.mocks.Meetings.On("Transition", anyCtx, mock.MatchedBy(func(m *model.BoardMeeting) bool {
		return m.Status == model.MeetingCancelled
	}), model.MeetingDraft).Return(store.ErrStale)

	_, err := h.svc.Meetings.Transition(bg(), actor("admin"), "meeting-1", model.MeetingCancelled)
	assertCode(t, err, apperr.CodeBusinessRule)
	assert.Equal(t, "draft", apperr.From(err).Details["from"])
	assert.Empty(t, h.pub.types())
}

func TestTransitionOutsideOrganization(t *testing.T) {
	h := newHarness(t)
	h.mocks.Members.On("Get", anyCtx, "org-1", "stranger").Return(nil, store.ErrNotFound)
	h.mocks.Meetings.On("Get", anyCtx, "meeting-1").Return(testMeeting(model.MeetingDraft), nil)

	_, err := h.svc.Meetings.Transition(bg(), actor("stranger"), "meeting-1", model.MeetingScheduled)
	assertCode(t, err, apperr.CodeNotFound)
	assert.Equal(t, "meeting not found", apperr.From(err).Message)
}

func TestSchedulingNotifiesMembers(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "admin", model.RoleAdmin)
	h.mocks.Meetings.On("Get", anyCtx, "meeting-1").Return(testMeeting(model.MeetingDraft), nil)
	h.mocks.Meetings.On("Transition", anyCtx, mock.AnythingOfType("*model.BoardMeeting"), model.MeetingDraft).Return(nil)
	h.mocks.Members.On("ActiveUserIDs", anyCtx, "org-1").Return([]string{"admin", "user-2", "user-3"}, nil)
	h.mocks.Notifications.On("Create", anyCtx, mock.MatchedBy(func(n *model.Notification) bool {
		return n.Type == "meeting_scheduled" && n.Priority == model.PriorityHigh && n.UserID != "admin"
	})).Return(nil).Times(2)

	_, err := h.svc.Meetings.Transition(bg(), actor("admin"), "meeting-1", model.MeetingScheduled)
	require.NoError(t, err)

	h.mocks.AssertExpectations(t)
	assert.Equal(t, []realtime.EventType{
		realtime.MeetingUpdated,
		realtime.NotificationCreated,
		realtime.NotificationCreated,
	}, h.pub.types())
	assert.Equal(t, "user-2", h.pub.events[1].UserID)
}

func TestAppendTranscriptNumbersSegments(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "admin", model.RoleAdmin)
	h.mocks.Meetings.On("Get", anyCtx, "meeting-1").Return(testMeeting(model.MeetingInProgress), nil)
	h.mocks.Meetings.On("LastSequence", anyCtx, "meeting-1").Return(7, nil)
	h.mocks.Meetings.On("AppendTranscript", anyCtx, mock.AnythingOfType("[]model.TranscriptSegment")).Return(nil)

	segments, err := h.svc.Meetings.AppendTranscript(bg(), actor("admin"), "meeting-1", TranscriptInput{
		Segments: []SegmentInput{
			{Speaker: " Chair ", Text: "Call to order", StartMs: 0, EndMs: 1500},
			{Speaker: "CFO", Text: "Revenue is up", StartMs: 1500, EndMs: 4000},
		},
	})
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, 8, segments[0].Sequence)
	assert.Equal(t, 9, segments[1].Sequence)
	assert.Equal(t, "Chair", segments[0].Speaker)
	assert.Equal(t, 1, h.tx.Calls)
}

func TestAppendTranscriptRules(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "admin", model.RoleAdmin)
	h.mocks.Meetings.On("Get", anyCtx, "meeting-1").Return(testMeeting(model.MeetingScheduled), nil)

	in := TranscriptInput{Segments: []SegmentInput{{Text: "hello", StartMs: 10, EndMs: 20}}}
	_, err := h.svc.Meetings.AppendTranscript(bg(), actor("admin"), "meeting-1", in)
	assertCode(t, err, apperr.CodeBusinessRule)

	_, err = h.svc.Meetings.AppendTranscript(bg(), actor("admin"), "meeting-1", TranscriptInput{})
	assertCode(t, err, apperr.CodeValidation)

	in.Segments[0].EndMs = 5
	_, err = h.svc.Meetings.AppendTranscript(bg(), actor("admin"), "meeting-1", in)
	assertCode(t, err, apperr.CodeValidation)
}

func TestRequestMinutes(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "member", model.RoleMember)
	h.mocks.Meetings.On("Get", anyCtx, "meeting-1").Return(testMeeting(model.MeetingCompleted), nil)
	h.mocks.Meetings.On("LastSequence", anyCtx, "meeting-1").Return(3, nil).Once()
	h.mocks.Jobs.On("FindActive", anyCtx, model.JobGenerateMinutes, "meeting-1").Return(nil, store.ErrNotFound)
	h.mocks.Jobs.On("Create", anyCtx, mock.MatchedBy(func(j *model.AIJob) bool {
		return j.Type == model.JobGenerateMinutes && j.RequestedBy == "member" && j.OrganizationID == "org-1"
	})).Return(nil)

	job, err := h.svc.Meetings.RequestMinutes(bg(), actor("member"), "meeting-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, job.Status)

	h.mocks.Meetings.On("LastSequence", anyCtx, "meeting-1").Return(0, nil)
	_, err = h.svc.Meetings.RequestActionItems(bg(), actor("member"), "meeting-1")
	assertCode(t, err, apperr.CodeBusinessRule)
}

func TestRenderMinutesHTML(t *testing.T) {
	out, err := RenderMinutesHTML("# Minutes\n\n- **Resolved:** approve budget\nline one\nline two")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Minutes</h1>")
	assert.Contains(t, out, "<strong>Resolved:</strong>")
	assert.Contains(t, out, "line one<br />")

	fenced, err := RenderMinutesHTML("```markdown\n# Minutes\n```")
	require.NoError(t, err)
	assert.Contains(t, fenced, "<h1>Minutes</h1>")
	assert.NotContains(t, fenced, "<code>")

	raw, err := RenderMinutesHTML("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, raw, "<script>")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "body", stripCodeFence("```\nbody\n```"))
	assert.Equal(t, "# x", stripCodeFence("  ```md\n# x\n```  "))
	assert.Equal(t, "plain", stripCodeFence("plain"))
	assert.Equal(t, "```inline```", stripCodeFence("```inline```"))
}
