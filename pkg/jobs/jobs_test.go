package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/server/store/storetest"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, notification *model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []realtime.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestWorker(jobs store.JobsStore) (*Worker, *recordingNotifier, *recordingPublisher) {
	n := &recordingNotifier{}
	p := &recordingPublisher{}
	w := NewWorker(jobs, n, p)
	w.now = func() time.Time { return fixedNow }
	w.RetryBase = time.Minute
	return w, n, p
}

func testJob(attempts int) model.AIJob {
	return model.AIJob{
		ID:             "job-1",
		OrganizationID: "org-1",
		Type:           model.JobSummarizeAsset,
		ResourceID:     "asset-1",
		Status:         model.JobRunning,
		Attempts:       attempts,
		MaxAttempts:    3,
		RequestedBy:    "user-1",
	}
}

func TestEnqueueCreatesJob(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("FindActive", mock.Anything, model.JobSummarizeAsset, "asset-1").Return(nil, store.ErrNotFound)
	m.Jobs.On("Create", mock.Anything, mock.MatchedBy(func(j *model.AIJob) bool {
		return j.OrganizationID == "org-1" && j.Status == model.JobPending && j.RequestedBy == "user-1" && j.MaxAttempts == 3
	})).Return(nil)

	job, created, err := NewQueue(m.Jobs).Enqueue(context.Background(), "org-1", model.JobSummarizeAsset, "asset-1", "user-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.JobSummarizeAsset, job.Type)
	m.AssertExpectations(t)
}

func TestEnqueueReturnsActiveJob(t *testing.T) {
	m := storetest.New()
	active := &model.AIJob{ID: "existing", Status: model.JobRunning}
	m.Jobs.On("FindActive", mock.Anything, model.JobGenerateMinutes, "meeting-1").Return(active, nil)

	job, created, err := NewQueue(m.Jobs).Enqueue(context.Background(), "org-1", model.JobGenerateMinutes, "meeting-1", "user-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "existing", job.ID)
	m.Jobs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnqueueLosesRace(t *testing.T) {
	m := storetest.New()
	winner := &model.AIJob{ID: "winner"}
	m.Jobs.On("FindActive", mock.Anything, model.JobGenerateMinutes, "meeting-1").Return(nil, store.ErrNotFound).Once()
	m.Jobs.On("Create", mock.Anything, mock.Anything).Return(store.ErrConflict)
	m.Jobs.On("FindActive", mock.Anything, model.JobGenerateMinutes, "meeting-1").Return(winner, nil).Once()

	job, created, err := NewQueue(m.Jobs).Enqueue(context.Background(), "org-1", model.JobGenerateMinutes, "meeting-1", "user-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "winner", job.ID)
}

func TestQueueGetScopesToOrganization(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("Get", mock.Anything, "job-1").Return(&model.AIJob{ID: "job-1", OrganizationID: "org-2"}, nil)

	_, err := NewQueue(m.Jobs).Get(context.Background(), "org-1", "job-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunOnceCompletesJob(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("ClaimDue", mock.Anything, fixedNow, DefaultLease, DefaultBatchSize).Return([]model.AIJob{testJob(0)}, nil)
	m.Jobs.On("Complete", mock.Anything, "job-1", model.JSON(`{"ok":true}`)).Return(nil)

	w, n, p := newTestWorker(m.Jobs)
	w.Handle(model.JobSummarizeAsset, func(ctx context.Context, job *model.AIJob) (interface{}, error) {
		return map[string]bool{"ok": true}, nil
	})

	count, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	m.AssertExpectations(t)

	assert.Equal(t, []realtime.EventType{realtime.JobCompleted}, p.types())
	require.Len(t, n.sent, 1)
	assert.Equal(t, "user-1", n.sent[0].UserID)
	assert.Equal(t, "Document summary ready", n.sent[0].Title)
	assert.Equal(t, "asset", n.sent[0].ResourceType)
}

func TestRecoverableFailureIsRescheduled(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("ClaimDue", mock.Anything, fixedNow, DefaultLease, DefaultBatchSize).Return([]model.AIJob{testJob(1)}, nil)
	// second attempt failed: wait base * 2^1
	m.Jobs.On("Reschedule", mock.Anything, "job-1", 2, fixedNow.Add(2*time.Minute), mock.Anything).Return(nil)

	w, n, p := newTestWorker(m.Jobs)
	w.Handle(model.JobSummarizeAsset, func(ctx context.Context, job *model.AIJob) (interface{}, error) {
		return nil, apperr.Unavailable("provider overloaded", nil)
	})

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	m.AssertExpectations(t)
	assert.Empty(t, p.types())
	assert.Empty(t, n.sent)
}

func TestRetriesStopAtMaxAttempts(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("ClaimDue", mock.Anything, fixedNow, DefaultLease, DefaultBatchSize).Return([]model.AIJob{testJob(2)}, nil)
	m.Jobs.On("Fail", mock.Anything, "job-1", 3, "provider overloaded").Return(nil)

	w, n, p := newTestWorker(m.Jobs)
	w.Handle(model.JobSummarizeAsset, func(ctx context.Context, job *model.AIJob) (interface{}, error) {
		return nil, apperr.Unavailable("provider overloaded", nil)
	})

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	m.AssertExpectations(t)
	m.Jobs.AssertNotCalled(t, "Reschedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	assert.Equal(t, []realtime.EventType{realtime.JobFailed}, p.types())
	require.Len(t, n.sent, 1)
	assert.Equal(t, model.PriorityHigh, n.sent[0].Priority)
	assert.Equal(t, "provider overloaded", n.sent[0].Message)
}

func TestNonRecoverableFailureFailsImmediately(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("ClaimDue", mock.Anything, fixedNow, DefaultLease, DefaultBatchSize).Return([]model.AIJob{testJob(0)}, nil)
	m.Jobs.On("Fail", mock.Anything, "job-1", 1, mock.Anything).Return(nil)

	w, _, _ := newTestWorker(m.Jobs)
	w.Handle(model.JobSummarizeAsset, func(ctx context.Context, job *model.AIJob) (interface{}, error) {
		return nil, apperr.BusinessRule("cannot extract text")
	})

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestHandlerPanicFailsJob(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("ClaimDue", mock.Anything, fixedNow, DefaultLease, DefaultBatchSize).Return([]model.AIJob{testJob(0)}, nil)
	m.Jobs.On("Fail", mock.Anything, "job-1", 1, mock.Anything).Return(nil)

	w, _, _ := newTestWorker(m.Jobs)
	w.Handle(model.JobSummarizeAsset, func(ctx context.Context, job *model.AIJob) (interface{}, error) {
		panic("boom")
	})

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestMissingHandlerFailsJob(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("ClaimDue", mock.Anything, fixedNow, DefaultLease, DefaultBatchSize).Return([]model.AIJob{testJob(0)}, nil)
	m.Jobs.On("Fail", mock.Anything, "job-1", 1, mock.Anything).Return(nil)

	w, _, _ := newTestWorker(m.Jobs)
	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestReclaimedJobOutOfAttemptsFails(t *testing.T) {
	abandoned := testJob(3)
	abandoned.LastError = "worker lease expired before the job finished"
	m := storetest.New()
	m.Jobs.On("ClaimDue", mock.Anything, fixedNow, DefaultLease, DefaultBatchSize).Return([]model.AIJob{abandoned}, nil)
	m.Jobs.On("Fail", mock.Anything, "job-1", 3, "worker lease expired before the job finished").Return(nil)

	w, n, p := newTestWorker(m.Jobs)
	ran := false
	w.Handle(model.JobSummarizeAsset, func(ctx context.Context, job *model.AIJob) (interface{}, error) {
		ran = true
		return nil, nil
	})

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	m.AssertExpectations(t)
	assert.False(t, ran)
	assert.Equal(t, []realtime.EventType{realtime.JobFailed}, p.types())
	require.Len(t, n.sent, 1)
}

func TestRunOnceClaimError(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("ClaimDue", mock.Anything, fixedNow, DefaultLease, DefaultBatchSize).Return(nil, errors.New("connection refused"))

	w, _, _ := newTestWorker(m.Jobs)
	count, err := w.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, count)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	w, _, _ := newTestWorker(storetest.New().Jobs)
	assert.Error(t, w.Start("every now and then"))
}

func TestStartAndStop(t *testing.T) {
	m := storetest.New()
	m.Jobs.On("ClaimDue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]model.AIJob{}, nil).Maybe()

	w, _, _ := newTestWorker(m.Jobs)
	require.NoError(t, w.Start("@every 1s"))
	w.Stop()
}
