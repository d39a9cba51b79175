package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/metrics"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

const (
	// DefaultBatchSize is the number of jobs claimed per tick
	DefaultBatchSize = 5

	// DefaultRetryBase is the delay before the first retry
	DefaultRetryBase = 30 * time.Second

	handlerTimeout = 5 * time.Minute

	// DefaultLease is how long a claimed job may stay running before
	// another worker reclaims it
	DefaultLease = handlerTimeout + time.Minute
)

// Handler processes one job and returns a JSON-encodable result
type Handler func(ctx context.Context, job *model.AIJob) (interface{}, error)

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

// Worker claims and runs due jobs
type Worker struct {
	jobs      store.JobsStore
	handlers  map[model.JobType]Handler
	notifier  Notifier
	publisher realtime.Publisher

	BatchSize int
	RetryBase time.Duration
	Lease     time.Duration
	now       func() time.Time

	cron *cron.Cron
	log  zerolog.Logger
}

// NewWorker creates a worker without handlers; see Handle and RegisterDefaults
func NewWorker(jobs store.JobsStore, notifier Notifier, publisher realtime.Publisher) *Worker {
	if publisher == nil {
		publisher = realtime.NoopPublisher{}
	}
	return &Worker{
		jobs:      jobs,
		handlers:  make(map[model.JobType]Handler),
		notifier:  notifier,
		publisher: publisher,
		BatchSize: DefaultBatchSize,
		RetryBase: DefaultRetryBase,
		Lease:     DefaultLease,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logging.With("jobs"),
	}
}

// Handle registers the handler of a job type
func (w *Worker) Handle(t model.JobType, h Handler) {
	w.handlers[t] = h
}

// Start polls on schedule, a robfig/cron spec such as "@every 15s". Ticks
// are skipped while the previous one is still running.
func (w *Worker) Start(schedule string) error {
	w.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := w.cron.AddFunc(schedule, func() {
		if _, err := w.RunOnce(context.Background()); err != nil {
			w.log.Error().Err(err).Msg("job poll failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid job poll schedule %q: %w", schedule, err)
	}
	w.cron.Start()
	w.log.Info().Str("schedule", schedule).Msg("job worker started")
	return nil
}

// Stop stops polling and waits for running jobs to finish
func (w *Worker) Stop() {
	if w.cron == nil {
		return
	}
	// Done fires once running ticks have returned
	<-w.cron.Stop().Done()
	w.log.Info().Msg("job worker stopped")
}

// RunOnce claims the due jobs and runs them sequentially. It returns the
// number of jobs processed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	claimed, err := w.jobs.ClaimDue(ctx, w.now(), w.Lease, w.BatchSize)
	if err != nil {
		return 0, err
	}
	for i := range claimed {
		w.process(ctx, &claimed[i])
	}
	return len(claimed), nil
}

func (w *Worker) process(ctx context.Context, job *model.AIJob) {
	log := w.log.With().Str("job_id", job.ID).Str("type", string(job.Type)).Logger()
	start := time.Now()

	// reclaimed after a lost run that used up the last attempt
	if job.Attempts >= w.maxAttempts(job) {
		msg := job.LastError
		if msg == "" {
			msg = "job exceeded its attempts"
		}
		w.fail(ctx, job, msg, apperr.Unavailable(msg, nil), start, log)
		return
	}

	handler, ok := w.handlers[job.Type]
	if !ok {
		w.finish(ctx, job, nil, apperr.BusinessRule("no handler for job type "+string(job.Type)), start, log)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	result, err := runHandler(hctx, handler, job)
	cancel()
	w.finish(ctx, job, result, err, start, log)
}

// runHandler converts a handler panic into an internal error
func runHandler(ctx context.Context, h Handler, job *model.AIJob) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Internal(fmt.Errorf("job handler panic: %v", r))
		}
	}()
	return h(ctx, job)
}

func (w *Worker) finish(ctx context.Context, job *model.AIJob, result interface{}, err error, start time.Time, log zerolog.Logger) {
	duration := time.Since(start)

	if err == nil {
		if cerr := w.jobs.Complete(ctx, job.ID, model.MustJSON(result)); cerr != nil {
			log.Error().Err(cerr).Msg("failed to mark job completed")
			return
		}
		job.Status = model.JobCompleted
		metrics.RecordJob(string(job.Type), "completed", duration)
		log.Info().Dur("duration", duration).Msg("job completed")
		w.announce(ctx, job, realtime.JobCompleted, "")
		return
	}

	prevAttempts := job.Attempts
	job.Attempts++
	maxAttempts := w.maxAttempts(job)
	msg := apperr.From(err).Message
	if cause := apperr.From(err).Err; cause != nil {
		msg += ": " + cause.Error()
	}

	if apperr.IsRecoverable(err) && job.Attempts < maxAttempts {
		runAfter := w.now().Add(w.RetryBase << uint(prevAttempts))
		if rerr := w.jobs.Reschedule(ctx, job.ID, job.Attempts, runAfter, msg); rerr != nil {
			log.Error().Err(rerr).Msg("failed to reschedule job")
			return
		}
		metrics.RecordJob(string(job.Type), "retry", duration)
		log.Warn().Err(err).Int("attempts", job.Attempts).Time("run_after", runAfter).Msg("job failed, retry scheduled")
		return
	}

	w.fail(ctx, job, msg, err, start, log)
}

func (w *Worker) fail(ctx context.Context, job *model.AIJob, msg string, err error, start time.Time, log zerolog.Logger) {
	if ferr := w.jobs.Fail(ctx, job.ID, job.Attempts, msg); ferr != nil {
		log.Error().Err(ferr).Msg("failed to mark job failed")
		return
	}
	job.Status = model.JobFailed
	job.LastError = msg
	metrics.RecordJob(string(job.Type), "failed", time.Since(start))
	log.Error().Err(err).Int("attempts", job.Attempts).Msg("job failed")
	w.announce(ctx, job, realtime.JobFailed, apperr.From(err).Message)
}

func (w *Worker) maxAttempts(job *model.AIJob) int {
	if job.MaxAttempts > 0 {
		return job.MaxAttempts
	}
	return config.Get().JobMaxAttempts
}

var jobTitles = map[model.JobType]string{
	model.JobSummarizeAsset:     "Document summary",
	model.JobGenerateMinutes:    "Meeting minutes",
	model.JobExtractActionItems: "Action item extraction",
}

// announce publishes the job outcome and notifies the requester
func (w *Worker) announce(ctx context.Context, job *model.AIJob, evType realtime.EventType, reason string) {
	payload := map[string]interface{}{
		"job_id":      job.ID,
		"type":        job.Type,
		"resource_id": job.ResourceID,
		"status":      job.Status,
	}
	if err := w.publisher.Publish(ctx, realtime.NewEvent(evType, job.OrganizationID, job.RequestedBy, payload)); err != nil {
		w.log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to publish job event")
	}

	if w.notifier == nil {
		return
	}
	title := jobTitles[job.Type]
	n := &model.Notification{
		UserID:         job.RequestedBy,
		OrganizationID: &job.OrganizationID,
		Type:           string(evType),
		Title:          title + " ready",
		Message:        "Your " + title + " request has finished.",
		Priority:       model.PriorityLow,
		ResourceType:   resourceTypes[job.Type],
		ResourceID:     job.ResourceID,
	}
	if evType == realtime.JobFailed {
		n.Title = title + " failed"
		n.Message = reason
		n.Priority = model.PriorityHigh
	}
	if err := w.notifier.Notify(ctx, n); err != nil {
		w.log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to notify job requester")
	}
}

var resourceTypes = map[model.JobType]string{
	model.JobSummarizeAsset:     "asset",
	model.JobGenerateMinutes:    "meeting",
	model.JobExtractActionItems: "meeting",
}
