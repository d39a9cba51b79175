package jobs

import (
	"context"
	"errors"

	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Queue enqueues AI jobs
type Queue struct {
	jobs store.JobsStore
}

func NewQueue(jobs store.JobsStore) *Queue {
	return &Queue{jobs: jobs}
}

// Enqueue inserts a pending job. When a pending or running job of the same
// type already exists for the resource it is returned instead and created
// is false.
func (q *Queue) Enqueue(ctx context.Context, orgID string, jobType model.JobType, resourceID, requestedBy string) (job *model.AIJob, created bool, err error) {
	existing, err := q.jobs.FindActive(ctx, jobType, resourceID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	job = &model.AIJob{
		OrganizationID: orgID,
		Type:           jobType,
		ResourceID:     resourceID,
		Status:         model.JobPending,
		MaxAttempts:    config.Get().JobMaxAttempts,
		RequestedBy:    requestedBy,
	}
	if err := q.jobs.Create(ctx, job); err != nil {
		// lost a race with a concurrent request for the same resource
		if errors.Is(err, store.ErrConflict) {
			if existing, findErr := q.jobs.FindActive(ctx, jobType, resourceID); findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	logging.Ctx(ctx).Info().
		Str("job_id", job.ID).
		Str("type", string(jobType)).
		Str("resource_id", resourceID).
		Msg("AI job enqueued")
	return job, true, nil
}

// Get returns a job of the organization
func (q *Queue) Get(ctx context.Context, orgID, id string) (*model.AIJob, error) {
	job, err := q.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return job, nil
}
