package service

import (
	"context"

	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
)

// JobService reports on queued AI jobs
type JobService struct {
	base
}

// Get returns an AI job of the organization
func (s *JobService) Get(ctx context.Context, actor *identity.Identity, orgID, id string) (*model.AIJob, error) {
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjJob, authz.ActRead); err != nil {
		return nil, err
	}
	job, err := s.deps.Queue.Get(ctx, orgID, id)
	if err != nil {
		return nil, notFoundAs(err, "job", id)
	}
	return job, nil
}
