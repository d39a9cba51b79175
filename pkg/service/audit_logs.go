package service

import (
	"context"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// AuditService queries the persisted audit trail
type AuditService struct {
	base
}

// List lists the audit records of an organization, newest first
func (s *AuditService) List(ctx context.Context, actor *identity.Identity, orgID string, filter store.AuditFilter, opts store.ListOptions) (Page[model.AuditLog], error) {
	if filter.Since != nil && filter.Until != nil && filter.Until.Before(*filter.Since) {
		return Page[model.AuditLog]{}, apperr.Validation("until", "until must not be before since")
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjAuditLog, authz.ActRead); err != nil {
		return Page[model.AuditLog]{}, err
	}
	logs, total, err := s.stores().Audit.List(ctx, orgID, filter, opts)
	if err != nil {
		return Page[model.AuditLog]{}, apperr.From(err)
	}
	return newPage(logs, total, opts), nil
}
