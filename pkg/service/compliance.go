package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/validation"
)

// DueSoonWindow is how far ahead the dashboard looks for upcoming deadlines
const DueSoonWindow = 30 * 24 * time.Hour

// ComplianceService tracks regulatory requirements
type ComplianceService struct {
	base
}

// ComplianceInput is the body of a requirement creation request
type ComplianceInput struct {
	Title       string          `json:"title" validate:"required,min=1,max=300"`
	Description string          `json:"description" validate:"max=5000"`
	Regulation  string          `json:"regulation" validate:"max=200"`
	Frequency   model.Frequency `json:"frequency" validate:"omitempty,oneof=one_time monthly quarterly annually"`
	OwnerID     *string         `json:"owner_id"`
	DueDate     time.Time       `json:"due_date" validate:"required"`
}

// UpdateComplianceInput holds the fields to change; nil fields are kept
type UpdateComplianceInput struct {
	Title       *string                 `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string                 `json:"description" validate:"omitempty,max=5000"`
	Regulation  *string                 `json:"regulation" validate:"omitempty,max=200"`
	Frequency   *model.Frequency        `json:"frequency" validate:"omitempty,oneof=one_time monthly quarterly annually"`
	Status      *model.ComplianceStatus `json:"status" validate:"omitempty,oneof=pending in_progress compliant non_compliant waived"`
	OwnerID     *string                 `json:"owner_id"`
	DueDate     *time.Time              `json:"due_date"`
}

// Dashboard summarizes the compliance state of an organization
type Dashboard struct {
	Total            int64                            `json:"total"`
	ByStatus         map[model.ComplianceStatus]int64 `json:"by_status"`
	Overdue          int64                            `json:"overdue"`
	DueSoon          int64                            `json:"due_soon"`
	CompliantPercent float64                          `json:"compliant_percent"`
}

// Create adds a compliance requirement
func (s *ComplianceService) Create(ctx context.Context, actor *identity.Identity, orgID string, in ComplianceInput) (*model.ComplianceRequirement, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjCompliance, authz.ActCreate); err != nil {
		return nil, err
	}

	req := &model.ComplianceRequirement{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Title:          in.Title,
		Description:    in.Description,
		Regulation:     in.Regulation,
		Frequency:      in.Frequency,
		Status:         model.CompliancePending,
		DueDate:        in.DueDate.UTC(),
		CreatedBy:      actor.UserID,
	}
	if req.Frequency == "" {
		req.Frequency = model.FrequencyOneTime
	}
	if in.OwnerID != nil && *in.OwnerID != "" {
		if err := s.checkOwner(ctx, orgID, *in.OwnerID); err != nil {
			return nil, err
		}
		req.OwnerID = in.OwnerID
	}

	err := s.stores().Compliance.Create(ctx, req)
	audit.Log(audit.ComplianceEvent{Common: s.common(actor, orgID, "create", err), RequirementID: req.ID, Status: string(req.Status)})
	if err != nil {
		return nil, apperr.From(err)
	}
	s.invalidate(ctx, cache.OrgTag(orgID))
	return req, nil
}

// List lists the requirements of an organization
func (s *ComplianceService) List(ctx context.Context, actor *identity.Identity, orgID string, opts store.ListOptions) (Page[model.ComplianceRequirement], error) {
	if opts.Status != "" && !model.ComplianceStatus(opts.Status).Valid() {
		return Page[model.ComplianceRequirement]{}, apperr.Validation("status", "unknown compliance status")
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjCompliance, authz.ActRead); err != nil {
		return Page[model.ComplianceRequirement]{}, err
	}
	reqs, total, err := s.stores().Compliance.List(ctx, orgID, opts)
	if err != nil {
		return Page[model.ComplianceRequirement]{}, apperr.From(err)
	}
	return newPage(reqs, total, opts), nil
}

// Update edits a requirement
func (s *ComplianceService) Update(ctx context.Context, actor *identity.Identity, id string, in UpdateComplianceInput) (*model.ComplianceRequirement, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	req, err := s.load(ctx, actor, id, authz.ActUpdate)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		req.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		req.Description = *in.Description
	}
	if in.Regulation != nil {
		req.Regulation = *in.Regulation
	}
	if in.Frequency != nil {
		req.Frequency = *in.Frequency
	}
	if in.Status != nil {
		req.Status = *in.Status
	}
	if in.DueDate != nil {
		req.DueDate = in.DueDate.UTC()
	}
	if in.OwnerID != nil {
		if *in.OwnerID == "" {
			req.OwnerID = nil
		} else {
			if err := s.checkOwner(ctx, req.OrganizationID, *in.OwnerID); err != nil {
				return nil, err
			}
			owner := *in.OwnerID
			req.OwnerID = &owner
		}
	}

	return s.save(ctx, actor, req, "update")
}

// MarkCompleted records a completion. Recurring requirements move their
// due date forward by whole periods until it lies in the future and return
// to pending; one-time requirements become compliant.
func (s *ComplianceService) MarkCompleted(ctx context.Context, actor *identity.Identity, id string) (*model.ComplianceRequirement, error) {
	req, err := s.stores().Compliance.Get(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "compliance requirement", id)
	}
	m, err := s.authorizeResource(ctx, actor, req.OrganizationID, authz.ObjCompliance, authz.ActRead, "compliance requirement", id)
	if err != nil {
		return nil, err
	}
	if !s.deps.Authz.RoleCan(m.Role, authz.ObjCompliance, authz.ActUpdate) && deref(req.OwnerID) != actor.UserID {
		return nil, apperr.Forbidden("only the requirement owner or an administrator can complete it")
	}

	now := s.now()
	ApplyCompletion(req, now)
	return s.save(ctx, actor, req, "complete")
}

// ApplyCompletion records a completion of req at now
func ApplyCompletion(req *model.ComplianceRequirement, now time.Time) {
	req.LastCompletedAt = &now
	months := req.Frequency.Months()
	if months == 0 {
		req.Status = model.ComplianceCompliant
		return
	}

	anchor := req.DueDate
	due := addMonths(anchor, months)
	for k := 2; !due.After(now); k++ {
		due = addMonths(anchor, k*months)
	}
	req.DueDate = due
	req.Status = model.CompliancePending
}

// addMonths moves t by n calendar months. Days past the end of the target
// month are clamped, and a date on the last day of its month stays on the
// last day.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := daysIn(first)
	if d > last || d == daysIn(t) {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Overdue lists open requirements past their due date
func (s *ComplianceService) Overdue(ctx context.Context, actor *identity.Identity, orgID string) ([]model.ComplianceRequirement, error) {
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjCompliance, authz.ActRead); err != nil {
		return nil, err
	}
	reqs, err := s.stores().Compliance.ListOverdue(ctx, orgID, s.now())
	if err != nil {
		return nil, apperr.From(err)
	}
	if reqs == nil {
		reqs = []model.ComplianceRequirement{}
	}
	return reqs, nil
}

// Dashboard counts requirements per status together with overdue ones and
// those due within DueSoonWindow
func (s *ComplianceService) Dashboard(ctx context.Context, actor *identity.Identity, orgID string) (*Dashboard, error) {
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjCompliance, authz.ActRead); err != nil {
		return nil, err
	}

	now := s.now()
	counts, err := s.stores().Compliance.CountByStatus(ctx, orgID)
	if err != nil {
		return nil, apperr.From(err)
	}
	overdue, err := s.stores().Compliance.ListOverdue(ctx, orgID, now)
	if err != nil {
		return nil, apperr.From(err)
	}
	dueSoon, err := s.stores().Compliance.CountOpenDueBetween(ctx, orgID, now, now.Add(DueSoonWindow))
	if err != nil {
		return nil, apperr.From(err)
	}

	d := &Dashboard{
		ByStatus: make(map[model.ComplianceStatus]int64, len(model.ComplianceStatuses)),
		Overdue:  int64(len(overdue)),
		DueSoon:  dueSoon,
	}
	for _, status := range model.ComplianceStatuses {
		d.ByStatus[status] = counts[status]
		d.Total += counts[status]
	}
	if applicable := d.Total - d.ByStatus[model.ComplianceWaived]; applicable > 0 {
		d.CompliantPercent = float64(d.ByStatus[model.ComplianceCompliant]) * 100 / float64(applicable)
	}
	return d, nil
}

func (s *ComplianceService) load(ctx context.Context, actor *identity.Identity, id string, action authz.Action) (*model.ComplianceRequirement, error) {
	req, err := s.stores().Compliance.Get(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "compliance requirement", id)
	}
	if _, err := s.authorizeResource(ctx, actor, req.OrganizationID, authz.ObjCompliance, action, "compliance requirement", id); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *ComplianceService) save(ctx context.Context, actor *identity.Identity, req *model.ComplianceRequirement, action string) (*model.ComplianceRequirement, error) {
	err := s.stores().Compliance.Update(ctx, req)
	audit.Log(audit.ComplianceEvent{Common: s.common(actor, req.OrganizationID, action, err), RequirementID: req.ID, Status: string(req.Status)})
	if err != nil {
		return nil, notFoundAs(err, "compliance requirement", req.ID)
	}
	s.invalidate(ctx, cache.OrgTag(req.OrganizationID))
	return req, nil
}

func (s *ComplianceService) checkOwner(ctx context.Context, orgID, userID string) error {
	m, err := s.stores().Members.Get(ctx, orgID, userID)
	if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
		return apperr.From(err)
	}
	if err != nil || !m.IsActive() {
		return apperr.Validation("owner_id", "owner is not an active member of the organization")
	}
	return nil
}
