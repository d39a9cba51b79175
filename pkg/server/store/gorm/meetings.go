package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Ensure MeetingsStore implements store.MeetingsStore
var _ store.MeetingsStore = (*MeetingsStore)(nil)

// MeetingsStore implements store.MeetingsStore using GORM
type MeetingsStore struct {
	db *gorm.DB
}

// NewMeetingsStore creates a new MeetingsStore
func NewMeetingsStore(db *gorm.DB) *MeetingsStore {
	return &MeetingsStore{db: db}
}

func (s *MeetingsStore) Create(ctx context.Context, m *model.BoardMeeting) error {
	return mapErr(s.db.WithContext(ctx).Create(m).Error)
}

func (s *MeetingsStore) Get(ctx context.Context, id string) (*model.BoardMeeting, error) {
	var m model.BoardMeeting
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *MeetingsStore) List(ctx context.Context, orgID string, filter store.MeetingFilter, opts store.ListOptions) ([]model.BoardMeeting, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.BoardMeeting{}).
		Where("organization_id = ?", orgID)
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.Search != "" {
		q = q.Where("title ILIKE ?", likePattern(opts.Search))
	}
	if filter.From != nil {
		q = q.Where("scheduled_start >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("scheduled_start < ?", *filter.To)
	}
	sorts := map[string]string{"scheduled_start": "scheduled_start", "title": "title", "created_at": "created_at"}
	return listPage[model.BoardMeeting](q, opts, sorts, "scheduled_start DESC")
}

func (s *MeetingsStore) Update(ctx context.Context, m *model.BoardMeeting) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.BoardMeeting{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"title":           m.Title,
			"description":     m.Description,
			"location":        m.Location,
			"scheduled_start": m.ScheduledStart,
			"scheduled_end":   m.ScheduledEnd,
			"agenda":          m.Agenda,
		}))
}

func (s *MeetingsStore) Transition(ctx context.Context, m *model.BoardMeeting, from model.MeetingStatus) error {
	result := s.db.WithContext(ctx).
		Model(&model.BoardMeeting{}).
		Where("id = ? AND status = ?", m.ID, from).
		Updates(map[string]interface{}{
			"status":     m.Status,
			"started_at": m.StartedAt,
			"ended_at":   m.EndedAt,
		})
	if result.Error != nil {
		return mapErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrStale
	}
	return nil
}

func (s *MeetingsStore) SetMinutes(ctx context.Context, id, minutes string) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.BoardMeeting{}).
		Where("id = ?", id).
		Update("minutes", minutes))
}

func (s *MeetingsStore) AppendTranscript(ctx context.Context, segments []model.TranscriptSegment) error {
	if len(segments) == 0 {
		return nil
	}
	return mapErr(s.db.WithContext(ctx).Create(&segments).Error)
}

func (s *MeetingsStore) Transcript(ctx context.Context, meetingID string) ([]model.TranscriptSegment, error) {
	segments := make([]model.TranscriptSegment, 0)
	err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("sequence").
		Find(&segments).Error
	return segments, mapErr(err)
}

func (s *MeetingsStore) LastSequence(ctx context.Context, meetingID string) (int, error) {
	var seq int
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(sequence), 0) FROM meeting_transcriptions WHERE meeting_id = ?`,
		meetingID,
	).Scan(&seq).Error
	return seq, mapErr(err)
}

// Ensure ActionItemsStore implements store.ActionItemsStore
var _ store.ActionItemsStore = (*ActionItemsStore)(nil)

// ActionItemsStore implements store.ActionItemsStore using GORM
type ActionItemsStore struct {
	db *gorm.DB
}

// NewActionItemsStore creates a new ActionItemsStore
func NewActionItemsStore(db *gorm.DB) *ActionItemsStore {
	return &ActionItemsStore{db: db}
}

func (s *ActionItemsStore) Create(ctx context.Context, item *model.ActionItem) error {
	return mapErr(s.db.WithContext(ctx).Create(item).Error)
}

func (s *ActionItemsStore) Get(ctx context.Context, id string) (*model.ActionItem, error) {
	var item model.ActionItem
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, mapErr(err)
	}
	return &item, nil
}

func (s *ActionItemsStore) List(ctx context.Context, orgID string, filter store.ActionItemFilter, opts store.ListOptions) ([]model.ActionItem, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.ActionItem{}).
		Where("organization_id = ?", orgID)
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.Search != "" {
		q = q.Where("title ILIKE ?", likePattern(opts.Search))
	}
	if filter.AssignedTo != "" {
		q = q.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.MeetingID != "" {
		q = q.Where("meeting_id = ?", filter.MeetingID)
	}
	if filter.OverdueAt != nil {
		q = q.Where("due_date < ? AND status NOT IN ?", *filter.OverdueAt,
			[]model.ActionItemStatus{model.ActionCompleted, model.ActionCancelled})
	}
	sorts := map[string]string{"due_date": "due_date", "priority": "priority", "created_at": "created_at"}
	return listPage[model.ActionItem](q, opts, sorts, "due_date NULLS LAST, created_at")
}

func (s *ActionItemsStore) Update(ctx context.Context, item *model.ActionItem) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.ActionItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"title":        item.Title,
			"description":  item.Description,
			"assigned_to":  item.AssignedTo,
			"status":       item.Status,
			"priority":     item.Priority,
			"due_date":     item.DueDate,
			"completed_at": item.CompletedAt,
		}))
}

func (s *ActionItemsStore) Delete(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ActionItem{}))
}

// Ensure ComplianceStore implements store.ComplianceStore
var _ store.ComplianceStore = (*ComplianceStore)(nil)

// ComplianceStore implements store.ComplianceStore using GORM
type ComplianceStore struct {
	db *gorm.DB
}

// NewComplianceStore creates a new ComplianceStore
func NewComplianceStore(db *gorm.DB) *ComplianceStore {
	return &ComplianceStore{db: db}
}

var openComplianceStatuses = []model.ComplianceStatus{
	model.CompliancePending, model.ComplianceInProgress, model.ComplianceNonCompliant,
}

func (s *ComplianceStore) Create(ctx context.Context, req *model.ComplianceRequirement) error {
	return mapErr(s.db.WithContext(ctx).Create(req).Error)
}

func (s *ComplianceStore) Get(ctx context.Context, id string) (*model.ComplianceRequirement, error) {
	var req model.ComplianceRequirement
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, mapErr(err)
	}
	return &req, nil
}

func (s *ComplianceStore) List(ctx context.Context, orgID string, opts store.ListOptions) ([]model.ComplianceRequirement, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.ComplianceRequirement{}).
		Where("organization_id = ?", orgID)
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.Search != "" {
		pattern := likePattern(opts.Search)
		q = q.Where("title ILIKE ? OR regulation ILIKE ?", pattern, pattern)
	}
	sorts := map[string]string{"due_date": "due_date", "title": "title", "created_at": "created_at"}
	return listPage[model.ComplianceRequirement](q, opts, sorts, "due_date")
}

func (s *ComplianceStore) Update(ctx context.Context, req *model.ComplianceRequirement) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.ComplianceRequirement{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"title":             req.Title,
			"description":       req.Description,
			"regulation":        req.Regulation,
			"frequency":         req.Frequency,
			"status":            req.Status,
			"owner_id":          req.OwnerID,
			"due_date":          req.DueDate,
			"last_completed_at": req.LastCompletedAt,
		}))
}

func (s *ComplianceStore) ListOverdue(ctx context.Context, orgID string, now time.Time) ([]model.ComplianceRequirement, error) {
	reqs := make([]model.ComplianceRequirement, 0)
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND due_date < ? AND status IN ?", orgID, now, openComplianceStatuses).
		Order("due_date").
		Find(&reqs).Error
	return reqs, mapErr(err)
}

func (s *ComplianceStore) CountByStatus(ctx context.Context, orgID string) (map[model.ComplianceStatus]int64, error) {
	type row struct {
		Status model.ComplianceStatus
		N      int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&model.ComplianceRequirement{}).
		Select("status, count(*) AS n").
		Where("organization_id = ?", orgID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, mapErr(err)
	}

	counts := make(map[model.ComplianceStatus]int64, len(model.ComplianceStatuses))
	for _, st := range model.ComplianceStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

func (s *ComplianceStore) CountOpenDueBetween(ctx context.Context, orgID string, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.ComplianceRequirement{}).
		Where("organization_id = ? AND due_date >= ? AND due_date < ? AND status IN ?", orgID, from, to, openComplianceStatuses).
		Count(&n).Error
	return n, mapErr(err)
}
