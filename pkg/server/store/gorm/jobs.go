package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Ensure JobsStore implements store.JobsStore
var _ store.JobsStore = (*JobsStore)(nil)

// JobsStore implements store.JobsStore using GORM
type JobsStore struct {
	db *gorm.DB
}

// NewJobsStore creates a new JobsStore
func NewJobsStore(db *gorm.DB) *JobsStore {
	return &JobsStore{db: db}
}

func (s *JobsStore) Create(ctx context.Context, job *model.AIJob) error {
	return mapErr(s.db.WithContext(ctx).Create(job).Error)
}

func (s *JobsStore) Get(ctx context.Context, id string) (*model.AIJob, error) {
	var job model.AIJob
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, mapErr(err)
	}
	return &job, nil
}

func (s *JobsStore) FindActive(ctx context.Context, jobType model.JobType, resourceID string) (*model.AIJob, error) {
	var job model.AIJob
	err := s.db.WithContext(ctx).
		Where("type = ? AND resource_id = ? AND status IN ?", jobType, resourceID,
			[]model.JobStatus{model.JobPending, model.JobRunning}).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &job, nil
}

// ClaimDue locks due rows with FOR UPDATE SKIP LOCKED so concurrent workers
// claim disjoint sets.
func (s *JobsStore) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]model.AIJob, error) {
	jobs := make([]model.AIJob, 0, limit)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status = ? AND run_after <= ?) OR (status = ? AND locked_at < ?)",
				model.JobPending, now, model.JobRunning, now.Add(-lease)).
			Order("run_after").
			Limit(limit).
			Find(&jobs).Error
		if err != nil || len(jobs) == 0 {
			return err
		}

		var pending, abandoned []string
		for i := range jobs {
			if jobs[i].Status == model.JobRunning {
				abandoned = append(abandoned, jobs[i].ID)
				jobs[i].Attempts++
				jobs[i].LastError = errLeaseExpired
			} else {
				pending = append(pending, jobs[i].ID)
			}
		}
		if len(pending) > 0 {
			err := tx.Model(&model.AIJob{}).
				Where("id IN ?", pending).
				Updates(map[string]interface{}{"status": model.JobRunning, "locked_at": now}).Error
			if err != nil {
				return err
			}
		}
		if len(abandoned) > 0 {
			return tx.Model(&model.AIJob{}).
				Where("id IN ?", abandoned).
				Updates(map[string]interface{}{
					"attempts":   gorm.Expr("attempts + 1"),
					"locked_at":  now,
					"last_error": errLeaseExpired,
				}).Error
		}
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}

	for i := range jobs {
		jobs[i].Status = model.JobRunning
		lockedAt := now
		jobs[i].LockedAt = &lockedAt
	}
	return jobs, nil
}

const errLeaseExpired = "worker lease expired before the job finished"

func (s *JobsStore) Complete(ctx context.Context, id string, result model.JSON) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.AIJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.JobCompleted,
			"result":     result,
			"locked_at":  nil,
			"last_error": "",
		}))
}

func (s *JobsStore) Reschedule(ctx context.Context, id string, attempts int, runAfter time.Time, lastErr string) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.AIJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.JobPending,
			"attempts":   attempts,
			"run_after":  runAfter,
			"locked_at":  nil,
			"last_error": lastErr,
		}))
}

func (s *JobsStore) Fail(ctx context.Context, id string, attempts int, lastErr string) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.AIJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.JobFailed,
			"attempts":   attempts,
			"locked_at":  nil,
			"last_error": lastErr,
		}))
}

// Ensure CacheStore implements store.CacheStore
var _ store.CacheStore = (*CacheStore)(nil)

// CacheStore implements store.CacheStore using GORM
type CacheStore struct {
	db *gorm.DB
}

// NewCacheStore creates a new CacheStore
func NewCacheStore(db *gorm.DB) *CacheStore {
	return &CacheStore{db: db}
}

func (s *CacheStore) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	var entry model.CacheEntry
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error; err != nil {
		return nil, mapErr(err)
	}
	return &entry, nil
}

func (s *CacheStore) Set(ctx context.Context, entry *model.CacheEntry) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "tags", "expires_at"}),
		}).
		Create(entry).Error
	return mapErr(err)
}

func (s *CacheStore) Delete(ctx context.Context, key string) error {
	return mapErr(s.db.WithContext(ctx).Where("key = ?", key).Delete(&model.CacheEntry{}).Error)
}

func (s *CacheStore) DeleteByTag(ctx context.Context, tag string) error {
	return mapErr(s.db.WithContext(ctx).Where("? = ANY(tags)", tag).Delete(&model.CacheEntry{}).Error)
}

func (s *CacheStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.CacheEntry{})
	return result.RowsAffected, mapErr(result.Error)
}
