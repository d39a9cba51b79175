package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AIJob is a queued AI processing job.
type AIJob struct {
	ID             string     `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID string     `gorm:"column:organization_id;not null" json:"organization_id"`
	Type           JobType    `gorm:"column:type;not null" json:"type"`
	ResourceID     string     `gorm:"column:resource_id;not null" json:"resource_id"`
	Status         JobStatus  `gorm:"column:status;not null;default:pending" json:"status"`
	Attempts       int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	MaxAttempts    int        `gorm:"column:max_attempts;not null;default:3" json:"max_attempts"`
	RunAfter       time.Time  `gorm:"column:run_after;not null" json:"run_after"`
	LockedAt       *time.Time `gorm:"column:locked_at" json:"locked_at,omitempty"`
	Result         JSON       `gorm:"column:result;type:jsonb" json:"result,omitempty"`
	LastError      string     `gorm:"column:last_error" json:"last_error,omitempty"`
	RequestedBy    string     `gorm:"column:requested_by;not null" json:"requested_by"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (AIJob) TableName() string {
	return "ai_processing_jobs"
}

func (j *AIJob) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	if j.Status == "" {
		j.Status = JobPending
	}
	if j.RunAfter.IsZero() {
		j.RunAfter = time.Now().UTC()
	}
	return nil
}

// CacheEntry is a row of the database cache layer.
type CacheEntry struct {
	Key       string         `gorm:"column:key;primaryKey"`
	Value     []byte         `gorm:"column:value;not null"`
	Tags      pq.StringArray `gorm:"column:tags;type:text[]"`
	ExpiresAt time.Time      `gorm:"column:expires_at;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}
