package model

import (
	"time"

	"gorm.io/gorm"
)

// Notification is an in-app message for a single user.
type Notification struct {
	ID             string     `gorm:"column:id;primaryKey" json:"id"`
	UserID         string     `gorm:"column:user_id;not null" json:"user_id"`
	OrganizationID *string    `gorm:"column:organization_id" json:"organization_id,omitempty"`
	Type           string     `gorm:"column:type;not null" json:"type"`
	Title          string     `gorm:"column:title;not null" json:"title"`
	Message        string     `gorm:"column:message" json:"message,omitempty"`
	Priority       Priority   `gorm:"column:priority;not null;default:medium" json:"priority"`
	ResourceType   string     `gorm:"column:resource_type" json:"resource_type,omitempty"`
	ResourceID     string     `gorm:"column:resource_id" json:"resource_id,omitempty"`
	ReadAt         *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	ArchivedAt     *time.Time `gorm:"column:archived_at" json:"archived_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	return nil
}

// AuditLog is a persisted audit record.
type AuditLog struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID *string   `gorm:"column:organization_id" json:"organization_id,omitempty"`
	UserID         string    `gorm:"column:user_id" json:"user_id,omitempty"`
	Action         string    `gorm:"column:action;not null" json:"action"`
	ResourceType   string    `gorm:"column:resource_type" json:"resource_type,omitempty"`
	ResourceID     string    `gorm:"column:resource_id" json:"resource_id,omitempty"`
	Outcome        string    `gorm:"column:outcome;not null" json:"outcome"`
	IPAddress      string    `gorm:"column:ip_address" json:"ip_address,omitempty"`
	Details        JSON      `gorm:"column:details;type:jsonb" json:"details,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
