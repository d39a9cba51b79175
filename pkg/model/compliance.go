package model

import (
	"time"

	"gorm.io/gorm"
)

// ComplianceRequirement is a regulatory obligation tracked per organization.
type ComplianceRequirement struct {
	ID              string           `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID  string           `gorm:"column:organization_id;not null" json:"organization_id"`
	Title           string           `gorm:"column:title;not null" json:"title"`
	Description     string           `gorm:"column:description" json:"description,omitempty"`
	Regulation      string           `gorm:"column:regulation" json:"regulation,omitempty"`
	Frequency       Frequency        `gorm:"column:frequency;not null;default:one_time" json:"frequency"`
	Status          ComplianceStatus `gorm:"column:status;not null;default:pending" json:"status"`
	OwnerID         *string          `gorm:"column:owner_id" json:"owner_id,omitempty"`
	DueDate         time.Time        `gorm:"column:due_date;not null" json:"due_date"`
	LastCompletedAt *time.Time       `gorm:"column:last_completed_at" json:"last_completed_at,omitempty"`
	CreatedBy       string           `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ComplianceRequirement) TableName() string {
	return "compliance_requirements"
}

func (c *ComplianceRequirement) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	if c.Status == "" {
		c.Status = CompliancePending
	}
	if c.Frequency == "" {
		c.Frequency = FrequencyOneTime
	}
	return nil
}

// Closed reports whether the requirement needs no further work.
func (c *ComplianceRequirement) Closed() bool {
	return c.Status == ComplianceCompliant || c.Status == ComplianceWaived
}

// Overdue reports whether an open requirement is past its due date.
func (c *ComplianceRequirement) Overdue(now time.Time) bool {
	return !c.Closed() && c.DueDate.Before(now)
}
