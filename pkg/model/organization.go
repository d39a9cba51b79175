package model

import (
	"time"

	"gorm.io/gorm"
)

// Organization is a tenant: a board and everything it owns.
type Organization struct {
	ID          string         `gorm:"column:id;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Website     string         `gorm:"column:website" json:"website,omitempty"`
	Industry    string         `gorm:"column:industry" json:"industry,omitempty"`
	Size        string         `gorm:"column:size" json:"size,omitempty"`
	Settings    JSON           `gorm:"column:settings;type:jsonb" json:"settings,omitempty"`
	CreatedBy   string         `gorm:"column:created_by;not null" json:"created_by"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrganizationMember links a user to an organization with a role.
type OrganizationMember struct {
	ID             string       `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID string       `gorm:"column:organization_id;not null" json:"organization_id"`
	UserID         string       `gorm:"column:user_id;not null" json:"user_id"`
	Email          string       `gorm:"column:email" json:"email,omitempty"`
	Role           Role         `gorm:"column:role;not null" json:"role"`
	Status         MemberStatus `gorm:"column:status;not null;default:active" json:"status"`
	JoinedAt       time.Time    `gorm:"column:joined_at" json:"joined_at"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}

func (m *OrganizationMember) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	if m.Status == "" {
		m.Status = MemberActive
	}
	return nil
}

// IsActive reports whether the membership grants access.
func (m *OrganizationMember) IsActive() bool {
	return m.Status == MemberActive
}

// Invitation is a pending offer to join an organization.
type Invitation struct {
	ID             string           `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID string           `gorm:"column:organization_id;not null" json:"organization_id"`
	Email          string           `gorm:"column:email;not null" json:"email"`
	Role           Role             `gorm:"column:role;not null" json:"role"`
	Token          string           `gorm:"column:token;not null;uniqueIndex" json:"-"`
	Status         InvitationStatus `gorm:"column:status;not null;default:pending" json:"status"`
	InvitedBy      string           `gorm:"column:invited_by;not null" json:"invited_by"`
	ExpiresAt      time.Time        `gorm:"column:expires_at;not null" json:"expires_at"`
	AcceptedAt     *time.Time       `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Invitation) TableName() string {
	return "invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	if i.Status == "" {
		i.Status = InvitationPending
	}
	return nil
}

// Expired reports whether the invitation is past its expiry at now.
func (i *Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
