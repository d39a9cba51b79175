package model

import (
	"time"

	"gorm.io/gorm"
)

// DefaultVaultName is the vault created with every organization.
const DefaultVaultName = "General"

// Vault is a named collection of board documents.
type Vault struct {
	ID             string         `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID string         `gorm:"column:organization_id;not null" json:"organization_id"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Description    string         `gorm:"column:description" json:"description,omitempty"`
	Status         VaultStatus    `gorm:"column:status;not null;default:active" json:"status"`
	IsDefault      bool           `gorm:"column:is_default;not null;default:false" json:"is_default"`
	CreatedBy      string         `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Vault) TableName() string {
	return "vaults"
}

func (v *Vault) BeforeCreate(tx *gorm.DB) error {
	ensureID(&v.ID)
	if v.Status == "" {
		v.Status = VaultActive
	}
	return nil
}

// VaultMember grants a user access to a single vault.
type VaultMember struct {
	VaultID   string    `gorm:"column:vault_id;primaryKey" json:"vault_id"`
	UserID    string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	Role      VaultRole `gorm:"column:role;not null" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (VaultMember) TableName() string {
	return "vault_members"
}

// Asset is an uploaded document held in blob storage.
type Asset struct {
	ID             string         `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID string         `gorm:"column:organization_id;not null" json:"organization_id"`
	VaultID        string         `gorm:"column:vault_id;not null" json:"vault_id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	FileName       string         `gorm:"column:file_name;not null" json:"file_name"`
	ContentType    string         `gorm:"column:content_type;not null" json:"content_type"`
	SizeBytes      int64          `gorm:"column:size_bytes;not null" json:"size_bytes"`
	StorageKey     string         `gorm:"column:storage_key;not null" json:"-"`
	Checksum       string         `gorm:"column:checksum;not null" json:"checksum"`
	Summary        string         `gorm:"column:summary" json:"summary,omitempty"`
	UploadedBy     string         `gorm:"column:uploaded_by;not null" json:"uploaded_by"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Asset) TableName() string {
	return "assets"
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Annotation is a highlight, note or comment on an asset. Replies point
// at their parent through ParentID.
type Annotation struct {
	ID             string         `gorm:"column:id;primaryKey" json:"id"`
	AssetID        string         `gorm:"column:asset_id;not null" json:"asset_id"`
	OrganizationID string         `gorm:"column:organization_id;not null" json:"organization_id"`
	ParentID       *string        `gorm:"column:parent_id" json:"parent_id,omitempty"`
	UserID         string         `gorm:"column:user_id;not null" json:"user_id"`
	Type           AnnotationType `gorm:"column:type;not null" json:"type"`
	Content        string         `gorm:"column:content;not null" json:"content"`
	PageNumber     int            `gorm:"column:page_number" json:"page_number,omitempty"`
	Position       JSON           `gorm:"column:position;type:jsonb" json:"position,omitempty"`
	Resolved       bool           `gorm:"column:resolved;not null;default:false" json:"resolved"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Replies []*Annotation `gorm:"-" json:"replies,omitempty"`
}

func (Annotation) TableName() string {
	return "annotations"
}

func (a *Annotation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
