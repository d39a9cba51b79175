package gorm

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Ensure VaultsStore implements store.VaultsStore
var _ store.VaultsStore = (*VaultsStore)(nil)

// VaultsStore implements store.VaultsStore using GORM
type VaultsStore struct {
	db *gorm.DB
}

// NewVaultsStore creates a new VaultsStore
func NewVaultsStore(db *gorm.DB) *VaultsStore {
	return &VaultsStore{db: db}
}

var vaultSorts = map[string]string{
	"name":       "vaults.name",
	"created_at": "vaults.created_at",
}

func (s *VaultsStore) Create(ctx context.Context, vault *model.Vault) error {
	return mapErr(s.db.WithContext(ctx).Create(vault).Error)
}

func (s *VaultsStore) Get(ctx context.Context, id string) (*model.Vault, error) {
	var v model.Vault
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (s *VaultsStore) filter(q *gorm.DB, opts store.ListOptions) *gorm.DB {
	if opts.Status != "" {
		q = q.Where("vaults.status = ?", opts.Status)
	}
	if opts.Search != "" {
		q = q.Where("vaults.name ILIKE ?", likePattern(opts.Search))
	}
	return q
}

func (s *VaultsStore) List(ctx context.Context, orgID string, opts store.ListOptions) ([]model.Vault, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.Vault{}).
		Where("vaults.organization_id = ?", orgID)
	return listPage[model.Vault](s.filter(q, opts), opts, vaultSorts, "vaults.is_default DESC, vaults.name")
}

func (s *VaultsStore) ListForMember(ctx context.Context, orgID, userID string, opts store.ListOptions) ([]model.Vault, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.Vault{}).
		Joins("LEFT JOIN vault_members vm ON vm.vault_id = vaults.id AND vm.user_id = ?", userID).
		Where("vaults.organization_id = ?", orgID).
		Where("vaults.is_default OR vm.user_id IS NOT NULL")
	return listPage[model.Vault](s.filter(q, opts), opts, vaultSorts, "vaults.is_default DESC, vaults.name")
}

func (s *VaultsStore) Update(ctx context.Context, vault *model.Vault) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.Vault{}).
		Where("id = ?", vault.ID).
		Updates(map[string]interface{}{
			"name":        vault.Name,
			"description": vault.Description,
			"status":      vault.Status,
		}))
}

func (s *VaultsStore) SetMember(ctx context.Context, member *model.VaultMember) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vault_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).
		Create(member).Error
	return mapErr(err)
}

func (s *VaultsStore) GetMember(ctx context.Context, vaultID, userID string) (*model.VaultMember, error) {
	var m model.VaultMember
	err := s.db.WithContext(ctx).
		Where("vault_id = ? AND user_id = ?", vaultID, userID).
		First(&m).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *VaultsStore) ListMembers(ctx context.Context, vaultID string) ([]model.VaultMember, error) {
	members := make([]model.VaultMember, 0)
	err := s.db.WithContext(ctx).
		Where("vault_id = ?", vaultID).
		Order("created_at").
		Find(&members).Error
	return members, mapErr(err)
}

func (s *VaultsStore) RemoveMember(ctx context.Context, vaultID, userID string) error {
	return affected(s.db.WithContext(ctx).
		Where("vault_id = ? AND user_id = ?", vaultID, userID).
		Delete(&model.VaultMember{}))
}

// Ensure AssetsStore implements store.AssetsStore
var _ store.AssetsStore = (*AssetsStore)(nil)

// AssetsStore implements store.AssetsStore using GORM
type AssetsStore struct {
	db *gorm.DB
}

// NewAssetsStore creates a new AssetsStore
func NewAssetsStore(db *gorm.DB) *AssetsStore {
	return &AssetsStore{db: db}
}

func (s *AssetsStore) Create(ctx context.Context, asset *model.Asset) error {
	return mapErr(s.db.WithContext(ctx).Create(asset).Error)
}

func (s *AssetsStore) Get(ctx context.Context, id string) (*model.Asset, error) {
	var a model.Asset
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *AssetsStore) GetMany(ctx context.Context, orgID string, ids []string) ([]model.Asset, error) {
	assets := make([]model.Asset, 0, len(ids))
	if len(ids) == 0 {
		return assets, nil
	}
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id IN ?", orgID, ids).
		Find(&assets).Error
	return assets, mapErr(err)
}

func (s *AssetsStore) List(ctx context.Context, vaultID string, opts store.ListOptions) ([]model.Asset, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&model.Asset{}).
		Where("vault_id = ?", vaultID)
	if opts.Search != "" {
		pattern := likePattern(opts.Search)
		q = q.Where("title ILIKE ? OR file_name ILIKE ?", pattern, pattern)
	}
	sorts := map[string]string{"title": "title", "created_at": "created_at", "size": "size_bytes"}
	return listPage[model.Asset](q, opts, sorts, "created_at DESC")
}

func (s *AssetsStore) SetSummary(ctx context.Context, id, summary string) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.Asset{}).
		Where("id = ?", id).
		Update("summary", summary))
}

func (s *AssetsStore) Delete(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Asset{}))
}

// Ensure AnnotationsStore implements store.AnnotationsStore
var _ store.AnnotationsStore = (*AnnotationsStore)(nil)

// AnnotationsStore implements store.AnnotationsStore using GORM
type AnnotationsStore struct {
	db *gorm.DB
}

// NewAnnotationsStore creates a new AnnotationsStore
func NewAnnotationsStore(db *gorm.DB) *AnnotationsStore {
	return &AnnotationsStore{db: db}
}

func (s *AnnotationsStore) Create(ctx context.Context, a *model.Annotation) error {
	return mapErr(s.db.WithContext(ctx).Create(a).Error)
}

func (s *AnnotationsStore) Get(ctx context.Context, id string) (*model.Annotation, error) {
	var a model.Annotation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *AnnotationsStore) ListByAsset(ctx context.Context, assetID string) ([]model.Annotation, error) {
	annotations := make([]model.Annotation, 0)
	err := s.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("created_at, id").
		Find(&annotations).Error
	return annotations, mapErr(err)
}

func (s *AnnotationsStore) Update(ctx context.Context, a *model.Annotation) error {
	return affected(s.db.WithContext(ctx).
		Model(&model.Annotation{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"content":     a.Content,
			"page_number": a.PageNumber,
			"position":    a.Position,
			"resolved":    a.Resolved,
		}))
}

func (s *AnnotationsStore) Delete(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).
		Where("id = ? OR parent_id = ?", id, id).
		Delete(&model.Annotation{}))
}
