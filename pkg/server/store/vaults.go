package store

import (
	"context"

	"github.com/appboardguru/boardguru/pkg/model"
)

// VaultsStore abstracts vault and vault membership storage
type VaultsStore interface {
	Create(ctx context.Context, vault *model.Vault) error
	Get(ctx context.Context, id string) (*model.Vault, error)

	// List returns every vault of the organization
	List(ctx context.Context, orgID string, opts ListOptions) ([]model.Vault, int64, error)

	// ListForMember returns the default vault and the vaults the user holds
	// a vault membership in
	ListForMember(ctx context.Context, orgID, userID string, opts ListOptions) ([]model.Vault, int64, error)

	Update(ctx context.Context, vault *model.Vault) error

	// SetMember adds a vault member or changes its role
	SetMember(ctx context.Context, member *model.VaultMember) error
	GetMember(ctx context.Context, vaultID, userID string) (*model.VaultMember, error)
	ListMembers(ctx context.Context, vaultID string) ([]model.VaultMember, error)
	RemoveMember(ctx context.Context, vaultID, userID string) error
}

// AssetsStore abstracts asset metadata storage
type AssetsStore interface {
	Create(ctx context.Context, asset *model.Asset) error
	Get(ctx context.Context, id string) (*model.Asset, error)

	// GetMany returns the assets of an organization with the given IDs
	GetMany(ctx context.Context, orgID string, ids []string) ([]model.Asset, error)

	List(ctx context.Context, vaultID string, opts ListOptions) ([]model.Asset, int64, error)
	SetSummary(ctx context.Context, id, summary string) error
	Delete(ctx context.Context, id string) error
}

// AnnotationsStore abstracts annotation storage
type AnnotationsStore interface {
	Create(ctx context.Context, a *model.Annotation) error
	Get(ctx context.Context, id string) (*model.Annotation, error)

	// ListByAsset returns every annotation of an asset, oldest first
	ListByAsset(ctx context.Context, assetID string) ([]model.Annotation, error)

	Update(ctx context.Context, a *model.Annotation) error

	// Delete removes an annotation and its replies
	Delete(ctx context.Context, id string) error
}
