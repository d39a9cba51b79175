package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/appboardguru/boardguru/pkg/server/store"
)

// Ensure TxRunner implements store.TxRunner
var _ store.TxRunner = (*TxRunner)(nil)

// NewStores creates every store on db
func NewStores(db *gorm.DB) store.Stores {
	return store.Stores{
		Organizations: NewOrganizationsStore(db),
		Members:       NewMembersStore(db),
		Invitations:   NewInvitationsStore(db),
		Vaults:        NewVaultsStore(db),
		Assets:        NewAssetsStore(db),
		Annotations:   NewAnnotationsStore(db),
		Meetings:      NewMeetingsStore(db),
		ActionItems:   NewActionItemsStore(db),
		Compliance:    NewComplianceStore(db),
		Notifications: NewNotificationsStore(db),
		Audit:         NewAuditStore(db),
		Jobs:          NewJobsStore(db),
		Cache:         NewCacheStore(db),
		Health:        NewHealthStore(db),
		Tx:            &TxRunner{db: db},
	}
}

// TxRunner implements store.TxRunner with gorm transactions
type TxRunner struct {
	db *gorm.DB
}

// WithinTx runs fn with stores bound to a single transaction. Nested calls
// use savepoints.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(tx store.Stores) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStores(tx))
	})
}

// HealthStore provides health check operations using GORM
type HealthStore struct {
	db *gorm.DB
}

// NewHealthStore creates a new HealthStore
func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

// CheckConnectivity verifies database connectivity
func (s *HealthStore) CheckConnectivity(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}
