package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write violates a uniqueness constraint
	ErrConflict = errors.New("record already exists")

	// ErrStale is returned by conditional writes whose expected state no
	// longer holds
	ErrStale = errors.New("record was modified concurrently")
)

// ListOptions controls paging, filtering and ordering of list queries.
type ListOptions struct {
	Limit  int
	Offset int
	Search string
	Status string
	SortBy string
	Desc   bool
}

// Stores bundles every store. Within a transaction all of them share the
// same database transaction.
type Stores struct {
	Organizations OrganizationsStore
	Members       MembersStore
	Invitations   InvitationsStore
	Vaults        VaultsStore
	Assets        AssetsStore
	Annotations   AnnotationsStore
	Meetings      MeetingsStore
	ActionItems   ActionItemsStore
	Compliance    ComplianceStore
	Notifications NotificationsStore
	Audit         AuditStore
	Jobs          JobsStore
	Cache         CacheStore
	Health        HealthStore
	Tx            TxRunner
}

// TxRunner runs functions inside a database transaction
type TxRunner interface {
	// WithinTx calls fn with stores bound to a new transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Stores) error) error
}

// HealthStore provides health check operations
type HealthStore interface {
	// CheckConnectivity verifies database connectivity
	CheckConnectivity(ctx context.Context) error
}
