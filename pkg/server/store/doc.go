// Package store provides storage abstractions for the BoardGuru server.
//
// This package defines interfaces for database operations, allowing the
// services and endpoints to be decoupled from the specific database
// implementation. The gorm subpackage implements them on PostgreSQL;
// tests use testify mocks.
//
// # Available Stores
//
//   - OrganizationsStore, MembersStore, InvitationsStore: tenancy
//   - VaultsStore, AssetsStore, AnnotationsStore: documents
//   - MeetingsStore, ActionItemsStore: board meetings
//   - ComplianceStore: compliance requirements
//   - NotificationsStore, AuditStore: user feed and audit trail
//   - JobsStore: AI processing queue
//   - CacheStore: database layer of the response cache
//   - HealthStore: connectivity checks
//
// # Transactions
//
// TxRunner.WithinTx runs a function with a Stores bundle bound to a single
// database transaction. Returning an error rolls every write back.
//
//	err := stores.Tx.WithinTx(ctx, func(tx store.Stores) error {
//	    if err := tx.Organizations.Create(ctx, org); err != nil {
//	        return err
//	    }
//	    return tx.Members.Add(ctx, owner)
//	})
//
// # Errors
//
// Implementations return ErrNotFound and ErrConflict (possibly wrapped)
// so callers can match them with errors.Is.
package store
