// Package model defines the database models for BoardGuru.
//
// This package contains GORM models that map to the schema created by the
// SQL migrations in db/migrations. Every model carries a UUID primary key
// assigned in BeforeCreate when the caller leaves it empty.
//
// # Core Models
//
//   - Organization, OrganizationMember, Invitation: tenancy and membership
//   - Vault, VaultMember, Asset, Annotation: document storage
//   - BoardMeeting, TranscriptSegment, ActionItem: meetings
//   - ComplianceRequirement: compliance tracking
//   - Notification, AuditLog: user feed and audit trail
//   - AIJob: queued AI processing
//   - CacheEntry: database layer of the response cache
//
// # Soft Deletes
//
// Organizations, vaults, assets and meetings are soft deleted through
// gorm.DeletedAt; GORM filters them from every query automatically.
package model
