// Package audit provides audit logging for BoardGuru operations.
//
// Security-relevant operations such as organization changes, membership
// and invitation handling, document access, meeting lifecycle and AI use
// are recorded twice: as an RFC5424 line on the audit writer and as a row
// in the audit_logs table, which organization admins can query.
//
// # Usage
//
//	audit.Log(audit.VaultEvent{
//		Common:  audit.Common{UserID: id.UserID, ClientIP: id.IPString(), OrganizationID: orgID, Action: "create", Success: true},
//		VaultID: vault.ID,
//		Name:    vault.Name,
//	})
//
// Logging is controlled by the audit_enabled configuration attribute.
// Failures to persist an event are logged and never returned to callers.
package audit
