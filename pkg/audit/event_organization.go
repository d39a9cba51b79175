package audit

import "fmt"

// OrganizationEvent represents a change to an organization
type OrganizationEvent struct {
	Common
	Slug string
}

func (e OrganizationEvent) MessageID() string {
	return "organization"
}

func (e OrganizationEvent) Message() string {
	return e.describe(fmt.Sprintf("organization %s", e.target()))
}

func (e OrganizationEvent) target() string {
	if e.Slug != "" {
		return e.Slug
	}
	return e.OrganizationID
}

func (e OrganizationEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("organization", e.OrganizationID, map[string]string{"slug": e.Slug})
}

func (e OrganizationEvent) Record() Record {
	return e.record("organization", e.OrganizationID, map[string]interface{}{"slug": e.Slug})
}

// MemberEvent represents a change to an organization membership
type MemberEvent struct {
	Common
	MemberID string
	OldRole  string
	NewRole  string
}

func (e MemberEvent) MessageID() string {
	return "members"
}

func (e MemberEvent) Message() string {
	msg := e.describe(fmt.Sprintf("member %s", e.MemberID))
	if e.Success && e.NewRole != "" {
		msg += fmt.Sprintf(" (%s -> %s)", e.OldRole, e.NewRole)
	}
	return msg
}

func (e MemberEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("member", e.MemberID, map[string]string{"old_role": e.OldRole, "new_role": e.NewRole})
}

func (e MemberEvent) Record() Record {
	details := map[string]interface{}{}
	if e.NewRole != "" {
		details["old_role"] = e.OldRole
		details["new_role"] = e.NewRole
	}
	return e.record("member", e.MemberID, details)
}

// InvitationEvent represents an invitation being sent, accepted or revoked
type InvitationEvent struct {
	Common
	InvitationID string
	Email        string
	Role         string
}

func (e InvitationEvent) MessageID() string {
	return "invitation"
}

func (e InvitationEvent) Message() string {
	return e.describe(fmt.Sprintf("invitation %s for %s", e.InvitationID, e.Email))
}

func (e InvitationEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("invitation", e.InvitationID, map[string]string{"email": e.Email, "role": e.Role})
}

func (e InvitationEvent) Record() Record {
	return e.record("invitation", e.InvitationID, map[string]interface{}{"email": e.Email, "role": e.Role})
}
