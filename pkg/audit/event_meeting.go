package audit

import "fmt"

// MeetingEvent represents a meeting change or status transition
type MeetingEvent struct {
	Common
	MeetingID  string
	FromStatus string
	ToStatus   string
}

func (e MeetingEvent) MessageID() string {
	return "meeting"
}

func (e MeetingEvent) Message() string {
	msg := e.describe(fmt.Sprintf("meeting %s", e.MeetingID))
	if e.ToStatus != "" {
		msg += fmt.Sprintf(" (%s -> %s)", e.FromStatus, e.ToStatus)
	}
	return msg
}

func (e MeetingEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("meeting", e.MeetingID, map[string]string{"from": e.FromStatus, "to": e.ToStatus})
}

func (e MeetingEvent) Record() Record {
	details := map[string]interface{}{}
	if e.ToStatus != "" {
		details["from"] = e.FromStatus
		details["to"] = e.ToStatus
	}
	return e.record("meeting", e.MeetingID, details)
}

// ActionItemEvent represents a change to an action item
type ActionItemEvent struct {
	Common
	ActionItemID string
	AssignedTo   string
	Status       string
}

func (e ActionItemEvent) MessageID() string {
	return "action-item"
}

func (e ActionItemEvent) Message() string {
	return e.describe(fmt.Sprintf("action item %s", e.ActionItemID))
}

func (e ActionItemEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("action_item", e.ActionItemID, map[string]string{"assignee": e.AssignedTo, "status": e.Status})
}

func (e ActionItemEvent) Record() Record {
	details := map[string]interface{}{}
	if e.AssignedTo != "" {
		details["assigned_to"] = e.AssignedTo
	}
	if e.Status != "" {
		details["status"] = e.Status
	}
	return e.record("action_item", e.ActionItemID, details)
}

// ComplianceEvent represents a change to a compliance requirement
type ComplianceEvent struct {
	Common
	RequirementID string
	Status        string
}

func (e ComplianceEvent) MessageID() string {
	return "compliance"
}

func (e ComplianceEvent) Message() string {
	return e.describe(fmt.Sprintf("compliance requirement %s", e.RequirementID))
}

func (e ComplianceEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("compliance", e.RequirementID, map[string]string{"status": e.Status})
}

func (e ComplianceEvent) Record() Record {
	details := map[string]interface{}{}
	if e.Status != "" {
		details["status"] = e.Status
	}
	return e.record("compliance", e.RequirementID, details)
}
