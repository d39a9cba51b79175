package model

// Role is an organization membership role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants at least the rights of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other] && r.Valid()
}

// MemberStatus is the state of an organization membership.
type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
)

func (s MemberStatus) Valid() bool {
	return s == MemberActive || s == MemberSuspended
}

// InvitationStatus is the state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
)

func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRevoked:
		return true
	}
	return false
}

// VaultStatus is the state of a vault.
type VaultStatus string

const (
	VaultActive   VaultStatus = "active"
	VaultArchived VaultStatus = "archived"
)

func (s VaultStatus) Valid() bool {
	return s == VaultActive || s == VaultArchived
}

// VaultRole is a per-vault access role.
type VaultRole string

const (
	VaultOwner  VaultRole = "owner"
	VaultEditor VaultRole = "editor"
	VaultViewer VaultRole = "viewer"
)

func (r VaultRole) Valid() bool {
	switch r {
	case VaultOwner, VaultEditor, VaultViewer:
		return true
	}
	return false
}

// AnnotationType is the kind of an annotation.
type AnnotationType string

const (
	AnnotationHighlight AnnotationType = "highlight"
	AnnotationNote      AnnotationType = "note"
	AnnotationComment   AnnotationType = "comment"
)

func (t AnnotationType) Valid() bool {
	switch t {
	case AnnotationHighlight, AnnotationNote, AnnotationComment:
		return true
	}
	return false
}

// MeetingStatus is the lifecycle state of a board meeting.
type MeetingStatus string

const (
	MeetingDraft      MeetingStatus = "draft"
	MeetingScheduled  MeetingStatus = "scheduled"
	MeetingInProgress MeetingStatus = "in_progress"
	MeetingCompleted  MeetingStatus = "completed"
	MeetingCancelled  MeetingStatus = "cancelled"
)

func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingDraft, MeetingScheduled, MeetingInProgress, MeetingCompleted, MeetingCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further changes are allowed.
func (s MeetingStatus) Terminal() bool {
	return s == MeetingCompleted || s == MeetingCancelled
}

// ActionItemStatus is the state of an action item.
type ActionItemStatus string

const (
	ActionOpen       ActionItemStatus = "open"
	ActionInProgress ActionItemStatus = "in_progress"
	ActionCompleted  ActionItemStatus = "completed"
	ActionCancelled  ActionItemStatus = "cancelled"
)

func (s ActionItemStatus) Valid() bool {
	switch s {
	case ActionOpen, ActionInProgress, ActionCompleted, ActionCancelled:
		return true
	}
	return false
}

// Priority is shared by action items and notifications.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ActionItemSource records who created an action item.
type ActionItemSource string

const (
	SourceManual ActionItemSource = "manual"
	SourceAI     ActionItemSource = "ai"
)

// Frequency is how often a compliance requirement recurs.
type Frequency string

const (
	FrequencyOneTime   Frequency = "one_time"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	}
	return false
}

// Months returns the recurrence interval in months, 0 for one-time.
func (f Frequency) Months() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyAnnually:
		return 12
	}
	return 0
}

// ComplianceStatus is the state of a compliance requirement.
type ComplianceStatus string

const (
	CompliancePending      ComplianceStatus = "pending"
	ComplianceInProgress   ComplianceStatus = "in_progress"
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceNonCompliant ComplianceStatus = "non_compliant"
	ComplianceWaived       ComplianceStatus = "waived"
)

// ComplianceStatuses lists every status in display order.
var ComplianceStatuses = []ComplianceStatus{
	CompliancePending, ComplianceInProgress, ComplianceCompliant, ComplianceNonCompliant, ComplianceWaived,
}

func (s ComplianceStatus) Valid() bool {
	for _, v := range ComplianceStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// JobType is the kind of AI processing job.
type JobType string

const (
	JobSummarizeAsset     JobType = "summarize_asset"
	JobGenerateMinutes    JobType = "generate_minutes"
	JobExtractActionItems JobType = "extract_action_items"
)

func (t JobType) Valid() bool {
	switch t {
	case JobSummarizeAsset, JobGenerateMinutes, JobExtractActionItems:
		return true
	}
	return false
}

// JobStatus is the state of an AI processing job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobRunning, JobCompleted, JobFailed:
		return true
	}
	return false
}
