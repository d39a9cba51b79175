package model

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// AgendaItem is one entry of a meeting agenda.
type AgendaItem struct {
	Title           string `json:"title"`
	Presenter       string `json:"presenter,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Agenda is stored as a jsonb array.
type Agenda []AgendaItem

// Value implements driver.Valuer
func (a Agenda) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (a *Agenda) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("model: unsupported agenda column type")
	}
	return json.Unmarshal(data, a)
}

// BoardMeeting is a scheduled board meeting.
type BoardMeeting struct {
	ID             string         `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID string         `gorm:"column:organization_id;not null" json:"organization_id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description" json:"description,omitempty"`
	Location       string         `gorm:"column:location" json:"location,omitempty"`
	Status         MeetingStatus  `gorm:"column:status;not null;default:draft" json:"status"`
	ScheduledStart time.Time      `gorm:"column:scheduled_start;not null" json:"scheduled_start"`
	ScheduledEnd   time.Time      `gorm:"column:scheduled_end;not null" json:"scheduled_end"`
	StartedAt      *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	EndedAt        *time.Time     `gorm:"column:ended_at" json:"ended_at,omitempty"`
	Agenda         Agenda         `gorm:"column:agenda;type:jsonb" json:"agenda"`
	Minutes        string         `gorm:"column:minutes" json:"minutes,omitempty"`
	CreatedBy      string         `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (BoardMeeting) TableName() string {
	return "board_meetings"
}

func (m *BoardMeeting) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	if m.Status == "" {
		m.Status = MeetingDraft
	}
	return nil
}

// TranscriptSegment is one spoken segment of a meeting transcript.
type TranscriptSegment struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	MeetingID string    `gorm:"column:meeting_id;not null" json:"meeting_id"`
	Speaker   string    `gorm:"column:speaker" json:"speaker,omitempty"`
	Text      string    `gorm:"column:text;not null" json:"text"`
	StartMs   int64     `gorm:"column:start_ms" json:"start_ms"`
	EndMs     int64     `gorm:"column:end_ms" json:"end_ms"`
	Sequence  int       `gorm:"column:sequence;not null" json:"sequence"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TranscriptSegment) TableName() string {
	return "meeting_transcriptions"
}

func (s *TranscriptSegment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// ActionItem is a follow-up task, usually from a meeting.
type ActionItem struct {
	ID             string           `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID string           `gorm:"column:organization_id;not null" json:"organization_id"`
	MeetingID      *string          `gorm:"column:meeting_id" json:"meeting_id,omitempty"`
	Title          string           `gorm:"column:title;not null" json:"title"`
	Description    string           `gorm:"column:description" json:"description,omitempty"`
	AssignedTo     *string          `gorm:"column:assigned_to" json:"assigned_to,omitempty"`
	Status         ActionItemStatus `gorm:"column:status;not null;default:open" json:"status"`
	Priority       Priority         `gorm:"column:priority;not null;default:medium" json:"priority"`
	DueDate        *time.Time       `gorm:"column:due_date" json:"due_date,omitempty"`
	CompletedAt    *time.Time       `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Source         ActionItemSource `gorm:"column:source;not null;default:manual" json:"source"`
	CreatedBy      string           `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ActionItem) TableName() string {
	return "action_items"
}

func (a *ActionItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = ActionOpen
	}
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	if a.Source == "" {
		a.Source = SourceManual
	}
	return nil
}

// Overdue reports whether the item is open past its due date.
func (a *ActionItem) Overdue(now time.Time) bool {
	if a.DueDate == nil {
		return false
	}
	if a.Status == ActionCompleted || a.Status == ActionCancelled {
		return false
	}
	return a.DueDate.Before(now)
}
