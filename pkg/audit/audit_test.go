package audit

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/logging"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	event := MemberEvent{
		Common: Common{
			UserID:         "user-1",
			ClientIP:       "192.168.1.1",
			OrganizationID: "org-1",
			Action:         "role_change",
			Success:        true,
		},
		MemberID: "user-2",
		OldRole:  "member",
		NewRole:  "admin",
	}

	logger.Log(event)

	output := buf.String()

	if !strings.HasPrefix(output, "<86>1 ") {
		t.Errorf("Expected PRI 86 (authpriv.info), got %q", output)
	}
	if !strings.Contains(output, " boardguru ") {
		t.Error("Expected app name 'boardguru' in output")
	}
	if !strings.Contains(output, " members ") {
		t.Error("Expected message ID 'members' in output")
	}
	if !strings.Contains(output, `[client@32473 ip="192.168.1.1"]`) {
		t.Error("Expected client IP structured data in output")
	}
	if !strings.Contains(output, "user-1 changed the role in member user-2 (member -> admin)") {
		t.Errorf("Expected role change message in output, got %q", output)
	}
}

func TestEventMessages(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantMsg string
		wantSev Severity
		wantAct string
	}{
		{
			name: "organization created",
			event: OrganizationEvent{
				Common: Common{UserID: "u1", OrganizationID: "o1", Action: "create", Success: true},
				Slug:   "acme",
			},
			wantMsg: "u1 created organization acme",
			wantSev: SeverityInfo,
			wantAct: "organization.create",
		},
		{
			name: "invitation accept failed",
			event: InvitationEvent{
				Common:       Common{UserID: "u2", OrganizationID: "o1", Action: "accept", ErrorMessage: "invitation has expired"},
				InvitationID: "i1",
				Email:        "bob@example.com",
			},
			wantMsg: "u2 tried to accept invitation i1 for bob@example.com: invitation has expired",
			wantSev: SeverityWarning,
			wantAct: "invitation.accept",
		},
		{
			name: "asset download",
			event: AssetEvent{
				Common:  Common{UserID: "u1", Action: "download", Success: true},
				AssetID: "a1",
			},
			wantMsg: "u1 downloaded asset a1",
			wantSev: SeverityNotice,
			wantAct: "asset.download",
		},
		{
			name: "meeting transition",
			event: MeetingEvent{
				Common:     Common{UserID: "u1", Action: "transition", Success: true},
				MeetingID:  "m1",
				FromStatus: "scheduled",
				ToStatus:   "in_progress",
			},
			wantMsg: "u1 transitioned meeting m1 (scheduled -> in_progress)",
			wantSev: SeverityInfo,
			wantAct: "meeting.transition",
		},
		{
			name: "ai chat",
			event: AIEvent{
				Common:  Common{UserID: "u1", Action: "ask", Success: true},
				Feature: "chat",
			},
			wantMsg: "u1 asked AI chat",
			wantSev: SeverityInfo,
			wantAct: "ai.ask",
		},
		{
			name:    "auth failure",
			event:   AuthEvent{ClientIP: "10.0.0.1", ErrorMessage: "token expired"},
			wantMsg: "anonymous failed to authenticate: token expired",
			wantSev: SeverityWarning,
			wantAct: "auth.authenticate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.event.Severity(); got != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", got, tt.wantSev)
			}
			if got := tt.event.Record().Action; got != tt.wantAct {
				t.Errorf("Record().Action = %q, want %q", got, tt.wantAct)
			}
		})
	}
}

func TestRecordCarriesError(t *testing.T) {
	rec := ComplianceEvent{
		Common:        Common{UserID: "u1", OrganizationID: "o1", Action: "update", ErrorMessage: "not found"},
		RequirementID: "c1",
	}.Record()

	if rec.Outcome() != "failure" {
		t.Errorf("Outcome() = %q, want failure", rec.Outcome())
	}
	if rec.Details["error"] != "not found" {
		t.Errorf("Details[error] = %v", rec.Details["error"])
	}
	if rec.OrganizationID != "o1" || rec.ResourceID != "c1" || rec.ResourceType != "compliance" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestEscapeSDValue(t *testing.T) {
	got := escapeSDValue(`a"b]c\d`)
	want := `"a\"b\]c\\d"`
	if got != want {
		t.Errorf("escapeSDValue() = %s, want %s", got, want)
	}
}

func TestLogHonoursAuditEnabled(t *testing.T) {
	prevCfg := config.Get()
	defer config.Set(prevCfg)
	prevStore := DefaultStore()
	defer SetStore(prevStore)

	var buf bytes.Buffer
	DefaultLogger.SetWriter(&buf)
	defer DefaultLogger.SetWriter(&bytes.Buffer{})

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	SetStore(NewStoreWithDB(db))

	event := OrganizationEvent{Common: Common{UserID: "u1", OrganizationID: "o1", Action: "update", Success: true}}

	cfg := config.Default()
	cfg.AuditEnabled = false
	config.Set(cfg)
	Log(event)
	if buf.Len() != 0 {
		t.Errorf("expected no output when audit is disabled, got %q", buf.String())
	}

	cfg = config.Default()
	cfg.AuditEnabled = true
	config.Set(cfg)
	mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnResult(sqlmock.NewResult(1, 1))
	Log(event)
	if !strings.Contains(buf.String(), "u1 updated organization o1") {
		t.Errorf("expected audit line, got %q", buf.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestLogReportsStoreFailure(t *testing.T) {
	prevCfg := config.Get()
	defer config.Set(prevCfg)
	prevStore := DefaultStore()
	defer SetStore(prevStore)

	DefaultLogger.SetWriter(&bytes.Buffer{})
	var logs bytes.Buffer
	logging.Init(logging.Config{Level: "info", Output: &logs})
	defer logging.Init(logging.Config{})

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	SetStore(NewStoreWithDB(db))

	cfg := config.Default()
	cfg.AuditEnabled = true
	config.Set(cfg)

	mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnError(errors.New("connection reset"))
	Log(OrganizationEvent{Common: Common{UserID: "u1", OrganizationID: "o1", Action: "update", Success: true}})

	out := logs.String()
	if !strings.Contains(out, `"component":"audit"`) || !strings.Contains(out, "connection reset") {
		t.Errorf("expected the store failure to be logged, got %q", out)
	}
	if !strings.Contains(out, `"action":"organization.update"`) {
		t.Errorf("expected the action in the log entry, got %q", out)
	}
}
