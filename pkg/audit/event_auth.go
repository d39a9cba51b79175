package audit

import "fmt"

// AuthEvent represents an access token check
type AuthEvent struct {
	UserID       string
	ClientIP     string
	SessionID    string
	Path         string
	Success      bool
	ErrorMessage string
}

func (e AuthEvent) MessageID() string {
	return "authn"
}

func (e AuthEvent) Message() string {
	user := e.UserID
	if user == "" {
		user = "anonymous"
	}
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated", user)
	}
	msg := fmt.Sprintf("%s failed to authenticate", user)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
	if e.SessionID != "" {
		sd[SDIDAuth]["session"] = e.SessionID
	}
	if e.Path != "" {
		sd[SDIDClient]["path"] = e.Path
	}
	return sd
}

func (e AuthEvent) Record() Record {
	details := map[string]interface{}{}
	if e.Path != "" {
		details["path"] = e.Path
	}
	if e.ErrorMessage != "" {
		details["error"] = e.ErrorMessage
	}
	return Record{
		UserID:       e.UserID,
		Action:       "auth.authenticate",
		ResourceType: "session",
		ResourceID:   e.SessionID,
		Success:      e.Success,
		IPAddress:    e.ClientIP,
		Details:      details,
	}
}
