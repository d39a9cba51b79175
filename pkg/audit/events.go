package audit

import (
	"fmt"
	"strings"
)

// Common carries the fields shared by every event: who did what in which
// organization and whether it worked.
type Common struct {
	UserID         string
	ClientIP       string
	OrganizationID string
	Action         string
	Success        bool
	ErrorMessage   string
}

func (c Common) Severity() Severity {
	if c.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (c Common) Facility() int {
	return FacilityAuthPriv
}

func (c Common) result() string {
	if c.Success {
		return "success"
	}
	return "failure"
}

var pastTense = map[string]string{
	"accept":      "accepted",
	"archive":     "archived",
	"ask":         "asked",
	"complete":    "completed",
	"create":      "created",
	"delete":      "deleted",
	"download":    "downloaded",
	"invite":      "invited",
	"leave":       "left",
	"remove":      "removed",
	"resolve":     "resolved",
	"revoke":      "revoked",
	"role_change": "changed the role in",
	"status":      "changed the status of",
	"summarize":   "requested a summary of",
	"suspend":     "suspended",
	"transition":  "transitioned",
	"update":      "updated",
	"upload":      "uploaded",
}

// describe renders "<user> <verb> <target>" or the failed attempt with the
// error message.
func (c Common) describe(target string) string {
	if c.Success {
		verb, ok := pastTense[c.Action]
		if !ok {
			verb = "performed " + c.Action + " on"
		}
		return fmt.Sprintf("%s %s %s", c.UserID, verb, target)
	}
	msg := fmt.Sprintf("%s tried to %s %s", c.UserID, strings.ReplaceAll(c.Action, "_", " "), target)
	if c.ErrorMessage != "" {
		msg += ": " + c.ErrorMessage
	}
	return msg
}

func (c Common) structuredData(resourceType, resourceID string, subject map[string]string) map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": c.UserID,
		},
		SDIDSubject: {
			resourceType: resourceID,
		},
		SDIDClient: {
			"ip": c.ClientIP,
		},
		SDIDAction: {
			"operation": c.Action,
			"result":    c.result(),
		},
	}
	if c.OrganizationID != "" {
		sd[SDIDOrg] = map[string]string{"id": c.OrganizationID}
	}
	for k, v := range subject {
		if v != "" {
			sd[SDIDSubject][k] = v
		}
	}
	return sd
}

func (c Common) record(resourceType, resourceID string, details map[string]interface{}) Record {
	if !c.Success && c.ErrorMessage != "" {
		if details == nil {
			details = map[string]interface{}{}
		}
		details["error"] = c.ErrorMessage
	}
	return Record{
		OrganizationID: c.OrganizationID,
		UserID:         c.UserID,
		Action:         resourceType + "." + c.Action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Success:        c.Success,
		IPAddress:      c.ClientIP,
		Details:        details,
	}
}
