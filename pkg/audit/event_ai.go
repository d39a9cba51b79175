package audit

import "fmt"

// AIEvent represents a request sent to the AI provider on a user's behalf
type AIEvent struct {
	Common
	Feature    string // "chat", "summarize", "minutes", "action_items"
	ResourceID string
	Model      string
}

func (e AIEvent) MessageID() string {
	return "ai"
}

func (e AIEvent) Message() string {
	target := fmt.Sprintf("AI %s", e.Feature)
	if e.ResourceID != "" {
		target += " for " + e.ResourceID
	}
	return e.describe(target)
}

func (e AIEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("ai", e.ResourceID, map[string]string{"feature": e.Feature, "model": e.Model})
}

func (e AIEvent) Record() Record {
	details := map[string]interface{}{"feature": e.Feature}
	if e.Model != "" {
		details["model"] = e.Model
	}
	return e.record("ai", e.ResourceID, details)
}
