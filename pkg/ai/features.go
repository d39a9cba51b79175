package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/model"
)

const (
	summarySystem = "You are a board secretary. Summarize board documents for directors: " +
		"key decisions, financial figures, risks and required actions. Use concise Markdown."

	chatSystem = "You are BoardGuru, an assistant for board directors. Answer using the " +
		"provided board documents when relevant and say so when they do not contain the answer."

	minutesSystem = "You are a board secretary writing formal board meeting minutes in Markdown. " +
		"Include attendance, each agenda item with discussion and resolutions, and a list of action items."

	actionItemsSystem = "You extract action items from board meeting transcripts. Reply with a JSON " +
		"array only. Each element has the fields title, description, assignee, due_date (YYYY-MM-DD or empty) " +
		"and priority (low, medium, high or critical)."
)

// Document is context supplied to a chat
type Document struct {
	Title   string
	Content string
}

// ExtractedActionItem is an action item proposed by the model
type ExtractedActionItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
}

// Due parses DueDate, returning nil when it is empty or malformed
func (e ExtractedActionItem) Due() *time.Time {
	if e.DueDate == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", e.DueDate)
	if err != nil {
		return nil
	}
	return &t
}

// PriorityOrDefault returns the parsed priority, medium when unknown
func (e ExtractedActionItem) PriorityOrDefault() model.Priority {
	p := model.Priority(strings.ToLower(strings.TrimSpace(e.Priority)))
	if p.Valid() {
		return p
	}
	return model.PriorityMedium
}

// Summarize summarizes a document
func (c *Client) Summarize(ctx context.Context, title, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.BusinessRule("document has no text to summarize")
	}
	out, err := c.Complete(ctx, CompletionRequest{
		System:      summarySystem,
		Messages:    []Message{{Role: RoleUser, Content: fmt.Sprintf("Document: %s\n\n%s", title, c.truncate(text))}},
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

// Chat answers the last user message of history with docs as context
func (c *Client) Chat(ctx context.Context, history []Message, docs []Document) (string, error) {
	if len(history) == 0 || history[len(history)-1].Role != RoleUser {
		return "", apperr.Validation("messages", "the last message must come from the user")
	}

	system := chatSystem
	if len(docs) > 0 {
		var b strings.Builder
		b.WriteString(chatSystem)
		b.WriteString("\n\nBoard documents:\n")
		for _, d := range docs {
			fmt.Fprintf(&b, "\n## %s\n%s\n", d.Title, d.Content)
		}
		system = c.truncate(b.String())
	}

	out, err := c.Complete(ctx, CompletionRequest{
		System:      system,
		Messages:    history,
		MaxTokens:   2048,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

// GenerateMinutes drafts Markdown minutes for a meeting
func (c *Client) GenerateMinutes(ctx context.Context, meeting *model.BoardMeeting, agenda model.Agenda, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", apperr.BusinessRule("meeting has no transcript")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Meeting: %s\n", meeting.Title)
	fmt.Fprintf(&b, "Scheduled: %s\n", meeting.ScheduledStart.Format(time.RFC1123))
	if meeting.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", meeting.Location)
	}
	if len(agenda) > 0 {
		b.WriteString("\nAgenda:\n")
		for i, item := range agenda {
			fmt.Fprintf(&b, "%d. %s", i+1, item.Title)
			if item.Presenter != "" {
				fmt.Fprintf(&b, " (%s)", item.Presenter)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\nTranscript:\n")
	b.WriteString(c.truncate(transcript))

	out, err := c.Complete(ctx, CompletionRequest{
		System:      minutesSystem,
		Messages:    []Message{{Role: RoleUser, Content: b.String()}},
		MaxTokens:   4096,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

// ExtractActionItems asks the model for the action items of a transcript
func (c *Client) ExtractActionItems(ctx context.Context, transcript string) ([]ExtractedActionItem, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, apperr.BusinessRule("meeting has no transcript")
	}
	out, err := c.Complete(ctx, CompletionRequest{
		System:      actionItemsSystem,
		Messages:    []Message{{Role: RoleUser, Content: c.truncate(transcript)}},
		MaxTokens:   2048,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}
	return ParseActionItems(out.Text)
}

// ParseActionItems decodes the JSON array in a model reply. Markdown code
// fences and text around the array are ignored. Items without a title are
// dropped.
func ParseActionItems(reply string) ([]ExtractedActionItem, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, apperr.BusinessRule("AI reply did not contain a list of action items")
	}

	var items []ExtractedActionItem
	if err := json.Unmarshal([]byte(reply[start:end+1]), &items); err != nil {
		return nil, apperr.BusinessRule("AI reply contained malformed action items").Wrap(err)
	}

	out := items[:0]
	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		if it.Title == "" {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// FormatTranscript renders transcript segments as "Speaker: text" lines
func FormatTranscript(segments []model.TranscriptSegment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Speaker != "" {
			b.WriteString(s.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(strings.TrimSpace(s.Text))
		b.WriteString("\n")
	}
	return b.String()
}
