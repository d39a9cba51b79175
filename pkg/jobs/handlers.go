package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/appboardguru/boardguru/pkg/ai"
	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/storage"
)

const maxExtractBytes = 20 << 20

// Deps are the collaborators of the built-in handlers
type Deps struct {
	Stores    store.Stores
	Blobs     storage.BlobStore
	AI        *ai.Client
	Publisher realtime.Publisher
	Cache     *cache.Manager
}

// RegisterDefaults registers the summarize_asset, generate_minutes and
// extract_action_items handlers.
func RegisterDefaults(w *Worker, d Deps) {
	if d.Publisher == nil {
		d.Publisher = realtime.NoopPublisher{}
	}
	w.Handle(model.JobSummarizeAsset, d.summarizeAsset)
	w.Handle(model.JobGenerateMinutes, d.generateMinutes)
	w.Handle(model.JobExtractActionItems, d.extractActionItems)
}

func (d Deps) summarizeAsset(ctx context.Context, job *model.AIJob) (interface{}, error) {
	asset, err := d.Stores.Assets.Get(ctx, job.ResourceID)
	if err != nil {
		return nil, err
	}

	rc, err := d.Blobs.Get(ctx, asset.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.BusinessRule("document file is missing from storage")
		}
		return nil, apperr.Unavailable("failed to read document from storage", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxExtractBytes))
	if err != nil {
		return nil, apperr.Unavailable("failed to read document from storage", err)
	}
	text, err := ExtractText(asset.ContentType, asset.FileName, data)
	if err != nil {
		return nil, err
	}

	summary, err := d.AI.Summarize(ctx, asset.Title, text)
	if err != nil {
		return nil, err
	}
	if err := d.Stores.Assets.SetSummary(ctx, asset.ID, summary); err != nil {
		return nil, err
	}
	d.invalidate(ctx, asset.OrganizationID)
	return map[string]interface{}{"asset_id": asset.ID, "summary_chars": len(summary)}, nil
}

func (d Deps) meetingTranscript(ctx context.Context, meetingID string) (*model.BoardMeeting, string, error) {
	meeting, err := d.Stores.Meetings.Get(ctx, meetingID)
	if err != nil {
		return nil, "", err
	}
	segments, err := d.Stores.Meetings.Transcript(ctx, meetingID)
	if err != nil {
		return nil, "", err
	}
	if len(segments) == 0 {
		return nil, "", apperr.BusinessRule("meeting has no transcript")
	}
	return meeting, ai.FormatTranscript(segments), nil
}

func (d Deps) generateMinutes(ctx context.Context, job *model.AIJob) (interface{}, error) {
	meeting, transcript, err := d.meetingTranscript(ctx, job.ResourceID)
	if err != nil {
		return nil, err
	}

	minutes, err := d.AI.GenerateMinutes(ctx, meeting, meeting.Agenda, transcript)
	if err != nil {
		return nil, err
	}
	// only the minutes column: the meeting may have moved on during the call
	if err := d.Stores.Meetings.SetMinutes(ctx, meeting.ID, minutes); err != nil {
		return nil, err
	}
	d.invalidate(ctx, meeting.OrganizationID)

	d.publish(ctx, realtime.NewEvent(realtime.MeetingUpdated, meeting.OrganizationID, "", map[string]interface{}{
		"meeting_id": meeting.ID,
		"minutes":    true,
	}))
	return map[string]interface{}{"meeting_id": meeting.ID, "minutes_chars": len(minutes)}, nil
}

func (d Deps) extractActionItems(ctx context.Context, job *model.AIJob) (interface{}, error) {
	meeting, transcript, err := d.meetingTranscript(ctx, job.ResourceID)
	if err != nil {
		return nil, err
	}

	extracted, err := d.AI.ExtractActionItems(ctx, transcript)
	if err != nil {
		return nil, err
	}

	created := make([]model.ActionItem, 0, len(extracted))
	err = d.Stores.Tx.WithinTx(ctx, func(tx store.Stores) error {
		for _, e := range extracted {
			item := model.ActionItem{
				OrganizationID: meeting.OrganizationID,
				MeetingID:      &meeting.ID,
				Title:          e.Title,
				Description:    e.Description,
				Priority:       e.PriorityOrDefault(),
				DueDate:        e.Due(),
				Status:         model.ActionOpen,
				Source:         model.SourceAI,
				CreatedBy:      job.RequestedBy,
			}
			if assignee := d.resolveAssignee(ctx, tx, meeting.OrganizationID, e.Assignee); assignee != "" {
				item.AssignedTo = &assignee
			} else if e.Assignee != "" {
				item.Description = strings.TrimSpace(item.Description + "\n\nSuggested assignee: " + e.Assignee)
			}
			if err := tx.ActionItems.Create(ctx, &item); err != nil {
				return err
			}
			created = append(created, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.invalidate(ctx, meeting.OrganizationID)
	ids := make([]string, len(created))
	for i, item := range created {
		ids[i] = item.ID
		d.publish(ctx, realtime.NewEvent(realtime.ActionItemCreated, item.OrganizationID, "", item))
	}
	return map[string]interface{}{"meeting_id": meeting.ID, "created": len(created), "action_item_ids": ids}, nil
}

// publish sends ev when a publisher is configured; delivery is best effort
func (d Deps) publish(ctx context.Context, ev realtime.Event) {
	if d.Publisher == nil {
		return
	}
	_ = d.Publisher.Publish(ctx, ev)
}

// invalidate drops cached responses derived from the organization's data
func (d Deps) invalidate(ctx context.Context, orgID string) {
	if d.Cache != nil {
		d.Cache.InvalidateTag(ctx, cache.OrgTag(orgID))
	}
}

// resolveAssignee maps an email named by the model to an active member
func (d Deps) resolveAssignee(ctx context.Context, tx store.Stores, orgID, assignee string) string {
	assignee = strings.TrimSpace(assignee)
	if !strings.Contains(assignee, "@") {
		return ""
	}
	m, err := tx.Members.FindByEmail(ctx, orgID, assignee)
	if err != nil || !m.IsActive() {
		return ""
	}
	return m.UserID
}

// unsupported reports a document the summarizer cannot read
func unsupported(contentType string) error {
	return apperr.BusinessRule(fmt.Sprintf("cannot extract text from %s documents", contentType)).
		WithSuggestion("upload a text, Markdown, CSV or Office document")
}
