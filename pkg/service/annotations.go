package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/validation"
)

// AnnotationService manages highlights, notes and comment threads
type AnnotationService struct {
	base
}

// AnnotationInput is the body of an annotation creation request
type AnnotationInput struct {
	Type       model.AnnotationType `json:"type" validate:"required,oneof=highlight note comment"`
	Content    string               `json:"content" validate:"required,max=5000"`
	PageNumber int                  `json:"page_number" validate:"gte=0"`
	Position   model.JSON           `json:"position"`
	ParentID   *string              `json:"parent_id"`
}

// UpdateAnnotationInput holds the fields to change; nil fields are kept
type UpdateAnnotationInput struct {
	Content  *string    `json:"content" validate:"omitempty,min=1,max=5000"`
	Position model.JSON `json:"position"`
}

// Create adds an annotation to an asset. Replies to a reply join the
// thread of its top-level annotation.
func (s *AnnotationService) Create(ctx context.Context, actor *identity.Identity, assetID string, in AnnotationInput) (*model.Annotation, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	asset, _, err := loadAsset(ctx, s.base, actor, assetID, authz.ActRead)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, asset.OrganizationID, authz.ObjAnnotation, authz.ActCreate); err != nil {
		return nil, err
	}

	a := &model.Annotation{
		ID:             uuid.NewString(),
		AssetID:        asset.ID,
		OrganizationID: asset.OrganizationID,
		UserID:         actor.UserID,
		Type:           in.Type,
		Content:        in.Content,
		PageNumber:     in.PageNumber,
		Position:       in.Position,
	}

	var parent *model.Annotation
	if in.ParentID != nil && *in.ParentID != "" {
		parent, err = s.stores().Annotations.Get(ctx, *in.ParentID)
		if err != nil || parent.AssetID != asset.ID {
			if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
				return nil, apperr.From(err)
			}
			return nil, apperr.Validation("parent_id", "parent annotation does not belong to this asset")
		}
		rootID := parent.ID
		if parent.ParentID != nil {
			rootID = *parent.ParentID
		}
		a.ParentID = &rootID
	}

	err = s.stores().Annotations.Create(ctx, a)
	audit.Log(audit.AnnotationEvent{Common: s.common(actor, a.OrganizationID, "create", err), AnnotationID: a.ID, AssetID: asset.ID})
	if err != nil {
		return nil, apperr.From(err)
	}

	s.publish(ctx, realtime.AnnotationCreated, a.OrganizationID, "", a)
	if parent != nil && parent.UserID != actor.UserID {
		s.notify(ctx, &model.Notification{
			UserID:         parent.UserID,
			OrganizationID: strPtr(a.OrganizationID),
			Type:           "annotation_reply",
			Title:          "New reply on " + asset.Title,
			Message:        a.Content,
			ResourceType:   "annotation",
			ResourceID:     parent.ID,
		})
	}
	return a, nil
}

// List returns the annotations of an asset as threads, oldest first
func (s *AnnotationService) List(ctx context.Context, actor *identity.Identity, assetID string) ([]*model.Annotation, error) {
	if _, _, err := loadAsset(ctx, s.base, actor, assetID, authz.ActRead); err != nil {
		return nil, err
	}
	all, err := s.stores().Annotations.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return Thread(all), nil
}

// Thread nests replies under their parents. Replies whose parent is
// missing are kept as top-level annotations.
func Thread(all []model.Annotation) []*model.Annotation {
	byID := make(map[string]*model.Annotation, len(all))
	for i := range all {
		all[i].Replies = nil
		byID[all[i].ID] = &all[i]
	}

	roots := make([]*model.Annotation, 0, len(all))
	for i := range all {
		a := &all[i]
		if a.ParentID != nil {
			if parent, ok := byID[*a.ParentID]; ok {
				parent.Replies = append(parent.Replies, a)
				continue
			}
		}
		roots = append(roots, a)
	}
	return roots
}

// Update edits an annotation; only its author may
func (s *AnnotationService) Update(ctx context.Context, actor *identity.Identity, id string, in UpdateAnnotationInput) (*model.Annotation, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != actor.UserID {
		return nil, apperr.Forbidden("only the author can edit an annotation")
	}

	if in.Content != nil {
		a.Content = strings.TrimSpace(*in.Content)
	}
	if in.Position != nil {
		a.Position = in.Position
	}
	err = s.stores().Annotations.Update(ctx, a)
	audit.Log(audit.AnnotationEvent{Common: s.common(actor, a.OrganizationID, "update", err), AnnotationID: a.ID, AssetID: a.AssetID})
	if err != nil {
		return nil, notFoundAs(err, "annotation", id)
	}
	return a, nil
}

// Resolve marks an annotation thread resolved or reopens it
func (s *AnnotationService) Resolve(ctx context.Context, actor *identity.Identity, id string, resolved bool) (*model.Annotation, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAuthorOrAdmin(ctx, actor, a, "resolve"); err != nil {
		return nil, err
	}

	a.Resolved = resolved
	err = s.stores().Annotations.Update(ctx, a)
	audit.Log(audit.AnnotationEvent{Common: s.common(actor, a.OrganizationID, "resolve", err), AnnotationID: a.ID, AssetID: a.AssetID})
	if err != nil {
		return nil, notFoundAs(err, "annotation", id)
	}
	return a, nil
}

// Delete removes an annotation together with its replies
func (s *AnnotationService) Delete(ctx context.Context, actor *identity.Identity, id string) error {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.requireAuthorOrAdmin(ctx, actor, a, "delete"); err != nil {
		return err
	}

	err = s.stores().Annotations.Delete(ctx, a.ID)
	audit.Log(audit.AnnotationEvent{Common: s.common(actor, a.OrganizationID, "delete", err), AnnotationID: a.ID, AssetID: a.AssetID})
	if err != nil {
		return notFoundAs(err, "annotation", id)
	}
	return nil
}

// load fetches an annotation whose asset the actor can read
func (s *AnnotationService) load(ctx context.Context, actor *identity.Identity, id string) (*model.Annotation, error) {
	a, err := s.stores().Annotations.Get(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "annotation", id)
	}
	if _, _, err := loadAsset(ctx, s.base, actor, a.AssetID, authz.ActRead); err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return nil, apperr.NotFound("annotation", id)
		}
		return nil, err
	}
	return a, nil
}

func (s *AnnotationService) requireAuthorOrAdmin(ctx context.Context, actor *identity.Identity, a *model.Annotation, verb string) error {
	if a.UserID == actor.UserID {
		return nil
	}
	ok, err := s.deps.Authz.Can(ctx, actor.UserID, a.OrganizationID, authz.ObjAnnotation, authz.ActManage)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("only the author or an administrator can " + verb + " an annotation")
	}
	return nil
}
