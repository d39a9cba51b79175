package service

import (
	"context"

	"github.com/appboardguru/boardguru/pkg/ai"
	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/validation"
)

// ChatService answers questions about board documents
type ChatService struct {
	base
}

// ChatInput is a conversation and the assets it refers to
type ChatInput struct {
	Messages []ai.Message `json:"messages" validate:"required,min=1,max=50,dive"`
	AssetIDs []string     `json:"asset_ids" validate:"max=20,dive,required"`
}

// ChatReply is the assistant's answer
type ChatReply struct {
	Message  ai.Message `json:"message"`
	Provider string     `json:"provider"`
	AssetIDs []string   `json:"asset_ids,omitempty"`
}

// Ask answers the last user message. Referenced assets must be readable by
// the actor; their titles and summaries are given to the model as context.
func (s *ChatService) Ask(ctx context.Context, actor *identity.Identity, orgID string, in ChatInput) (*ChatReply, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, orgID, authz.ObjAI, authz.ActCreate); err != nil {
		return nil, err
	}
	if s.deps.AI == nil {
		return nil, apperr.Unavailable("the AI assistant is not configured", nil)
	}

	docs, err := s.documents(ctx, actor, orgID, in.AssetIDs)
	if err != nil {
		return nil, err
	}

	answer, err := s.deps.AI.Chat(ctx, in.Messages, docs)
	audit.Log(audit.AIEvent{Common: s.common(actor, orgID, "ask", err), Feature: "chat", Model: s.deps.AI.Provider()})
	if err != nil {
		return nil, apperr.From(err)
	}

	return &ChatReply{
		Message:  ai.Message{Role: ai.RoleAssistant, Content: answer},
		Provider: s.deps.AI.Provider(),
		AssetIDs: in.AssetIDs,
	}, nil
}

// documents loads the referenced assets as chat context
func (s *ChatService) documents(ctx context.Context, actor *identity.Identity, orgID string, ids []string) ([]ai.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	assets, err := s.stores().Assets.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, apperr.From(err)
	}

	found := make(map[string]bool, len(assets))
	docs := make([]ai.Document, 0, len(assets))
	for i := range assets {
		a := &assets[i]
		if _, _, err := loadVault(ctx, s.base, actor, a.VaultID, authz.ActRead); err != nil {
			if apperr.IsCode(err, apperr.CodeNotFound) {
				return nil, apperr.NotFound("asset", a.ID)
			}
			return nil, err
		}
		found[a.ID] = true

		content := a.Summary
		if content == "" {
			content = "(no summary available yet; file " + a.FileName + ")"
		}
		docs = append(docs, ai.Document{Title: a.Title, Content: content})
	}
	for _, id := range ids {
		if !found[id] {
			return nil, apperr.NotFound("asset", id)
		}
	}
	return docs, nil
}
