package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/storage"
	"github.com/appboardguru/boardguru/pkg/validation"
)

// DownloadURLTTL is the validity of presigned download URLs
const DownloadURLTTL = 15 * time.Minute

// allowedTypes maps accepted content types to their file extensions
var allowedTypes = map[string][]string{
	"application/pdf": {".pdf"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {".docx"},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {".xlsx"},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {".pptx"},
	"text/plain":    {".txt"},
	"text/markdown": {".md", ".markdown"},
	"text/csv":      {".csv"},
	"image/png":     {".png"},
	"image/jpeg":    {".jpg", ".jpeg"},
}

// ContentTypeFor resolves the content type of an upload. Generic or missing
// types are inferred from the file extension. ok is false for types that
// may not be uploaded.
func ContentTypeFor(contentType, fileName string) (string, bool) {
	ct := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			ct = strings.ToLower(mt)
		}
	}
	if _, ok := allowedTypes[ct]; ok {
		return ct, true
	}
	if ct != "" && ct != "application/octet-stream" {
		return ct, false
	}

	ext := strings.ToLower(path.Ext(fileName))
	for t, exts := range allowedTypes {
		for _, e := range exts {
			if e == ext {
				return t, true
			}
		}
	}
	return ct, false
}

// AssetService stores board documents
type AssetService struct {
	base
}

// UploadInput describes a document upload. Body is read exactly once.
type UploadInput struct {
	Title       string    `json:"title" validate:"max=200"`
	FileName    string    `json:"file_name" validate:"required,max=255"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Body        io.Reader `json:"-"`
}

// DownloadLink is a short-lived URL to an asset blob
type DownloadLink struct {
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
}

// countingHash hashes and counts everything written to it
type countingHash struct {
	hash.Hash
	n int64
}

func (c *countingHash) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return c.Hash.Write(p)
}

// Upload stores a document in a vault. The blob is written first and
// removed again when the metadata row cannot be inserted.
func (s *AssetService) Upload(ctx context.Context, actor *identity.Identity, vaultID string, in UploadInput) (*model.Asset, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, apperr.Validation("file", "file is required")
	}

	maxBytes := config.Get().MaxUploadBytes
	if in.Size > maxBytes {
		return nil, tooLarge(maxBytes)
	}
	contentType, ok := ContentTypeFor(in.ContentType, in.FileName)
	if !ok {
		return nil, apperr.Validation("content_type", fmt.Sprintf("content type %q is not allowed", contentType)).
			WithSuggestion("upload a PDF, Office document, text, CSV, PNG or JPEG file")
	}

	vault, _, err := loadVault(ctx, s.base, actor, vaultID, authz.ActCreate)
	if err != nil {
		return nil, err
	}
	if vault.Status == model.VaultArchived {
		return nil, apperr.BusinessRule("archived vaults do not accept uploads")
	}

	asset := &model.Asset{
		ID:             uuid.NewString(),
		OrganizationID: vault.OrganizationID,
		VaultID:        vault.ID,
		Title:          in.Title,
		FileName:       in.FileName,
		ContentType:    contentType,
		UploadedBy:     actor.UserID,
	}
	if asset.Title == "" {
		asset.Title = strings.TrimSuffix(in.FileName, path.Ext(in.FileName))
	}
	asset.StorageKey = storage.ObjectKey(asset.OrganizationID, asset.VaultID, asset.ID, in.FileName)

	sum := &countingHash{Hash: sha256.New()}
	body := io.TeeReader(io.LimitReader(in.Body, maxBytes+1), sum)
	if err := s.deps.Blobs.Put(ctx, asset.StorageKey, body, in.Size, contentType); err != nil {
		return nil, apperr.Unavailable("failed to store the document", err)
	}
	if sum.n > maxBytes {
		s.deleteBlob(ctx, asset.StorageKey)
		return nil, tooLarge(maxBytes)
	}
	if sum.n == 0 {
		s.deleteBlob(ctx, asset.StorageKey)
		return nil, apperr.Validation("file", "file is empty")
	}
	asset.SizeBytes = sum.n
	asset.Checksum = hex.EncodeToString(sum.Sum(nil))

	err = s.stores().Assets.Create(ctx, asset)
	audit.Log(audit.AssetEvent{Common: s.common(actor, asset.OrganizationID, "upload", err), AssetID: asset.ID, VaultID: vault.ID, FileName: asset.FileName})
	if err != nil {
		s.deleteBlob(ctx, asset.StorageKey)
		return nil, apperr.From(err)
	}

	s.invalidate(ctx, cache.OrgTag(asset.OrganizationID))
	s.publish(ctx, realtime.AssetUploaded, asset.OrganizationID, "", asset)
	s.log.Info().Str("asset_id", asset.ID).Str("vault_id", vault.ID).Int64("size_bytes", asset.SizeBytes).Msg("asset uploaded")
	return asset, nil
}

// Get returns an asset the actor may read
func (s *AssetService) Get(ctx context.Context, actor *identity.Identity, assetID string) (*model.Asset, error) {
	asset, _, err := loadAsset(ctx, s.base, actor, assetID, authz.ActRead)
	return asset, err
}

// List lists the assets of a vault
func (s *AssetService) List(ctx context.Context, actor *identity.Identity, vaultID string, opts store.ListOptions) (Page[model.Asset], error) {
	if _, _, err := loadVault(ctx, s.base, actor, vaultID, authz.ActRead); err != nil {
		return Page[model.Asset]{}, err
	}
	assets, total, err := s.stores().Assets.List(ctx, vaultID, opts)
	if err != nil {
		return Page[model.Asset]{}, apperr.From(err)
	}
	return newPage(assets, total, opts), nil
}

// Download returns a presigned URL for the asset blob
func (s *AssetService) Download(ctx context.Context, actor *identity.Identity, assetID string) (*DownloadLink, error) {
	asset, _, err := loadAsset(ctx, s.base, actor, assetID, authz.ActRead)
	if err != nil {
		return nil, err
	}

	url, err := s.deps.Blobs.PresignGet(ctx, asset.StorageKey, DownloadURLTTL)
	if errors.Is(err, storage.ErrObjectNotFound) {
		err = apperr.NotFound("asset", assetID).Wrap(err)
	} else if err != nil {
		err = apperr.Unavailable("failed to create the download link", err)
	}
	audit.Log(audit.AssetEvent{Common: s.common(actor, asset.OrganizationID, "download", err), AssetID: asset.ID, VaultID: asset.VaultID, FileName: asset.FileName})
	if err != nil {
		return nil, err
	}

	return &DownloadLink{
		URL:         url,
		ExpiresAt:   s.now().Add(DownloadURLTTL),
		FileName:    asset.FileName,
		ContentType: asset.ContentType,
	}, nil
}

// Delete removes an asset row, then its blob. Uploaders may delete their
// own documents with a vault editor role; others need vault management.
func (s *AssetService) Delete(ctx context.Context, actor *identity.Identity, assetID string) error {
	asset, err := s.stores().Assets.Get(ctx, assetID)
	if err != nil {
		return notFoundAs(err, "asset", assetID)
	}
	action := authz.ActDelete
	if asset.UploadedBy == actor.UserID {
		action = authz.ActUpdate
	}
	if _, err := s.requireAssetVault(ctx, actor, asset, action); err != nil {
		return err
	}

	err = s.stores().Assets.Delete(ctx, asset.ID)
	audit.Log(audit.AssetEvent{Common: s.common(actor, asset.OrganizationID, "delete", err), AssetID: asset.ID, VaultID: asset.VaultID, FileName: asset.FileName})
	if err != nil {
		return notFoundAs(err, "asset", assetID)
	}

	s.deleteBlob(ctx, asset.StorageKey)
	s.invalidate(ctx, cache.OrgTag(asset.OrganizationID))
	return nil
}

// RequestSummary queues an AI summary of the asset
func (s *AssetService) RequestSummary(ctx context.Context, actor *identity.Identity, assetID string) (*model.AIJob, error) {
	asset, _, err := loadAsset(ctx, s.base, actor, assetID, authz.ActRead)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, actor, asset.OrganizationID, authz.ObjAI, authz.ActCreate); err != nil {
		return nil, err
	}

	job, created, err := s.deps.Queue.Enqueue(ctx, asset.OrganizationID, model.JobSummarizeAsset, asset.ID, actor.UserID)
	if created || err != nil {
		audit.Log(audit.AIEvent{Common: s.common(actor, asset.OrganizationID, "summarize", err), Feature: "summarize", ResourceID: asset.ID})
	}
	if err != nil {
		return nil, apperr.From(err)
	}
	return job, nil
}

func (s *AssetService) requireAssetVault(ctx context.Context, actor *identity.Identity, asset *model.Asset, action authz.Action) (*model.Vault, error) {
	vault, _, err := loadVault(ctx, s.base, actor, asset.VaultID, action)
	if apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("asset", asset.ID)
	}
	return vault, err
}

// deleteBlob removes a blob; it survives the request being canceled
func (s *AssetService) deleteBlob(ctx context.Context, key string) {
	if err := s.deps.Blobs.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.log.Error().Err(err).Str("storage_key", key).Msg("failed to delete blob")
	}
}

// loadAsset fetches an asset and checks the actor's vault access
func loadAsset(ctx context.Context, b base, actor *identity.Identity, assetID string, action authz.Action) (*model.Asset, *model.Vault, error) {
	asset, err := b.stores().Assets.Get(ctx, assetID)
	if err != nil {
		return nil, nil, notFoundAs(err, "asset", assetID)
	}
	vault, _, err := loadVault(ctx, b, actor, asset.VaultID, action)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return nil, nil, apperr.NotFound("asset", assetID)
		}
		return nil, nil, err
	}
	return asset, vault, nil
}

func tooLarge(maxBytes int64) *apperr.Error {
	return apperr.Validation("file", fmt.Sprintf("file exceeds the maximum upload size of %d bytes", maxBytes)).
		WithDetail("max_bytes", maxBytes)
}
