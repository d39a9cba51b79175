package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// defaultVault registers the default vault of org-1, which members reach
// without a vault membership
func (h *harness) defaultVault() *model.Vault {
	v := &model.Vault{ID: "vault-1", OrganizationID: "org-1", Name: "General", Status: model.VaultActive, IsDefault: true}
	h.mocks.Vaults.On("Get", anyCtx, v.ID).Return(v, nil)
	h.mocks.Vaults.On("GetMember", anyCtx, v.ID, mock.Anything).Return(nil, store.ErrNotFound)
	return v
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		contentType, fileName string
		want                  string
		ok                    bool
	}{
		{"application/pdf", "board pack.pdf", "application/pdf", true},
		{"text/plain; charset=utf-8", "notes.txt", "text/plain", true},
		{"", "minutes.DOCX", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", true},
		{"application/octet-stream", "figures.csv", "text/csv", true},
		{"application/octet-stream", "photo.jpeg", "image/jpeg", true},
		{"application/x-msdownload", "setup.pdf", "application/x-msdownload", false},
		{"", "archive.zip", "", false},
	}
	for _, tt := range tests {
		got, ok := ContentTypeFor(tt.contentType, tt.fileName)
		assert.Equal(t, tt.ok, ok, tt.fileName)
		assert.Equal(t, tt.want, got, tt.fileName)
	}
}

func TestUploadAsset(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "member", model.RoleMember)
	h.defaultVault()
	h.mocks.Assets.On("Create", anyCtx, mock.AnythingOfType("*model.Asset")).Return(nil)

	content := "Quarterly figures"
	asset, err := h.svc.Assets.Upload(bg(), actor("member"), "vault-1", UploadInput{
		FileName: "q3-report.txt",
		Body:     strings.NewReader(content),
	})
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), asset.Checksum)
	assert.Equal(t, int64(len(content)), asset.SizeBytes)
	assert.Equal(t, "q3-report", asset.Title)
	assert.Equal(t, "text/plain", asset.ContentType)
	assert.Equal(t, "org-1", asset.OrganizationID)
	assert.True(t, h.blobs.Has(asset.StorageKey))
	assert.Equal(t, []realtime.EventType{realtime.AssetUploaded}, h.pub.types())
}

func TestUploadRejected(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "viewer", model.RoleViewer)
	h.member("org-1", "member", model.RoleMember)
	h.defaultVault()

	_, err := h.svc.Assets.Upload(bg(), actor("member"), "vault-1", UploadInput{
		FileName: "huge.pdf",
		Size:     1 << 40,
		Body:     strings.NewReader("x"),
	})
	assertCode(t, err, apperr.CodeValidation)
	assert.Equal(t, "file", apperr.From(err).Field)

	_, err = h.svc.Assets.Upload(bg(), actor("member"), "vault-1", UploadInput{
		FileName:    "tool.exe",
		ContentType: "application/x-msdownload",
		Body:        strings.NewReader("x"),
	})
	assertCode(t, err, apperr.CodeValidation)
	assert.Equal(t, "content_type", apperr.From(err).Field)

	_, err = h.svc.Assets.Upload(bg(), actor("member"), "vault-1", UploadInput{FileName: "empty.txt", Body: strings.NewReader("")})
	assertCode(t, err, apperr.CodeValidation)

	// viewers of the default vault cannot upload
	_, err = h.svc.Assets.Upload(bg(), actor("viewer"), "vault-1", UploadInput{FileName: "a.txt", Body: strings.NewReader("x")})
	assertCode(t, err, apperr.CodeForbidden)

	h.mocks.Assets.AssertNotCalled(t, "Create", anyCtx, mock.Anything)
}

func TestUploadRemovesBlobWhenInsertFails(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "admin", model.RoleAdmin)
	h.defaultVault()

	var key string
	h.mocks.Assets.On("Create", anyCtx, mock.AnythingOfType("*model.Asset")).
		Run(func(args mock.Arguments) {
			key = args.Get(1).(*model.Asset).StorageKey
		}).
		Return(errors.New("connection reset"))

	_, err := h.svc.Assets.Upload(bg(), actor("admin"), "vault-1", UploadInput{
		FileName: "pack.pdf",
		Body:     strings.NewReader("%PDF-1.7"),
	})
	require.Error(t, err)
	require.NotEmpty(t, key)
	assert.False(t, h.blobs.Has(key))
}

func TestDownloadHidesInvisibleVault(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "member", model.RoleMember)
	private := &model.Vault{ID: "vault-2", OrganizationID: "org-1", Name: "Audit committee", Status: model.VaultActive}
	h.mocks.Vaults.On("Get", anyCtx, "vault-2").Return(private, nil)
	h.mocks.Vaults.On("GetMember", anyCtx, "vault-2", "member").Return(nil, store.ErrNotFound)
	h.mocks.Assets.On("Get", anyCtx, "asset-1").Return(&model.Asset{ID: "asset-1", OrganizationID: "org-1", VaultID: "vault-2"}, nil)

	_, err := h.svc.Assets.Download(bg(), actor("member"), "asset-1")
	assertCode(t, err, apperr.CodeNotFound)
	assert.Equal(t, "asset not found", apperr.From(err).Message)
}

func TestDownloadLink(t *testing.T) {
	h := newHarness(t)
	h.member("org-1", "viewer", model.RoleViewer)
	h.defaultVault()
	asset := &model.Asset{ID: "asset-1", OrganizationID: "org-1", VaultID: "vault-1", FileName: "pack.pdf", StorageKey: "org-1/vault-1/asset-1/pack.pdf"}
	h.mocks.Assets.On("Get", anyCtx, "asset-1").Return(asset, nil)
	require.NoError(t, h.blobs.Put(bg(), asset.StorageKey, strings.NewReader("pdf"), 3, "application/pdf"))

	link, err := h.svc.Assets.Download(bg(), actor("viewer"), "asset-1")
	require.NoError(t, err)
	assert.NotEmpty(t, link.URL)
	assert.Equal(t, fixedNow.Add(DownloadURLTTL), link.ExpiresAt)
}
