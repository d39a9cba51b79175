package endpoints

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// defaultVault registers the default vault of org-1, which every member
// can reach
func (ts *testServer) defaultVault() {
	v := &model.Vault{ID: "vault-1", OrganizationID: "org-1", Name: "General", Status: model.VaultActive, IsDefault: true}
	ts.mocks.Vaults.On("Get", anyCtx, v.ID).Return(v, nil)
	ts.mocks.Vaults.On("GetMember", anyCtx, v.ID, mock.Anything).Return(nil, store.ErrNotFound)
}

func uploadRequest(t *testing.T, userID, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/vaults/vault-1/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, userID))
	return req
}

func TestUploadAssetMultipart(t *testing.T) {
	ts := newTestServer(t)
	ts.member("org-1", "member", model.RoleMember)
	ts.defaultVault()
	var created *model.Asset
	ts.mocks.Assets.On("Create", anyCtx, mock.AnythingOfType("*model.Asset")).Return(nil).
		Run(func(args mock.Arguments) { created = args.Get(1).(*model.Asset) })

	rec := ts.serve(uploadRequest(t, "member", "q3-report.txt", "Quarterly figures", map[string]string{"title": "Q3 report"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var asset model.Asset
	decode(t, rec, &asset)
	assert.Equal(t, "Q3 report", asset.Title)
	assert.Equal(t, "q3-report.txt", asset.FileName)
	assert.Equal(t, "text/plain", asset.ContentType)
	assert.Equal(t, int64(len("Quarterly figures")), asset.SizeBytes)
	assert.NotContains(t, rec.Body.String(), "storage_key")

	// the storage key stays server side
	require.NotNil(t, created)
	assert.Empty(t, asset.StorageKey)
	require.NotEmpty(t, created.StorageKey)
	blob, err := ts.blobs.Get(context.Background(), created.StorageKey)
	require.NoError(t, err)
	defer blob.Close()
	data, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly figures", string(data))
}

func TestUploadAssetWithoutFile(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.serve(uploadRequest(t, "member", "", "", map[string]string{"title": "Nothing"}))
	body := assertError(t, rec, http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "file", body.Field)
}

func TestUploadAssetNotMultipart(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/vaults/vault-1/assets", "member", map[string]string{"file": "inline"})
	body := assertError(t, rec, http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "file", body.Field)
}

func TestDownloadAssetRedirect(t *testing.T) {
	ts := newTestServer(t)
	ts.member("org-1", "viewer", model.RoleViewer)
	ts.defaultVault()
	asset := &model.Asset{ID: "asset-1", OrganizationID: "org-1", VaultID: "vault-1", FileName: "pack.pdf", StorageKey: "org-1/vault-1/asset-1/pack.pdf"}
	ts.mocks.Assets.On("Get", anyCtx, "asset-1").Return(asset, nil)
	require.NoError(t, ts.blobs.Put(context.Background(), asset.StorageKey, strings.NewReader("pdf"), 3, "application/pdf"))

	rec := ts.do(t, "GET", "/assets/asset-1/download", "viewer", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"file_name":"pack.pdf"`)

	rec = ts.do(t, "GET", "/assets/asset-1/download?redirect=true", "viewer", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "memory://"+asset.StorageKey, rec.Header().Get("Location"))
}
