package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/service"
)

func TestCheckSlugIsPublic(t *testing.T) {
	ts := newTestServer(t)
	ts.mocks.Organizations.On("SlugExists", anyCtx, "acme-board").Return(false, nil)

	rec := ts.do(t, "GET", "/organizations/check-slug?slug=Acme-Board", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp service.SlugAvailability
	decode(t, rec, &resp)
	assert.Equal(t, "acme-board", resp.Slug)
	assert.True(t, resp.Available)
}

func TestCheckSlugReserved(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/organizations/check-slug?slug=admin", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp service.SlugAvailability
	decode(t, rec, &resp)
	assert.False(t, resp.Available)
	assert.Equal(t, "slug is reserved", resp.Reason)
}

func TestCheckSlugRequiresSlug(t *testing.T) {
	ts := newTestServer(t)

	body := assertError(t, ts.do(t, "GET", "/organizations/check-slug", "", nil), http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "slug", body.Field)
}

func TestCreateOrganizationReservedSlug(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/organizations", "user-1", map[string]string{"name": "Admins", "slug": "admin"})
	body := assertError(t, rec, http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "slug", body.Field)
	ts.mocks.Organizations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrganization(t *testing.T) {
	ts := newTestServer(t)
	m := ts.mocks
	m.Organizations.On("SlugExists", anyCtx, "acme-board").Return(false, nil)
	m.Organizations.On("Create", anyCtx, mock.AnythingOfType("*model.Organization")).Return(nil)
	m.Members.On("Add", anyCtx, mock.Anything).Return(nil)
	m.Vaults.On("Create", anyCtx, mock.Anything).Return(nil)
	m.Vaults.On("SetMember", anyCtx, mock.Anything).Return(nil)

	rec := ts.do(t, "POST", "/organizations", "user-1", map[string]string{"name": "Acme Board", "slug": "acme-board"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var org model.Organization
	decode(t, rec, &org)
	assert.NotEmpty(t, org.ID)
	assert.Equal(t, "acme-board", org.Slug)
	assert.Equal(t, "user-1", org.CreatedBy)
}

func TestCreateOrganizationBadBody(t *testing.T) {
	ts := newTestServer(t)

	body := assertError(t, ts.do(t, "POST", "/organizations", "user-1", "{not json"), http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "body", body.Field)

	body = assertError(t, ts.do(t, "POST", "/organizations", "user-1", ""), http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "body", body.Field)
}

func TestGetOrganizationHiddenFromNonMembers(t *testing.T) {
	ts := newTestServer(t)
	ts.member("org-1", "user-1", model.RoleViewer)
	ts.mocks.Members.On("Get", anyCtx, "org-1", "stranger").Return(nil, store.ErrNotFound)
	ts.mocks.Organizations.On("Get", anyCtx, "org-1").Return(&model.Organization{ID: "org-1", Slug: "acme"}, nil)

	rec := ts.do(t, "GET", "/organizations/org-1", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assertError(t, ts.do(t, "GET", "/organizations/org-1", "stranger", nil), http.StatusNotFound, apperr.CodeNotFound)
	assertError(t, ts.do(t, "PATCH", "/organizations/org-1", "user-1", map[string]string{"name": "Renamed"}), http.StatusForbidden, apperr.CodeForbidden)
}

func TestDeleteOrganizationNeedsConfirmation(t *testing.T) {
	ts := newTestServer(t)
	ts.member("org-1", "owner", model.RoleOwner)
	ts.mocks.Organizations.On("Get", anyCtx, "org-1").Return(&model.Organization{ID: "org-1", Slug: "acme"}, nil)

	body := assertError(t, ts.do(t, "DELETE", "/organizations/org-1", "owner", nil), http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "confirm_slug", body.Field)

	ts.mocks.Members.On("ActiveUserIDs", anyCtx, "org-1").Return([]string{"owner"}, nil)
	ts.mocks.Organizations.On("Delete", anyCtx, "org-1").Return(nil)

	rec := ts.do(t, "DELETE", "/organizations/org-1?confirm_slug=acme", "owner", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestListOrganizationsIsCached(t *testing.T) {
	ts := newTestServer(t)
	orgs := []model.Organization{{ID: "org-1", Name: "Acme", Slug: "acme"}}
	ts.mocks.Organizations.On("ListForUser", anyCtx, "user-1", mock.Anything).Return(orgs, int64(1), nil).Once()

	var pages [2]service.Page[model.Organization]
	for i := range pages {
		rec := ts.do(t, "GET", "/organizations?limit=10", "user-1", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &pages[i])
	}

	assert.Equal(t, pages[0], pages[1])
	assert.Equal(t, int64(1), pages[0].Total)
	assert.Equal(t, 10, pages[0].Limit)
	ts.mocks.Organizations.AssertNumberOfCalls(t, "ListForUser", 1)
}

func TestListOrganizationsCacheIsPerUser(t *testing.T) {
	ts := newTestServer(t)
	ts.mocks.Organizations.On("ListForUser", anyCtx, "user-1", mock.Anything).
		Return([]model.Organization{{ID: "org-1"}}, int64(1), nil)
	ts.mocks.Organizations.On("ListForUser", anyCtx, "user-2", mock.Anything).
		Return([]model.Organization{}, int64(0), nil)

	require.Equal(t, http.StatusOK, ts.do(t, "GET", "/organizations", "user-1", nil).Code)

	var page service.Page[model.Organization]
	decode(t, ts.do(t, "GET", "/organizations", "user-2", nil), &page)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.Total)
}
