package endpoints

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

func TestListOptions(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  store.ListOptions
		field string
	}{
		{name: "defaults", query: "", want: store.ListOptions{Limit: DefaultListLimit}},
		{name: "paging", query: "limit=10&offset=30", want: store.ListOptions{Limit: 10, Offset: 30}},
		{name: "capped", query: "limit=100000", want: store.ListOptions{Limit: 500}},
		{name: "sorting", query: "sort=title&order=DESC&search=+budget+&status=open", want: store.ListOptions{Limit: DefaultListLimit, SortBy: "title", Desc: true, Search: "budget", Status: "open"}},
		{name: "zero limit", query: "limit=0", field: "limit"},
		{name: "bad limit", query: "limit=ten", field: "limit"},
		{name: "negative offset", query: "offset=-1", field: "offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/items?"+tt.query, nil)
			got, err := listOptions(r)
			if tt.field != "" {
				require.Error(t, err)
				assert.Equal(t, tt.field, apperr.From(err).Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleWritesErrors(t *testing.T) {
	h := handle(func(w http.ResponseWriter, r *http.Request) error {
		return store.ErrNotFound
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/x", nil))
	body := assertError(t, rec, http.StatusNotFound, apperr.CodeNotFound)
	assert.Equal(t, "resource not found", body.Message)

	h = handle(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	})
	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/x", nil))
	body = assertError(t, rec, http.StatusInternalServerError, apperr.CodeInternal)
	assert.NotContains(t, body.Message, "boom")
}

func TestActorRequiresIdentity(t *testing.T) {
	_, err := actor(httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}
