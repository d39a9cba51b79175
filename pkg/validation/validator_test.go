package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/config"
)

type orgInput struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
	Slug string `json:"slug" validate:"required,slug,notreserved"`
}

func TestIsSlug(t *testing.T) {
	for _, s := range []string{"acme", "acme-board", "a1-b2-c3"} {
		assert.True(t, IsSlug(s), s)
	}
	for _, s := range []string{"", "Acme", "acme--board", "-acme", "acme-", "acme_board", "acme board"} {
		assert.False(t, IsSlug(s), s)
	}
}

func TestStructValid(t *testing.T) {
	config.Set(config.Default())
	assert.NoError(t, Struct(&orgInput{Name: "Acme", Slug: "acme"}))
}

func TestStructReservedSlug(t *testing.T) {
	config.Set(config.Default())

	err := Struct(&orgInput{Name: "Acme", Slug: "admin"})
	require.Error(t, err)

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeValidation, appErr.Code)
	assert.Equal(t, "slug", appErr.Field)
	assert.Contains(t, appErr.Message, "reserved")
}

func TestStructReportsAllFields(t *testing.T) {
	config.Set(config.Default())

	err := Struct(&orgInput{Name: "A", Slug: "Bad Slug"})
	require.Error(t, err)

	appErr := apperr.From(err)
	assert.Equal(t, "name", appErr.Field)
	fields, ok := appErr.Details["fields"].([]map[string]interface{})
	require.True(t, ok)
	assert.Len(t, fields, 2)
	assert.Equal(t, "slug", fields[1]["field"])
}
