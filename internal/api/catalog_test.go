package api

import (
	"net/http"
	"testing"

	"github.com/Spok95/workshop-erp/internal/domain/catalog"
	"github.com/stretchr/testify/require"
)

func TestCategoryCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/categories", map[string]any{"name": " Фанера ", "description": "листовые"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeAs[catalog.Category](t, rec)
	require.Equal(t, "Фанера", created.Name)
	require.True(t, created.Active)

	rec = env.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "фанера"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/categories/1", map[string]any{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeAs[catalog.Category](t, rec)
	require.False(t, updated.Active)
	require.Equal(t, "листовые", updated.Description)

	rec = env.do(t, http.MethodGet, "/api/categories?only_active=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/categories/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteReferencedCategory(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Кромка"}).Code)
	env.categories.referenced[1] = true

	rec := env.do(t, http.MethodDelete, "/api/categories/1", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	env.categories.referenced[1] = false
	rec = env.do(t, http.MethodDelete, "/api/categories/1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/categories/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryActivation(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Фурнитура"}).Code)

	rec := env.do(t, http.MethodPost, "/api/categories/1/deactivate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, decodeAs[catalog.Category](t, rec).Active)

	rec = env.do(t, http.MethodGet, "/api/categories?only_active=true", nil)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/categories/1/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeAs[catalog.Category](t, rec).Active)

	require.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/categories/7/activate", nil).Code)
}
