package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Spok95/workshop-erp/internal/domain/calculator"
	"github.com/Spok95/workshop-erp/internal/domain/funds"
	"github.com/Spok95/workshop-erp/internal/domain/products"
	"github.com/Spok95/workshop-erp/internal/formula"
	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", funds.ErrFundNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: x", errBadJSON), http.StatusBadRequest},
		{fmt.Errorf("sku: %w", db.ErrConflict), http.StatusConflict},
		{db.ErrReferenced, http.StatusConflict},
		{db.ErrBadRef, http.StatusUnprocessableEntity},
		{products.ErrCycle, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: width", formula.ErrUnknownVariable), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: bad", calculator.ErrInvalidTemplate), http.StatusUnprocessableEntity},
		{&fieldsError{Fields: map[string]string{"name": "is required"}}, http.StatusUnprocessableEntity},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestMalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/categories", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeAs[errorBody](t, rec).Error, "empty body")
}

func TestValidationFieldsUseJSONNames(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/material-items", map[string]any{
		"name":           "Фанера 18мм",
		"unit":           "barrel",
		"price_per_unit": -1,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeAs[errorBody](t, rec)
	require.Equal(t, "is required", body.Fields["sku"])
	require.Contains(t, body.Fields["unit"], "must be one of")
	require.Contains(t, body.Fields, "price_per_unit")
}

func TestInternalErrorIsHidden(t *testing.T) {
	env := newTestEnv(t)
	env.api.Funds = failingFunds{}
	rec := env.do(t, http.MethodGet, "/api/funds/1", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal Server Error", decodeAs[errorBody](t, rec).Error)
}

func TestBadPathID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/categories/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type failingFunds struct{ FundStore }

func (failingFunds) GetFund(_ context.Context, _ int64) (*funds.Fund, error) {
	return nil, errors.New("pool closed: secret dsn")
}

func TestWriteJSONUnencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"quantity": math.Inf(1)})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}
