package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Spok95/workshop-erp/internal/domain/dates"
)

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errBadParam, raw)
	}
	return id, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", errBadParam, name, raw)
	}
	return v, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, name, raw)
	}
	return v, nil
}

func queryID(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, fmt.Errorf("%w: %s=%q", errBadParam, name, raw)
	}
	return &v, nil
}

func queryDate(r *http.Request, name string) (*dates.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	d, err := dates.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", errBadParam, name, raw)
	}
	return &d, nil
}

// one отдаёт найденную запись или 404.
func one[T any](w http.ResponseWriter, status int, v *T) error {
	if v == nil {
		return errNotFound
	}
	writeJSON(w, status, v)
	return nil
}

// many отдаёт список; пустой — как [], а не null.
func many[T any](w http.ResponseWriter, items []T) error {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
	return nil
}

func gone(w http.ResponseWriter, ok bool) error {
	if !ok {
		return errNotFound
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
