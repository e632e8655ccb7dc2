package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/Spok95/workshop-erp/internal/domain/calculator"
	"github.com/Spok95/workshop-erp/internal/domain/funds"
	"github.com/Spok95/workshop-erp/internal/domain/inventory"
	"github.com/Spok95/workshop-erp/internal/domain/materials"
	"github.com/Spok95/workshop-erp/internal/domain/products"
	"github.com/Spok95/workshop-erp/internal/formula"
	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/go-playground/validator/v10"
)

const maxBody = 1 << 20

var (
	errNotFound = errors.New("not found")
	errBadJSON  = errors.New("malformed JSON body")
	errBadParam = errors.New("invalid parameter")
)

// fieldsError — ошибки валидации по полям (ключ — имя поля в JSON).
type fieldsError struct {
	Fields map[string]string
}

func (e *fieldsError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// statusFor — соответствие доменных ошибок HTTP-статусам, первое совпадение побеждает.
var statusFor = []struct {
	err    error
	status int
}{
	{errNotFound, http.StatusNotFound},
	{products.ErrNotFound, http.StatusNotFound},
	{inventory.ErrMaterialNotFound, http.StatusNotFound},
	{funds.ErrFundNotFound, http.StatusNotFound},
	{errBadJSON, http.StatusBadRequest},
	{errBadParam, http.StatusBadRequest},
	{db.ErrConflict, http.StatusConflict},
	{db.ErrReferenced, http.StatusConflict},
	{db.ErrBadRef, http.StatusUnprocessableEntity},
	{db.ErrCheck, http.StatusUnprocessableEntity},
	{materials.ErrUnknownAction, http.StatusUnprocessableEntity},
	{materials.ErrBulkArgs, http.StatusUnprocessableEntity},
	{inventory.ErrInvalidQty, http.StatusUnprocessableEntity},
	{inventory.ErrNegativeActual, http.StatusUnprocessableEntity},
	{products.ErrCycle, http.StatusUnprocessableEntity},
	{products.ErrNotAssembly, http.StatusUnprocessableEntity},
	{products.ErrSubgroupMismatch, http.StatusUnprocessableEntity},
	{products.ErrDuplicateLine, http.StatusUnprocessableEntity},
	{funds.ErrInvalidAmount, http.StatusUnprocessableEntity},
	{funds.ErrNegativeBudget, http.StatusUnprocessableEntity},
	{funds.ErrCategoryMismatch, http.StatusUnprocessableEntity},
	{calculator.ErrInvalidTemplate, http.StatusUnprocessableEntity},
	{calculator.ErrInvalidInput, http.StatusUnprocessableEntity},
	{calculator.ErrInvalidBOM, http.StatusUnprocessableEntity},
	{calculator.ErrMissingRef, http.StatusUnprocessableEntity},
	{formula.ErrSyntax, http.StatusUnprocessableEntity},
	{formula.ErrUnknownVariable, http.StatusUnprocessableEntity},
	{formula.ErrNotNumber, http.StatusUnprocessableEntity},
	{formula.ErrNotFinite, http.StatusUnprocessableEntity},
	{formula.ErrEval, http.StatusUnprocessableEntity},
	{formula.ErrCycle, http.StatusUnprocessableEntity},
}

func statusOf(err error) int {
	var fe *fieldsError
	if errors.As(err, &fe) {
		return http.StatusUnprocessableEntity
	}
	for _, s := range statusFor {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// writeJSON кодирует до отправки заголовков: ошибка кодирования превращается в 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("encode response", "err", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: http.StatusText(status)})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// fail пишет ответ об ошибке; 500 логируется, текст наружу не отдаётся.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}
	var fe *fieldsError
	if errors.As(err, &fe) {
		body.Fields = fe.Fields
	}
	if status == http.StatusInternalServerError {
		a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

// handle превращает обработчик с ошибкой в http.HandlerFunc.
func (a *API) handle(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			a.fail(w, r, err)
		}
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode читает JSON-тело в dst и проверяет теги validate и метод Validate().
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadJSON)
		}
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return a.check(dst)
}

func (a *API) check(v any) error {
	// тела-массивы проверяются через validateSlice
	if reflect.Indirect(reflect.ValueOf(v)).Kind() != reflect.Struct {
		return nil
	}
	if err := a.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &fieldsError{Fields: fieldMessages(verrs)}
		}
		return err
	}
	if c, ok := v.(interface{ Validate() error }); ok {
		return c.Validate()
	}
	return nil
}

// validateSlice проверяет каждый элемент тела-массива; ключи вида "[2].quantity".
func (a *API) validateSlice(items any) error {
	rv := reflect.ValueOf(items)
	fields := map[string]string{}
	for i := 0; i < rv.Len(); i++ {
		err := a.validate.Struct(rv.Index(i).Interface())
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for k, msg := range fieldMessages(verrs) {
				fields[fmt.Sprintf("[%d].%s", i, k)] = msg
			}
		} else if err != nil {
			return err
		}
	}
	if len(fields) > 0 {
		return &fieldsError{Fields: fields}
	}
	return nil
}

func fieldMessages(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// пространство имён без корневого типа: Lines[0].quantity_formula
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		out[key] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must have at least " + fe.Param() + " items"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "email":
		return "must be a valid email"
	}
	return "is invalid (" + fe.Tag() + ")"
}
