package api

import (
	"fmt"
	"net/http"

	"github.com/Spok95/workshop-erp/internal/domain/calculator"
	"github.com/Spok95/workshop-erp/internal/infra/archive"
	"github.com/Spok95/workshop-erp/internal/report"
)

func (a *API) listTemplates(w http.ResponseWriter, r *http.Request) error {
	items, err := a.Calculator.ListTemplates(r.Context(), r.URL.Query().Get("product_type"))
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createTemplate(w http.ResponseWriter, r *http.Request) error {
	var in calculator.TemplateInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	t, err := a.Calculator.CreateTemplate(r.Context(), in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, t)
}

func (a *API) getTemplate(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	t, err := a.Calculator.GetTemplate(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, t)
}

func (a *API) updateTemplate(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in calculator.TemplateInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	t, err := a.Calculator.UpdateTemplate(r.Context(), id, in)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, t)
}

func (a *API) deleteTemplate(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Calculator.DeleteTemplate(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

// calcInput читает параметры расчёта; пустое тело — все значения по умолчанию.
func (a *API) calcInput(w http.ResponseWriter, r *http.Request) (calculator.Input, error) {
	var req calculator.CalcRequest
	if r.ContentLength == 0 {
		return calculator.Input{}, nil
	}
	if err := a.decode(w, r, &req); err != nil {
		return nil, err
	}
	if req.Parameters == nil {
		req.Parameters = calculator.Input{}
	}
	return req.Parameters, nil
}

func (a *API) countCalc(err error) {
	if a.Metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	a.Metrics.BomCalculations.WithLabelValues(result).Inc()
}

func (a *API) calculateTemplate(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	in, err := a.calcInput(w, r)
	if err != nil {
		return err
	}
	t, err := a.Calculator.GetTemplate(r.Context(), id)
	if err != nil {
		return err
	}
	if t == nil {
		return errNotFound
	}
	res, err := calculator.Evaluate(*t, in)
	a.countCalc(err)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (a *API) listBoms(w http.ResponseWriter, r *http.Request) error {
	templateID, err := queryID(r, "template_id")
	if err != nil {
		return err
	}
	productID, err := queryID(r, "product_id")
	if err != nil {
		return err
	}
	items, err := a.Calculator.ListBoms(r.Context(), templateID, productID)
	if err != nil {
		return err
	}
	return many(w, items)
}

// decodeBom читает BOM-шаблон и сверяет формулы строк с именами шаблона расчёта.
func (a *API) decodeBom(w http.ResponseWriter, r *http.Request) (calculator.BomInput, error) {
	var in calculator.BomInput
	if err := a.decode(w, r, &in); err != nil {
		return in, err
	}
	t, err := a.Calculator.GetTemplate(r.Context(), in.TemplateID)
	if err != nil {
		return in, err
	}
	if t == nil {
		return in, &fieldsError{Fields: map[string]string{"template_id": "template does not exist"}}
	}
	return in, calculator.ValidateBOM(in.Lines, *t)
}

func (a *API) createBom(w http.ResponseWriter, r *http.Request) error {
	in, err := a.decodeBom(w, r)
	if err != nil {
		return err
	}
	b, err := a.Calculator.CreateBom(r.Context(), in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, b)
}

func (a *API) getBom(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	b, err := a.Calculator.GetBom(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, b)
}

func (a *API) updateBom(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	in, err := a.decodeBom(w, r)
	if err != nil {
		return err
	}
	b, err := a.Calculator.UpdateBom(r.Context(), id, in)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, b)
}

func (a *API) deleteBom(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Calculator.DeleteBom(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

// runBom вычисляет BOM-шаблон из пути с параметрами из тела.
func (a *API) runBom(w http.ResponseWriter, r *http.Request) (*calculator.BomResult, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	in, err := a.calcInput(w, r)
	if err != nil {
		return nil, err
	}
	b, err := a.Calculator.GetBom(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errNotFound
	}
	t, err := a.Calculator.GetTemplate(r.Context(), b.TemplateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: template %d", calculator.ErrMissingRef, b.TemplateID)
	}
	res, err := calculator.CalculateBOM(r.Context(), *b, *t, in, a.Prices)
	a.countCalc(err)
	return res, err
}

func (a *API) calculateBom(w http.ResponseWriter, r *http.Request) error {
	res, err := a.runBom(w, r)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// exportBom отдаёт расчёт в xlsx; при настроенном архиве сохраняет копию
// и возвращает её ключ в X-Archive-Key.
func (a *API) exportBom(w http.ResponseWriter, r *http.Request) error {
	res, err := a.runBom(w, r)
	if err != nil {
		return err
	}
	now := a.Now()
	data, err := report.BomXLSX(res, now)
	if err != nil {
		return err
	}
	if a.Archive != nil {
		key, err := a.Archive.Put(r.Context(), archive.BomKey(res.BomTemplateID, now), report.ContentTypeXLSX, data)
		if err != nil {
			return fmt.Errorf("archive bom export: %w", err)
		}
		w.Header().Set("X-Archive-Key", key)
	}
	name := fmt.Sprintf("bom_%d_%s.xlsx", res.BomTemplateID, now.Format("20060102_150405"))
	w.Header().Set("Content-Type", report.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return nil
}
