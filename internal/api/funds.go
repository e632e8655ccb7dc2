package api

import (
	"fmt"
	"net/http"

	"github.com/Spok95/workshop-erp/internal/domain/funds"
)

func (a *API) listFunds(w http.ResponseWriter, r *http.Request) error {
	onlyActive, err := queryBool(r, "only_active")
	if err != nil {
		return err
	}
	items, err := a.Funds.ListFunds(r.Context(), onlyActive)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createFund(w http.ResponseWriter, r *http.Request) error {
	var in funds.NewFund
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	f, err := a.Funds.CreateFund(r.Context(), in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, f)
}

func (a *API) getFund(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	f, err := a.Funds.GetFund(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, f)
}

func (a *API) updateFund(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var p funds.FundPatch
	if err := a.decode(w, r, &p); err != nil {
		return err
	}
	f, err := a.Funds.UpdateFund(r.Context(), id, p)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, f)
}

func (a *API) deleteFund(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Funds.DeleteFund(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

// fundID — id фонда из пути; фонда нет — 404.
func (a *API) fundID(r *http.Request) (int64, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, err
	}
	f, err := a.Funds.GetFund(r.Context(), id)
	if err != nil {
		return 0, err
	}
	if f == nil {
		return 0, funds.ErrFundNotFound
	}
	return id, nil
}

func (a *API) listFundCategories(w http.ResponseWriter, r *http.Request) error {
	id, err := a.fundID(r)
	if err != nil {
		return err
	}
	items, err := a.Funds.ListCategories(r.Context(), id)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createFundCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := a.fundID(r)
	if err != nil {
		return err
	}
	var in funds.CategoryInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	c, err := a.Funds.CreateCategory(r.Context(), id, in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, c)
}

func (a *API) getFundCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	c, err := a.Funds.GetCategory(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, c)
}

func (a *API) updateFundCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in funds.CategoryInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	c, err := a.Funds.UpdateCategory(r.Context(), id, in)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, c)
}

func (a *API) deleteFundCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Funds.DeleteCategory(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) error {
	id, err := a.fundID(r)
	if err != nil {
		return err
	}
	var f funds.TxFilter
	if f.From, err = queryDate(r, "from"); err != nil {
		return err
	}
	if f.To, err = queryDate(r, "to"); err != nil {
		return err
	}
	if f.From != nil && f.To != nil && f.To.Before(f.From.Time) {
		return fmt.Errorf("%w: from is after to", errBadParam)
	}
	if f.CategoryID, err = queryID(r, "category_id"); err != nil {
		return err
	}
	switch k := funds.Kind(r.URL.Query().Get("kind")); k {
	case "", funds.KindIncome, funds.KindExpense:
		f.Kind = k
	default:
		return fmt.Errorf("%w: kind=%q", errBadParam, k)
	}
	items, err := a.Funds.ListTransactions(r.Context(), id, f)
	if err != nil {
		return err
	}
	return many(w, items)
}

func (a *API) createTransaction(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var in funds.NewTransaction
	if err := a.decode(w, r, &in); err != nil {
		return err
	}
	t, err := a.Funds.CreateTransaction(r.Context(), id, in)
	if err != nil {
		return err
	}
	return one(w, http.StatusCreated, t)
}

func (a *API) deleteTransaction(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ok, err := a.Funds.DeleteTransaction(r.Context(), id)
	if err != nil {
		return err
	}
	return gone(w, ok)
}

func (a *API) fundSummary(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	s, err := a.Funds.Summary(r.Context(), id)
	if err != nil {
		return err
	}
	return one(w, http.StatusOK, s)
}
