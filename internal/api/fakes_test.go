package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/workshop-erp/internal/domain/calculator"
	"github.com/Spok95/workshop-erp/internal/domain/catalog"
	"github.com/Spok95/workshop-erp/internal/domain/funds"
	"github.com/Spok95/workshop-erp/internal/domain/inventory"
	"github.com/Spok95/workshop-erp/internal/domain/materials"
	"github.com/Spok95/workshop-erp/internal/domain/products"
	"github.com/Spok95/workshop-erp/internal/domain/staff"
	"github.com/Spok95/workshop-erp/internal/domain/worktypes"
	"github.com/Spok95/workshop-erp/internal/infra/db"
	"github.com/Spok95/workshop-erp/internal/infra/logger"
	"github.com/Spok95/workshop-erp/internal/infra/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeCategories struct {
	CategoryStore
	items      map[int64]*catalog.Category
	referenced map[int64]bool
	next       int64
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{items: map[int64]*catalog.Category{}, referenced: map[int64]bool{}}
}

func (f *fakeCategories) CreateCategory(_ context.Context, name, description string) (*catalog.Category, error) {
	for _, c := range f.items {
		if strings.EqualFold(c.Name, name) {
			return nil, fmt.Errorf("category %q: %w", name, db.ErrConflict)
		}
	}
	f.next++
	c := &catalog.Category{ID: f.next, Name: name, Description: description, Active: true, CreatedAt: testNow}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCategories) GetCategoryByID(_ context.Context, id int64) (*catalog.Category, error) {
	return f.items[id], nil
}

func (f *fakeCategories) GetCategoryByName(_ context.Context, name string) (*catalog.Category, error) {
	for _, c := range f.items {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCategories) ListCategories(_ context.Context, onlyActive bool) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range f.items {
		if onlyActive && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategories) UpdateCategory(_ context.Context, id int64, p catalog.CategoryPatch) (*catalog.Category, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	return c, nil
}

func (f *fakeCategories) SetCategoryActive(ctx context.Context, id int64, active bool) (*catalog.Category, error) {
	return f.UpdateCategory(ctx, id, catalog.CategoryPatch{Active: &active})
}

func (f *fakeCategories) DeleteCategory(_ context.Context, id int64) (bool, error) {
	if f.referenced[id] {
		return false, db.ErrReferenced
	}
	if _, ok := f.items[id]; !ok {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

type fakeMaterials struct {
	MaterialStore
	items map[int64]*materials.Item
	next  int64
}

func newFakeMaterials() *fakeMaterials {
	return &fakeMaterials{items: map[int64]*materials.Item{}}
}

func (f *fakeMaterials) liveSKU(sku string) *materials.Item {
	for _, it := range f.items {
		if it.SKU == sku && !it.Deleted() {
			return it
		}
	}
	return nil
}

func (f *fakeMaterials) Create(_ context.Context, in materials.NewItem) (*materials.Item, error) {
	if f.liveSKU(in.SKU) != nil {
		return nil, db.ErrConflict
	}
	f.next++
	it := &materials.Item{
		ID: f.next, SKU: in.SKU, Name: in.Name, CategoryID: in.CategoryID, Unit: in.Unit,
		PricePerUnit: in.PricePerUnit, Quantity: in.Quantity, MinQuantity: in.MinQuantity,
		Supplier: in.Supplier, Note: in.Note, Active: true, CreatedAt: testNow, UpdatedAt: testNow,
	}
	f.items[it.ID] = it
	cp := *it
	return &cp, nil
}

func (f *fakeMaterials) GetByID(_ context.Context, id int64) (*materials.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (f *fakeMaterials) List(_ context.Context, flt materials.Filter) ([]materials.Item, error) {
	var out []materials.Item
	for _, it := range f.items {
		if it.Deleted() && !flt.IncludeDeleted {
			continue
		}
		if flt.OnlyActive && !it.Active {
			continue
		}
		if flt.LowStock && !it.LowStock() {
			continue
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMaterials) ListLowStock(ctx context.Context) ([]materials.Item, error) {
	return f.List(ctx, materials.Filter{OnlyActive: true, LowStock: true})
}

func (f *fakeMaterials) ListByIDs(_ context.Context, ids []int64) ([]materials.Item, error) {
	var out []materials.Item
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeMaterials) Update(_ context.Context, id int64, p materials.Patch) (*materials.Item, error) {
	it, ok := f.items[id]
	if !ok || it.Deleted() {
		return nil, nil
	}
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.PricePerUnit != nil {
		it.PricePerUnit = *p.PricePerUnit
	}
	if p.MinQuantity != nil {
		it.MinQuantity = *p.MinQuantity
	}
	cp := *it
	return &cp, nil
}

func (f *fakeMaterials) SoftDelete(_ context.Context, id int64) (bool, error) {
	it, ok := f.items[id]
	if !ok || it.Deleted() {
		return false, nil
	}
	now := testNow
	it.DeletedAt = &now
	it.Active = false
	return true, nil
}

func (f *fakeMaterials) Restore(_ context.Context, id int64) (*materials.Item, error) {
	it, ok := f.items[id]
	if !ok || !it.Deleted() {
		return nil, nil
	}
	if f.liveSKU(it.SKU) != nil {
		return nil, db.ErrConflict
	}
	it.DeletedAt = nil
	it.Active = true
	cp := *it
	return &cp, nil
}

func (f *fakeMaterials) BulkAction(_ context.Context, req materials.BulkRequest) (materials.BulkResult, error) {
	res := materials.BulkResult{Action: req.Action, Requested: len(req.IDs)}
	for _, id := range req.IDs {
		it, ok := f.items[id]
		if !ok {
			continue
		}
		switch req.Action {
		case materials.BulkActivate:
			it.Active = true
		case materials.BulkDeactivate:
			it.Active = false
		default:
			return res, fmt.Errorf("%w: %q", materials.ErrUnknownAction, req.Action)
		}
		res.Affected++
	}
	return res, nil
}

func (f *fakeMaterials) UpsertBySKU(ctx context.Context, in materials.NewItem) (*materials.Item, bool, error) {
	if it := f.liveSKU(in.SKU); it != nil {
		it.Name = in.Name
		it.PricePerUnit = in.PricePerUnit
		it.MinQuantity = in.MinQuantity
		if in.CategoryID != nil {
			it.CategoryID = in.CategoryID
		}
		cp := *it
		return &cp, false, nil
	}
	it, err := f.Create(ctx, in)
	return it, true, err
}

type fakeInventory struct {
	materials *fakeMaterials
	moves     []inventory.Movement
}

func (f *fakeInventory) move(id int64, t inventory.MoveType, delta float64, note string) (*inventory.Movement, error) {
	it, ok := f.materials.items[id]
	if !ok || it.Deleted() {
		return nil, inventory.ErrMaterialNotFound
	}
	it.Quantity += delta
	m := inventory.Movement{
		ID: int64(len(f.moves) + 1), MaterialID: id, Type: t, Qty: delta, Balance: it.Quantity,
		Note: note, CreatedAt: testNow,
	}
	f.moves = append(f.moves, m)
	return &m, nil
}

func (f *fakeInventory) Apply(ctx context.Context, id int64, req inventory.Request) (*inventory.Movement, error) {
	switch req.Type {
	case inventory.MoveIn, inventory.MoveOut:
		if req.Qty <= 0 {
			return nil, inventory.ErrInvalidQty
		}
		delta := req.Qty
		if req.Type == inventory.MoveOut {
			delta = -delta
		}
		return f.move(id, req.Type, delta, req.Note)
	default:
		return f.Adjust(ctx, id, req.Qty, req.Note)
	}
}

func (f *fakeInventory) Adjust(_ context.Context, id int64, actual float64, note string) (*inventory.Movement, error) {
	if actual < 0 {
		return nil, inventory.ErrNegativeActual
	}
	it, ok := f.materials.items[id]
	if !ok {
		return nil, inventory.ErrMaterialNotFound
	}
	if it.Quantity == actual {
		return nil, nil
	}
	return f.move(id, inventory.MoveAdjust, actual-it.Quantity, note)
}

func (f *fakeInventory) ListMovements(_ context.Context, id int64, _ int) ([]inventory.Movement, error) {
	var out []inventory.Movement
	for i := len(f.moves) - 1; i >= 0; i-- {
		if f.moves[i].MaterialID == id {
			out = append(out, f.moves[i])
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]materials.Item
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, items []materials.Item) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, items)
}

// low — материалы с низким остатком из всех вызовов.
func (n *recordingNotifier) low() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, c := range n.calls {
		for _, it := range c {
			if it.LowStock() {
				out = append(out, it.SKU)
			}
		}
	}
	return out
}

type fakeFunds struct {
	FundStore
	funds    map[int64]*funds.Fund
	cats     map[int64]*funds.Category
	txs      []funds.Transaction
	lastFlt  funds.TxFilter
	nextTxID int64
}

func newFakeFunds() *fakeFunds {
	return &fakeFunds{funds: map[int64]*funds.Fund{}, cats: map[int64]*funds.Category{}}
}

func (f *fakeFunds) GetCategory(_ context.Context, id int64) (*funds.Category, error) {
	return f.cats[id], nil
}

func (f *fakeFunds) GetFund(_ context.Context, id int64) (*funds.Fund, error) {
	return f.funds[id], nil
}

func (f *fakeFunds) CreateTransaction(_ context.Context, fundID int64, in funds.NewTransaction) (*funds.Transaction, error) {
	if _, ok := f.funds[fundID]; !ok {
		return nil, funds.ErrFundNotFound
	}
	f.nextTxID++
	t := funds.Transaction{
		ID: f.nextTxID, FundID: fundID, CategoryID: in.CategoryID, Kind: in.Kind, Amount: in.Amount,
		Description: in.Description, CreatedAt: testNow,
	}
	if in.OccurredOn != nil {
		t.OccurredOn = *in.OccurredOn
	}
	f.txs = append(f.txs, t)
	return &t, nil
}

func (f *fakeFunds) ListTransactions(_ context.Context, fundID int64, flt funds.TxFilter) ([]funds.Transaction, error) {
	f.lastFlt = flt
	var out []funds.Transaction
	for _, t := range f.txs {
		if t.FundID == fundID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeFunds) Summary(_ context.Context, fundID int64) (*funds.Summary, error) {
	fd, ok := f.funds[fundID]
	if !ok {
		return nil, nil
	}
	s := funds.Summarize(*fd, nil, f.txs)
	return &s, nil
}

type fakeCalculator struct {
	CalculatorStore
	templates map[int64]*calculator.Template
	boms      map[int64]*calculator.BomTemplate
	next      int64
}

func newFakeCalculator() *fakeCalculator {
	return &fakeCalculator{templates: map[int64]*calculator.Template{}, boms: map[int64]*calculator.BomTemplate{}}
}

func (f *fakeCalculator) CreateTemplate(_ context.Context, in calculator.TemplateInput) (*calculator.Template, error) {
	f.next++
	t := in.Template()
	t.ID = f.next
	f.templates[t.ID] = &t
	return &t, nil
}

func (f *fakeCalculator) GetTemplate(_ context.Context, id int64) (*calculator.Template, error) {
	return f.templates[id], nil
}

func (f *fakeCalculator) CreateBom(_ context.Context, in calculator.BomInput) (*calculator.BomTemplate, error) {
	f.next++
	b := calculator.BomTemplate{
		ID: f.next, Name: in.Name, TemplateID: in.TemplateID, ProductID: in.ProductID,
		Description: in.Description, Lines: in.Lines,
	}
	f.boms[b.ID] = &b
	return &b, nil
}

func (f *fakeCalculator) GetBom(_ context.Context, id int64) (*calculator.BomTemplate, error) {
	return f.boms[id], nil
}

type fakePrices struct {
	materials map[int64]calculator.Priced
	works     map[int64]calculator.Priced
}

func pick(src map[int64]calculator.Priced, ids []int64) map[int64]calculator.Priced {
	out := map[int64]calculator.Priced{}
	for _, id := range ids {
		if p, ok := src[id]; ok {
			out[id] = p
		}
	}
	return out
}

func (p fakePrices) MaterialPrices(_ context.Context, ids []int64) (map[int64]calculator.Priced, error) {
	return pick(p.materials, ids), nil
}

func (p fakePrices) WorkRates(_ context.Context, ids []int64) (map[int64]calculator.Priced, error) {
	return pick(p.works, ids), nil
}

type fakeProducts struct {
	ProductStore
	items      map[int64]*products.Product
	subgroups  map[int64]int64 // подгруппа -> группа
	next       int64
	mats       map[int64][]products.MaterialUsage
	works      map[int64][]products.WorkTypeUsage
	components map[int64][]products.Component
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{
		items:      map[int64]*products.Product{},
		subgroups:  map[int64]int64{},
		mats:       map[int64][]products.MaterialUsage{},
		works:      map[int64][]products.WorkTypeUsage{},
		components: map[int64][]products.Component{},
	}
}

func (f *fakeProducts) checkSubgroup(groupID, subgroupID *int64) error {
	if subgroupID == nil {
		return nil
	}
	owner, ok := f.subgroups[*subgroupID]
	if !ok {
		return db.ErrBadRef
	}
	if groupID == nil || *groupID != owner {
		return products.ErrSubgroupMismatch
	}
	return nil
}

func (f *fakeProducts) Create(_ context.Context, in products.NewProduct) (*products.Product, error) {
	if err := f.checkSubgroup(in.GroupID, in.SubgroupID); err != nil {
		return nil, err
	}
	for _, p := range f.items {
		if p.SKU == in.SKU && p.DeletedAt == nil {
			return nil, db.ErrConflict
		}
	}
	for id := range f.items {
		f.next = max(f.next, id)
	}
	f.next++
	p := &products.Product{
		ID: f.next, SKU: in.SKU, Name: in.Name, Type: in.Type, GroupID: in.GroupID, SubgroupID: in.SubgroupID,
		Unit: in.Unit, Price: in.Price, MarkupPercent: in.MarkupPercent, Active: true, CreatedAt: testNow, UpdatedAt: testNow,
	}
	f.items[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Update(_ context.Context, id int64, pt products.Patch) (*products.Product, error) {
	cur, ok := f.items[id]
	if !ok || cur.DeletedAt != nil {
		return nil, nil
	}
	next := *cur
	pt.Apply(&next)
	if err := f.checkSubgroup(next.GroupID, next.SubgroupID); err != nil {
		return nil, err
	}
	*cur = next
	return &next, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*products.Product, error) {
	return f.items[id], nil
}

func (f *fakeProducts) ListMaterials(_ context.Context, id int64) ([]products.MaterialUsage, error) {
	return f.mats[id], nil
}

func (f *fakeProducts) ListWorkTypes(_ context.Context, id int64) ([]products.WorkTypeUsage, error) {
	return f.works[id], nil
}

func (f *fakeProducts) ListComponents(_ context.Context, id int64) ([]products.Component, error) {
	return f.components[id], nil
}

func (f *fakeProducts) SetComponents(ctx context.Context, id int64, items []products.Component) ([]products.Component, error) {
	p := f.items[id]
	if p == nil || p.DeletedAt != nil {
		return nil, products.ErrNotFound
	}
	if p.Type != products.TypeAssembly {
		return nil, products.ErrNotAssembly
	}
	var start []int64
	for _, c := range items {
		start = append(start, c.ComponentID)
	}
	children := func(ctx context.Context, id int64) ([]int64, error) {
		var ids []int64
		for _, c := range f.components[id] {
			ids = append(ids, c.ComponentID)
		}
		return ids, nil
	}
	cyclic, err := products.Reaches(ctx, children, start, id)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, products.ErrCycle
	}
	for i := range items {
		items[i].AssemblyID = id
	}
	f.components[id] = items
	return items, nil
}

type fakeStaff struct {
	StaffStore
	departments map[int64]*staff.Department
	employees   map[int64]*staff.Employee
	next        int64
}

func newFakeStaff() *fakeStaff {
	return &fakeStaff{departments: map[int64]*staff.Department{}, employees: map[int64]*staff.Employee{}}
}

func (f *fakeStaff) CreateDepartment(_ context.Context, in staff.DepartmentInput) (*staff.Department, error) {
	for _, d := range f.departments {
		if d.Name == in.Name {
			return nil, fmt.Errorf("departments_name_key: %w", db.ErrConflict)
		}
	}
	f.next++
	d := &staff.Department{ID: f.next, Name: in.Name, Description: in.Description, CreatedAt: testNow}
	f.departments[d.ID] = d
	return d, nil
}

func (f *fakeStaff) GetDepartment(_ context.Context, id int64) (*staff.Department, error) {
	return f.departments[id], nil
}

func (f *fakeStaff) ListDepartments(_ context.Context) ([]staff.Department, error) {
	var out []staff.Department
	for _, d := range f.departments {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStaff) UpdateDepartment(_ context.Context, id int64, in staff.DepartmentInput) (*staff.Department, error) {
	d, ok := f.departments[id]
	if !ok {
		return nil, nil
	}
	d.Name, d.Description = in.Name, in.Description
	return d, nil
}

// DeleteDepartment: ссылка есть и у удалённых сотрудников, как у внешнего ключа.
func (f *fakeStaff) DeleteDepartment(_ context.Context, id int64) (bool, error) {
	for _, e := range f.employees {
		if e.DepartmentID != nil && *e.DepartmentID == id {
			return false, db.ErrReferenced
		}
	}
	if _, ok := f.departments[id]; !ok {
		return false, nil
	}
	delete(f.departments, id)
	return true, nil
}

func (f *fakeStaff) livePersonnel(number string, except int64) bool {
	for _, e := range f.employees {
		if e.PersonnelNumber == number && e.DeletedAt == nil && e.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeStaff) CreateEmployee(_ context.Context, in staff.NewEmployee) (*staff.Employee, error) {
	if f.livePersonnel(in.PersonnelNumber, 0) {
		return nil, fmt.Errorf("employees_personnel_number_uq: %w", db.ErrConflict)
	}
	if in.DepartmentID != nil && f.departments[*in.DepartmentID] == nil {
		return nil, db.ErrBadRef
	}
	f.next++
	e := &staff.Employee{
		ID: f.next, PersonnelNumber: in.PersonnelNumber, FullName: in.FullName, Position: in.Position,
		DepartmentID: in.DepartmentID, HourlyRate: in.HourlyRate, Phone: in.Phone, Email: in.Email,
		HiredAt: in.HiredAt, Active: true, CreatedAt: testNow, UpdatedAt: testNow,
	}
	f.employees[e.ID] = e
	cp := *e
	return &cp, nil
}

func (f *fakeStaff) GetEmployee(_ context.Context, id int64) (*staff.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStaff) ListEmployees(_ context.Context, flt staff.EmployeeFilter) ([]staff.Employee, error) {
	var out []staff.Employee
	for _, e := range f.employees {
		if e.DeletedAt != nil && !flt.IncludeDeleted {
			continue
		}
		if flt.OnlyActive && !e.Active {
			continue
		}
		if flt.DepartmentID != nil && (e.DepartmentID == nil || *e.DepartmentID != *flt.DepartmentID) {
			continue
		}
		if q := strings.ToLower(flt.Query); q != "" &&
			!strings.Contains(strings.ToLower(e.FullName), q) && !strings.Contains(strings.ToLower(e.PersonnelNumber), q) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStaff) UpdateEmployee(_ context.Context, id int64, p staff.EmployeePatch) (*staff.Employee, error) {
	e, ok := f.employees[id]
	if !ok || e.DeletedAt != nil {
		return nil, nil
	}
	if p.PersonnelNumber != nil {
		if f.livePersonnel(*p.PersonnelNumber, id) {
			return nil, fmt.Errorf("employees_personnel_number_uq: %w", db.ErrConflict)
		}
		e.PersonnelNumber = *p.PersonnelNumber
	}
	if p.FullName != nil {
		e.FullName = *p.FullName
	}
	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.HourlyRate != nil {
		e.HourlyRate = *p.HourlyRate
	}
	if p.Active != nil {
		e.Active = *p.Active
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStaff) SoftDeleteEmployee(_ context.Context, id int64) (bool, error) {
	e, ok := f.employees[id]
	if !ok || e.DeletedAt != nil {
		return false, nil
	}
	now := testNow
	e.DeletedAt = &now
	e.Active = false
	return true, nil
}

type fakeWorkTypes struct {
	WorkTypeStore
	items map[int64]*worktypes.WorkType
	next  int64
}

func (f *fakeWorkTypes) liveName(name string, except int64) bool {
	for _, wt := range f.items {
		if strings.EqualFold(wt.Name, name) && wt.DeletedAt == nil && wt.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeWorkTypes) Create(_ context.Context, in worktypes.NewWorkType) (*worktypes.WorkType, error) {
	if f.liveName(in.Name, 0) {
		return nil, fmt.Errorf("work_types_name_uq: %w", db.ErrConflict)
	}
	f.next++
	wt := &worktypes.WorkType{
		ID: f.next, Name: in.Name, Unit: in.Unit, Rate: in.Rate, DepartmentID: in.DepartmentID,
		Description: in.Description, Active: true, CreatedAt: testNow, UpdatedAt: testNow,
	}
	f.items[wt.ID] = wt
	cp := *wt
	return &cp, nil
}

func (f *fakeWorkTypes) GetByID(_ context.Context, id int64) (*worktypes.WorkType, error) {
	wt, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *wt
	return &cp, nil
}

func (f *fakeWorkTypes) List(_ context.Context, flt worktypes.Filter) ([]worktypes.WorkType, error) {
	var out []worktypes.WorkType
	for _, wt := range f.items {
		if wt.DeletedAt != nil && !flt.IncludeDeleted {
			continue
		}
		if flt.OnlyActive && !wt.Active {
			continue
		}
		if flt.DepartmentID != nil && (wt.DepartmentID == nil || *wt.DepartmentID != *flt.DepartmentID) {
			continue
		}
		out = append(out, *wt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeWorkTypes) Update(_ context.Context, id int64, p worktypes.Patch) (*worktypes.WorkType, error) {
	wt, ok := f.items[id]
	if !ok || wt.DeletedAt != nil {
		return nil, nil
	}
	if p.Name != nil {
		if f.liveName(*p.Name, id) {
			return nil, fmt.Errorf("work_types_name_uq: %w", db.ErrConflict)
		}
		wt.Name = *p.Name
	}
	if p.Unit != nil {
		wt.Unit = *p.Unit
	}
	if p.Rate != nil {
		wt.Rate = *p.Rate
	}
	if p.Description != nil {
		wt.Description = *p.Description
	}
	if p.Active != nil {
		wt.Active = *p.Active
	}
	cp := *wt
	return &cp, nil
}

func (f *fakeWorkTypes) SoftDelete(_ context.Context, id int64) (bool, error) {
	wt, ok := f.items[id]
	if !ok || wt.DeletedAt != nil {
		return false, nil
	}
	now := testNow
	wt.DeletedAt = &now
	wt.Active = false
	return true, nil
}

type memArchive struct {
	puts map[string][]byte
}

func (m *memArchive) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[key] = data
	return "mem://" + key, nil
}

type testEnv struct {
	api        *API
	handler    http.Handler
	categories *fakeCategories
	materials  *fakeMaterials
	inventory  *fakeInventory
	funds      *fakeFunds
	calculator *fakeCalculator
	products   *fakeProducts
	staff      *fakeStaff
	workTypes  *fakeWorkTypes
	prices     fakePrices
	notifier   *recordingNotifier
	archive    *memArchive
	registry   *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mats := newFakeMaterials()
	env := &testEnv{
		categories: newFakeCategories(),
		materials:  mats,
		inventory:  &fakeInventory{materials: mats},
		funds:      newFakeFunds(),
		calculator: newFakeCalculator(),
		products:   newFakeProducts(),
		staff:      newFakeStaff(),
		workTypes:  &fakeWorkTypes{items: map[int64]*worktypes.WorkType{}},
		prices: fakePrices{
			materials: map[int64]calculator.Priced{},
			works:     map[int64]calculator.Priced{},
		},
		notifier: &recordingNotifier{},
		archive:  &memArchive{},
		registry: prometheus.NewRegistry(),
	}
	env.api = New(Deps{
		Categories: env.categories,
		Materials:  env.materials,
		Inventory:  env.inventory,
		Funds:      env.funds,
		Calculator: env.calculator,
		Products:   env.products,
		Staff:      env.staff,
		WorkTypes:  env.workTypes,
		Prices:     env.prices,
		Notifier:   env.notifier,
		Archive:    env.archive,
		Metrics:    metrics.New(env.registry),
		Log:        logger.Discard(),
		Now:        func() time.Time { return testNow },
	})
	env.handler = env.api.Handler()
	return env
}

// do отправляет JSON-запрос; body == nil — без тела.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
