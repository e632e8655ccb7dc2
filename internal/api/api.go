package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Spok95/workshop-erp/internal/domain/calculator"
	"github.com/Spok95/workshop-erp/internal/domain/catalog"
	"github.com/Spok95/workshop-erp/internal/domain/funds"
	"github.com/Spok95/workshop-erp/internal/domain/inventory"
	"github.com/Spok95/workshop-erp/internal/domain/materials"
	"github.com/Spok95/workshop-erp/internal/domain/products"
	"github.com/Spok95/workshop-erp/internal/domain/staff"
	"github.com/Spok95/workshop-erp/internal/domain/worktypes"
	"github.com/Spok95/workshop-erp/internal/infra/archive"
	"github.com/Spok95/workshop-erp/internal/infra/metrics"
	"github.com/go-playground/validator/v10"
)

type CategoryStore interface {
	CreateCategory(ctx context.Context, name, description string) (*catalog.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*catalog.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*catalog.Category, error)
	ListCategories(ctx context.Context, onlyActive bool) ([]catalog.Category, error)
	UpdateCategory(ctx context.Context, id int64, p catalog.CategoryPatch) (*catalog.Category, error)
	SetCategoryActive(ctx context.Context, id int64, active bool) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, id int64) (bool, error)
}

type MaterialStore interface {
	Create(ctx context.Context, in materials.NewItem) (*materials.Item, error)
	GetByID(ctx context.Context, id int64) (*materials.Item, error)
	List(ctx context.Context, f materials.Filter) ([]materials.Item, error)
	ListLowStock(ctx context.Context) ([]materials.Item, error)
	ListByIDs(ctx context.Context, ids []int64) ([]materials.Item, error)
	Update(ctx context.Context, id int64, p materials.Patch) (*materials.Item, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
	Restore(ctx context.Context, id int64) (*materials.Item, error)
	BulkAction(ctx context.Context, req materials.BulkRequest) (materials.BulkResult, error)
	UpsertBySKU(ctx context.Context, in materials.NewItem) (*materials.Item, bool, error)
}

type InventoryStore interface {
	Apply(ctx context.Context, materialID int64, req inventory.Request) (*inventory.Movement, error)
	Adjust(ctx context.Context, materialID int64, actual float64, note string) (*inventory.Movement, error)
	ListMovements(ctx context.Context, materialID int64, limit int) ([]inventory.Movement, error)
}

type StaffStore interface {
	CreateDepartment(ctx context.Context, in staff.DepartmentInput) (*staff.Department, error)
	GetDepartment(ctx context.Context, id int64) (*staff.Department, error)
	ListDepartments(ctx context.Context) ([]staff.Department, error)
	UpdateDepartment(ctx context.Context, id int64, in staff.DepartmentInput) (*staff.Department, error)
	DeleteDepartment(ctx context.Context, id int64) (bool, error)

	CreateEmployee(ctx context.Context, in staff.NewEmployee) (*staff.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*staff.Employee, error)
	ListEmployees(ctx context.Context, f staff.EmployeeFilter) ([]staff.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, p staff.EmployeePatch) (*staff.Employee, error)
	SoftDeleteEmployee(ctx context.Context, id int64) (bool, error)
}

type WorkTypeStore interface {
	Create(ctx context.Context, in worktypes.NewWorkType) (*worktypes.WorkType, error)
	GetByID(ctx context.Context, id int64) (*worktypes.WorkType, error)
	List(ctx context.Context, f worktypes.Filter) ([]worktypes.WorkType, error)
	Update(ctx context.Context, id int64, p worktypes.Patch) (*worktypes.WorkType, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
}

type ProductStore interface {
	products.CostSource

	CreateGroup(ctx context.Context, in products.GroupInput) (*products.Group, error)
	GetGroup(ctx context.Context, id int64) (*products.Group, error)
	ListGroups(ctx context.Context) ([]products.Group, error)
	UpdateGroup(ctx context.Context, id int64, in products.GroupInput) (*products.Group, error)
	DeleteGroup(ctx context.Context, id int64) (bool, error)
	CreateSubgroup(ctx context.Context, groupID int64, in products.SubgroupInput) (*products.Subgroup, error)
	ListSubgroups(ctx context.Context, groupID int64) ([]products.Subgroup, error)
	DeleteSubgroup(ctx context.Context, id int64) (bool, error)

	Create(ctx context.Context, in products.NewProduct) (*products.Product, error)
	List(ctx context.Context, f products.Filter) ([]products.Product, error)
	Update(ctx context.Context, id int64, p products.Patch) (*products.Product, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)

	SetMaterials(ctx context.Context, productID int64, items []products.MaterialUsage) ([]products.MaterialUsage, error)
	SetWorkTypes(ctx context.Context, productID int64, items []products.WorkTypeUsage) ([]products.WorkTypeUsage, error)
	SetComponents(ctx context.Context, assemblyID int64, items []products.Component) ([]products.Component, error)
}

type FundStore interface {
	CreateFund(ctx context.Context, in funds.NewFund) (*funds.Fund, error)
	GetFund(ctx context.Context, id int64) (*funds.Fund, error)
	ListFunds(ctx context.Context, onlyActive bool) ([]funds.Fund, error)
	UpdateFund(ctx context.Context, id int64, p funds.FundPatch) (*funds.Fund, error)
	DeleteFund(ctx context.Context, id int64) (bool, error)

	CreateCategory(ctx context.Context, fundID int64, in funds.CategoryInput) (*funds.Category, error)
	GetCategory(ctx context.Context, id int64) (*funds.Category, error)
	ListCategories(ctx context.Context, fundID int64) ([]funds.Category, error)
	UpdateCategory(ctx context.Context, id int64, in funds.CategoryInput) (*funds.Category, error)
	DeleteCategory(ctx context.Context, id int64) (bool, error)

	CreateTransaction(ctx context.Context, fundID int64, in funds.NewTransaction) (*funds.Transaction, error)
	ListTransactions(ctx context.Context, fundID int64, f funds.TxFilter) ([]funds.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
	Summary(ctx context.Context, fundID int64) (*funds.Summary, error)
}

type CalculatorStore interface {
	CreateTemplate(ctx context.Context, in calculator.TemplateInput) (*calculator.Template, error)
	GetTemplate(ctx context.Context, id int64) (*calculator.Template, error)
	ListTemplates(ctx context.Context, productType string) ([]calculator.Template, error)
	UpdateTemplate(ctx context.Context, id int64, in calculator.TemplateInput) (*calculator.Template, error)
	DeleteTemplate(ctx context.Context, id int64) (bool, error)

	CreateBom(ctx context.Context, in calculator.BomInput) (*calculator.BomTemplate, error)
	GetBom(ctx context.Context, id int64) (*calculator.BomTemplate, error)
	ListBoms(ctx context.Context, templateID, productID *int64) ([]calculator.BomTemplate, error)
	UpdateBom(ctx context.Context, id int64, in calculator.BomInput) (*calculator.BomTemplate, error)
	DeleteBom(ctx context.Context, id int64) (bool, error)
}

// LowStockNotifier получает материалы после изменения остатков; нижние пороги проверяет сам.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, items []materials.Item)
}

type Deps struct {
	Categories CategoryStore
	Materials  MaterialStore
	Inventory  InventoryStore
	Staff      StaffStore
	WorkTypes  WorkTypeStore
	Products   ProductStore
	Funds      FundStore
	Calculator CalculatorStore
	Prices     calculator.PriceBook
	Notifier   LowStockNotifier // nil — уведомления выключены
	Archive    archive.Store    // nil — выгрузки BOM не сохраняются
	Metrics    *metrics.Metrics // nil — без счётчиков
	Log        *slog.Logger
	Now        func() time.Time

	// DefaultMinQty — порог для импортируемых строк без min_quantity.
	DefaultMinQty float64
}

type API struct {
	Deps
	log      *slog.Logger
	validate *validator.Validate
}

func New(d Deps) *API {
	if d.Now == nil {
		d.Now = time.Now
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &API{Deps: d, log: log, validate: newValidator()}
}

// Handler возвращает маршрутизатор всех эндпоинтов /api.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.Register(mux)
	return mux
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/categories", a.handle(a.listCategories))
	mux.HandleFunc("POST /api/categories", a.handle(a.createCategory))
	mux.HandleFunc("GET /api/categories/{id}", a.handle(a.getCategory))
	mux.HandleFunc("PUT /api/categories/{id}", a.handle(a.updateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", a.handle(a.deleteCategory))
	mux.HandleFunc("POST /api/categories/{id}/activate", a.handle(a.setCategoryActive(true)))
	mux.HandleFunc("POST /api/categories/{id}/deactivate", a.handle(a.setCategoryActive(false)))

	mux.HandleFunc("GET /api/material-items", a.handle(a.listMaterials))
	mux.HandleFunc("POST /api/material-items", a.handle(a.createMaterial))
	mux.HandleFunc("GET /api/material-items/low-stock", a.handle(a.lowStock))
	mux.HandleFunc("GET /api/material-items/export", a.handle(a.exportMaterials))
	mux.HandleFunc("POST /api/material-items/import", a.handle(a.importMaterials))
	mux.HandleFunc("POST /api/material-items/bulk-actions", a.handle(a.bulkMaterials))
	mux.HandleFunc("GET /api/material-items/{id}", a.handle(a.getMaterial))
	mux.HandleFunc("PUT /api/material-items/{id}", a.handle(a.updateMaterial))
	mux.HandleFunc("DELETE /api/material-items/{id}", a.handle(a.deleteMaterial))
	mux.HandleFunc("POST /api/material-items/{id}/restore", a.handle(a.restoreMaterial))
	mux.HandleFunc("GET /api/material-items/{id}/movements", a.handle(a.listMovements))
	mux.HandleFunc("POST /api/material-items/{id}/movements", a.handle(a.createMovement))

	mux.HandleFunc("GET /api/departments", a.handle(a.listDepartments))
	mux.HandleFunc("POST /api/departments", a.handle(a.createDepartment))
	mux.HandleFunc("GET /api/departments/{id}", a.handle(a.getDepartment))
	mux.HandleFunc("PUT /api/departments/{id}", a.handle(a.updateDepartment))
	mux.HandleFunc("DELETE /api/departments/{id}", a.handle(a.deleteDepartment))

	mux.HandleFunc("GET /api/employees", a.handle(a.listEmployees))
	mux.HandleFunc("POST /api/employees", a.handle(a.createEmployee))
	mux.HandleFunc("GET /api/employees/{id}", a.handle(a.getEmployee))
	mux.HandleFunc("PUT /api/employees/{id}", a.handle(a.updateEmployee))
	mux.HandleFunc("DELETE /api/employees/{id}", a.handle(a.deleteEmployee))

	mux.HandleFunc("GET /api/work-types", a.handle(a.listWorkTypes))
	mux.HandleFunc("POST /api/work-types", a.handle(a.createWorkType))
	mux.HandleFunc("GET /api/work-types/{id}", a.handle(a.getWorkType))
	mux.HandleFunc("PUT /api/work-types/{id}", a.handle(a.updateWorkType))
	mux.HandleFunc("DELETE /api/work-types/{id}", a.handle(a.deleteWorkType))

	mux.HandleFunc("GET /api/product-groups", a.handle(a.listGroups))
	mux.HandleFunc("POST /api/product-groups", a.handle(a.createGroup))
	mux.HandleFunc("PUT /api/product-groups/{id}", a.handle(a.updateGroup))
	mux.HandleFunc("DELETE /api/product-groups/{id}", a.handle(a.deleteGroup))
	mux.HandleFunc("GET /api/product-groups/{id}/subgroups", a.handle(a.listSubgroups))
	mux.HandleFunc("POST /api/product-groups/{id}/subgroups", a.handle(a.createSubgroup))
	mux.HandleFunc("DELETE /api/product-subgroups/{id}", a.handle(a.deleteSubgroup))

	mux.HandleFunc("GET /api/products", a.handle(a.listProducts))
	mux.HandleFunc("POST /api/products", a.handle(a.createProduct))
	mux.HandleFunc("GET /api/products/{id}", a.handle(a.getProduct))
	mux.HandleFunc("PUT /api/products/{id}", a.handle(a.updateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", a.handle(a.deleteProduct))
	mux.HandleFunc("GET /api/products/{id}/materials", a.handle(a.listProductMaterials))
	mux.HandleFunc("PUT /api/products/{id}/materials", a.handle(a.setProductMaterials))
	mux.HandleFunc("GET /api/products/{id}/work-types", a.handle(a.listProductWorkTypes))
	mux.HandleFunc("PUT /api/products/{id}/work-types", a.handle(a.setProductWorkTypes))
	mux.HandleFunc("GET /api/products/{id}/components", a.handle(a.listProductComponents))
	mux.HandleFunc("PUT /api/products/{id}/components", a.handle(a.setProductComponents))
	mux.HandleFunc("GET /api/products/{id}/cost", a.handle(a.productCost))

	mux.HandleFunc("GET /api/funds", a.handle(a.listFunds))
	mux.HandleFunc("POST /api/funds", a.handle(a.createFund))
	mux.HandleFunc("GET /api/funds/{id}", a.handle(a.getFund))
	mux.HandleFunc("PUT /api/funds/{id}", a.handle(a.updateFund))
	mux.HandleFunc("DELETE /api/funds/{id}", a.handle(a.deleteFund))
	mux.HandleFunc("GET /api/funds/{id}/categories", a.handle(a.listFundCategories))
	mux.HandleFunc("POST /api/funds/{id}/categories", a.handle(a.createFundCategory))
	mux.HandleFunc("GET /api/fund-categories/{id}", a.handle(a.getFundCategory))
	mux.HandleFunc("PUT /api/fund-categories/{id}", a.handle(a.updateFundCategory))
	mux.HandleFunc("DELETE /api/fund-categories/{id}", a.handle(a.deleteFundCategory))
	mux.HandleFunc("GET /api/funds/{id}/transactions", a.handle(a.listTransactions))
	mux.HandleFunc("POST /api/funds/{id}/transactions", a.handle(a.createTransaction))
	mux.HandleFunc("DELETE /api/fund-transactions/{id}", a.handle(a.deleteTransaction))
	mux.HandleFunc("GET /api/funds/{id}/summary", a.handle(a.fundSummary))

	mux.HandleFunc("GET /api/calculator/templates", a.handle(a.listTemplates))
	mux.HandleFunc("POST /api/calculator/templates", a.handle(a.createTemplate))
	mux.HandleFunc("GET /api/calculator/templates/{id}", a.handle(a.getTemplate))
	mux.HandleFunc("PUT /api/calculator/templates/{id}", a.handle(a.updateTemplate))
	mux.HandleFunc("DELETE /api/calculator/templates/{id}", a.handle(a.deleteTemplate))
	mux.HandleFunc("POST /api/calculator/templates/{id}/calculate", a.handle(a.calculateTemplate))

	mux.HandleFunc("GET /api/bom-templates", a.handle(a.listBoms))
	mux.HandleFunc("POST /api/bom-templates", a.handle(a.createBom))
	mux.HandleFunc("GET /api/bom-templates/{id}", a.handle(a.getBom))
	mux.HandleFunc("PUT /api/bom-templates/{id}", a.handle(a.updateBom))
	mux.HandleFunc("DELETE /api/bom-templates/{id}", a.handle(a.deleteBom))
	mux.HandleFunc("POST /api/bom-templates/{id}/calculate", a.handle(a.calculateBom))
	mux.HandleFunc("POST /api/bom-templates/{id}/export", a.handle(a.exportBom))
}
