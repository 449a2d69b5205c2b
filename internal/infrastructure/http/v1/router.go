package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"erpcore/internal/app"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/domain/catalogs/warehouse"
	"erpcore/internal/domain/documents"
	"erpcore/internal/domain/finance"
	"erpcore/internal/infrastructure/http/v1/handlers"
	"erpcore/internal/infrastructure/http/v1/middleware"
	"erpcore/internal/infrastructure/storage/postgres"
	"erpcore/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services *app.Services

	// Ready reports storage readiness for /health/ready.
	Ready func(ctx context.Context) error

	// Pool is nil on the in-memory store.
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	Version string

	// ReleaseMode switches gin to release mode.
	ReleaseMode bool
}

// documentPaths maps URL segments to document kinds.
var documentPaths = map[string]documents.Kind{
	"sale-invoices":     documents.KindSaleInvoice,
	"purchase-invoices": documents.KindPurchaseInvoice,
	"sale-returns":      documents.KindSaleReturn,
	"purchase-returns":  documents.KindPurchaseReturn,
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Ready == nil {
		cfg.Ready = func(context.Context) error { return nil }
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Ready, cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.UserContext())
	{
		registerCatalogRoutes(v1, cfg)
		registerLedgerRoutes(v1, cfg)
		registerStockRoutes(v1, cfg)
		registerDocumentRoutes(v1, cfg)
		registerFinanceRoutes(v1, cfg)
		registerReportRoutes(v1, cfg)
	}

	return router
}

// registerCatalogRoutes registers accounts, parties, warehouses and payment terms.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	svc := cfg.Services
	baseHandler := handlers.NewBaseHandler()

	// --- ACCOUNTS ---
	{
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*accounts.Account, accounts.CreateInput]{
			Create: svc.Accounts.Create,
			Get:    svc.Accounts.GetByID,
			List: func(c *gin.Context) ([]*accounts.Account, error) {
				filter := accounts.ListFilter{ActiveOnly: c.Query("active") == "true"}
				if t := c.Query("type"); t != "" {
					at := accounts.Type(t)
					filter.Type = &at
				}
				return svc.Accounts.List(c.Request.Context(), filter)
			},
		})
		RegisterCatalogRoutes(rg.Group("/accounts"), handler)
	}

	// --- PARTIES ---
	{
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*party.Party, party.CreateInput]{
			Create: svc.Parties.Create,
			Get:    svc.Parties.Get,
			List: func(c *gin.Context) ([]*party.Party, error) {
				var t *party.Type
				if v := c.Query("type"); v != "" {
					pt := party.Type(v)
					t = &pt
				}
				return svc.Parties.List(c.Request.Context(), t)
			},
		})
		RegisterCatalogRoutes(rg.Group("/parties"), handler)
	}

	// --- WAREHOUSES ---
	{
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*warehouse.Warehouse, warehouse.CreateInput]{
			Create: svc.Warehouses.Create,
			Get:    svc.Warehouses.Get,
			List: func(c *gin.Context) ([]*warehouse.Warehouse, error) {
				return svc.Warehouses.List(c.Request.Context())
			},
		})
		RegisterCatalogRoutes(rg.Group("/warehouses"), handler)
	}

	// --- PAYMENT TERMS ---
	{
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*finance.Term, finance.CreateTermInput]{
			Create: svc.Finance.CreateTerm,
			Get:    svc.Finance.Term,
			List: func(c *gin.Context) ([]*finance.Term, error) {
				return svc.Finance.Terms(c.Request.Context())
			},
		})
		RegisterCatalogRoutes(rg.Group("/payment-terms"), handler)
	}
}

// registerLedgerRoutes registers voucher and account ledger endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewVoucherHandler(handlers.NewBaseHandler(), cfg.Services.Vouchers, cfg.Services.Finance)

	rg.GET("/accounts/:id/ledger", handler.Ledger)

	vouchers := rg.Group("/vouchers")
	{
		vouchers.GET("", handler.List)
		vouchers.POST("", handler.Create)
		vouchers.GET("/:id", handler.Get)
		vouchers.POST("/:id/approve", handler.Approve)
		vouchers.POST("/:id/reject", handler.Reject)
		vouchers.PUT("/:id/entries", handler.ReplaceEntries)
	}
}

// registerStockRoutes registers batch ledger endpoints.
func registerStockRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewStockHandler(handlers.NewBaseHandler(), cfg.Services.Stock)

	stock := rg.Group("/stock")
	{
		stock.POST("/in", handler.In)
		stock.POST("/out", handler.Out)
		stock.POST("/return", handler.Return)
		stock.POST("/audit", handler.Audit)
		stock.GET("/batches", handler.Batches)
		stock.GET("/batches/:id", handler.Batch)
		stock.GET("/batches/:id/reconcile", handler.Reconcile)
		stock.GET("/movements", handler.Movements)
		stock.GET("/expiring", handler.Expiring)
	}
}

// registerDocumentRoutes registers one route group per document kind.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	svc := cfg.Services
	baseHandler := handlers.NewBaseHandler()
	docs := rg.Group("/documents")

	for path, kind := range documentPaths {
		handler := handlers.NewDocumentHandler(baseHandler, kind, svc.Documents, svc.Finance)
		RegisterDocumentRoutes(docs.Group("/"+path), handler)
	}
}

// registerFinanceRoutes registers financial year, payroll and installment endpoints.
func registerFinanceRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	svc := cfg.Services
	handler := handlers.NewFinanceHandler(handlers.NewBaseHandler(), handlers.FinanceDeps{
		Finance:    svc.Finance,
		Closer:     svc.Closer,
		Payroll:    svc.Payroll,
		Documents:  svc.Documents,
		EquityCode: svc.Ledger.RetainedEarningsCode,
	})

	years := rg.Group("/financial-years")
	{
		years.GET("", handler.List)
		years.POST("", handler.Create)
		years.GET("/active", handler.Active)
		years.POST("/:id/activate", handler.Activate)
		years.POST("/:id/close", handler.Close)
	}

	rg.POST("/payroll", handler.Payroll)
	rg.POST("/payment-schedules/:id/settle", handler.SettleInstallment)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewReportsHandler(handlers.NewBaseHandler(), cfg.Services.Reports)

	reports := rg.Group("/reports")
	{
		reports.GET("/balances", handler.Balances)
		reports.GET("/ratios", handler.Ratios)
		reports.GET("/inventory", handler.Inventory)
	}
}
