// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"sitestock/internal/domain/budget"
	"sitestock/internal/domain/catalogs/item"
	"sitestock/internal/domain/catalogs/site"
	"sitestock/internal/domain/documents/challan"
	"sitestock/internal/domain/documents/purchaseorder"
	"sitestock/internal/domain/registers/stock"
	"sitestock/internal/infrastructure/http/v1/handlers"
	"sitestock/internal/infrastructure/http/v1/middleware"
	"sitestock/internal/infrastructure/storage/postgres"
	"sitestock/internal/infrastructure/storage/postgres/budget_repo"
	"sitestock/internal/infrastructure/storage/postgres/catalog_repo"
	"sitestock/internal/infrastructure/storage/postgres/document_repo"
	"sitestock/internal/infrastructure/storage/postgres/register_repo"
	"sitestock/pkg/logger"
	"sitestock/pkg/numerator"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool *postgres.Pool

	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// CompanyCode is the company prefix in document numbers
	CompanyCode string
}

// NewRouter wires repositories, services and handlers into a gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())

	txManager := postgres.NewTxManager(cfg.Pool)

	// Repositories
	siteRepo := catalog_repo.NewSiteRepo(txManager)
	itemRepo := catalog_repo.NewItemRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	challanRepo := document_repo.NewChallanRepo(txManager)
	poRepo := document_repo.NewPurchaseOrderRepo(txManager)
	indentRepo := document_repo.NewIndentRepo(txManager)
	budgetRepo := budget_repo.NewBudgetRepo(txManager)

	// Services
	numeratorService := numerator.New(txManager)
	siteService := site.NewService(siteRepo, txManager)
	itemService := item.NewService(itemRepo, txManager)
	stockService := stock.NewService(stockRepo)
	challanService := challan.NewService(
		challanRepo, stockService, itemRepo, siteRepo,
		numeratorService, txManager, cfg.CompanyCode,
	)
	poService := purchaseorder.NewService(
		poRepo, indentRepo, siteRepo,
		numeratorService, txManager, cfg.CompanyCode,
	)
	budgetService := budget.NewService(budgetRepo, txManager)

	// Handlers
	base := handlers.NewBaseHandler()
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	siteHandler := handlers.NewSiteHandler(base, siteService)
	itemHandler := handlers.NewItemHandler(base, itemService)
	stockHandler := handlers.NewStockHandler(base, stockService)
	challanHandler := handlers.NewChallanHandler(base, challanService)
	poHandler := handlers.NewPurchaseOrderHandler(base, poService)
	budgetHandler := handlers.NewBudgetHandler(base, budgetService)

	// Health endpoints are not authenticated
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		sites := api.Group("/sites")
		{
			sites.POST("", siteHandler.Create)
			sites.GET("", siteHandler.List)
			sites.GET("/:id", siteHandler.Get)
			sites.PUT("/:id", siteHandler.Update)
			sites.DELETE("/:id", siteHandler.Delete)
		}

		items := api.Group("/items")
		{
			items.POST("", itemHandler.Create)
			items.GET("", itemHandler.List)
			items.GET("/:id", itemHandler.Get)
			items.PUT("/:id", itemHandler.Update)
			items.DELETE("/:id", itemHandler.Delete)
		}

		challans := api.Group("/challans")
		{
			challans.POST("", challanHandler.Create)
			challans.GET("", challanHandler.List)
			challans.GET("/:id", challanHandler.Get)
			challans.PUT("/:id", challanHandler.Update)
			challans.DELETE("/:id", challanHandler.Delete)
			challans.POST("/:id/approve", challanHandler.Approve)
			challans.POST("/:id/accept", challanHandler.Accept)
		}

		orders := api.Group("/purchase-orders")
		{
			orders.POST("", poHandler.Create)
			orders.GET("", poHandler.List)
			orders.GET("/:id", poHandler.Get)
			orders.DELETE("/:id", poHandler.Delete)
			orders.POST("/:id/approve", poHandler.Approve)
		}

		budgets := api.Group("/budgets")
		{
			budgets.POST("", budgetHandler.Create)
			budgets.GET("", budgetHandler.List)
			budgets.GET("/:id", budgetHandler.Get)
			budgets.DELETE("/:id", budgetHandler.Delete)
			budgets.PATCH("/lines/:lineId", budgetHandler.UpdateLine)
		}

		stockGroup := api.Group("/stock")
		{
			stockGroup.GET("/sites/:siteId", stockHandler.SiteStock)
			stockGroup.GET("/sites/:siteId/items/:itemId", stockHandler.Balance)
			stockGroup.GET("/sites/:siteId/items/:itemId/batches", stockHandler.Batches)
			stockGroup.GET("/items/:itemId/availability", stockHandler.Availability)
			stockGroup.GET("/items/:itemId/history", stockHandler.History)
			stockGroup.GET("/turnover", stockHandler.Turnover)
		}
	}

	return router
}
