package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/domain/registers/stock"
)

// StockHandler exposes read access to the stock register.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// SiteStock handles GET /stock/sites/:siteId.
// Returns all item balances held at a site.
func (h *StockHandler) SiteStock(c *gin.Context) {
	siteID, ok := h.ParseID(c, "siteId")
	if !ok {
		return
	}

	balances, err := h.service.GetSiteStock(c.Request.Context(), siteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"siteId": siteID, "balances": balances})
}

// Balance handles GET /stock/sites/:siteId/items/:itemId.
func (h *StockHandler) Balance(c *gin.Context) {
	siteID, ok := h.ParseID(c, "siteId")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), siteID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balance)
}

// Batches handles GET /stock/sites/:siteId/items/:itemId/batches.
// Returns per-batch balances for expiry-tracked items, soonest expiry first.
func (h *StockHandler) Batches(c *gin.Context) {
	siteID, ok := h.ParseID(c, "siteId")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	batches, err := h.service.GetBatches(c.Request.Context(), siteID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"siteId": siteID, "itemId": itemID, "batches": batches})
}

// Availability handles GET /stock/items/:itemId/availability.
// Returns the item's total quantity across all sites.
func (h *StockHandler) Availability(c *gin.Context) {
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	total, err := h.service.GetItemAvailability(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"itemId": itemID, "totalStock": total})
}

// History handles GET /stock/items/:itemId/history.
// Returns ledger entries for an item, newest first.
func (h *StockHandler) History(c *gin.Context) {
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	filter := stock.EntryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if siteID := c.Query("siteId"); siteID != "" {
		if parsed, err := id.Parse(siteID); err == nil {
			filter.SiteID = &parsed
		}
	}

	if entryType := c.Query("entryType"); entryType != "" {
		et := entity.EntryType(entryType)
		filter.EntryType = &et
	}

	if from := c.Query("dateFrom"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = &parsed
		}
	}

	if to := c.Query("dateTo"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = &parsed
		}
	}

	entries, err := h.service.GetHistory(c.Request.Context(), itemID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"itemId": itemID, "entries": entries})
}

// Turnover handles GET /stock/turnover.
// Requires dateFrom and dateTo; siteId and itemId narrow the scope.
func (h *StockHandler) Turnover(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("dateFrom"))
	if err != nil {
		h.Error(c, apperror.NewValidation("dateFrom is required (RFC3339)"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("dateTo"))
	if err != nil {
		h.Error(c, apperror.NewValidation("dateTo is required (RFC3339)"))
		return
	}

	filter := stock.TurnoverFilter{
		FromDate: from,
		ToDate:   to,
	}

	if siteID := c.Query("siteId"); siteID != "" {
		if parsed, err := id.Parse(siteID); err == nil {
			filter.SiteID = &parsed
		}
	}

	if itemID := c.Query("itemId"); itemID != "" {
		if parsed, err := id.Parse(itemID); err == nil {
			filter.ItemID = &parsed
		}
	}

	turnover, err := h.service.GetTurnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, turnover)
}
