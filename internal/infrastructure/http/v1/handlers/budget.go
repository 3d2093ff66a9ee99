package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitestock/internal/core/id"
	"sitestock/internal/domain"
	"sitestock/internal/domain/budget"
	"sitestock/internal/infrastructure/http/v1/dto"
)

// BudgetHandler handles HTTP requests for site budgets.
type BudgetHandler struct {
	*BaseHandler
	service *budget.Service
}

// NewBudgetHandler creates a new budget handler.
func NewBudgetHandler(base *BaseHandler, service *budget.Service) *BudgetHandler {
	return &BudgetHandler{BaseHandler: base, service: service}
}

// Create handles POST /budgets.
func (h *BudgetHandler) Create(c *gin.Context) {
	var req dto.CreateBudgetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// Get handles GET /budgets/:id.
func (h *BudgetHandler) Get(c *gin.Context) {
	budgetID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), budgetID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, b)
}

// UpdateLine handles PATCH /budgets/lines/:lineId.
func (h *BudgetHandler) UpdateLine(c *gin.Context) {
	lineID, ok := h.ParseID(c, "lineId")
	if !ok {
		return
	}

	var req dto.UpdateBudgetLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	line, err := h.service.UpdateLine(c.Request.Context(), lineID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, line)
}

// Delete handles DELETE /budgets/:id.
func (h *BudgetHandler) Delete(c *gin.Context) {
	budgetID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), budgetID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /budgets.
func (h *BudgetHandler) List(c *gin.Context) {
	filter := budget.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if siteID := c.Query("siteId"); siteID != "" {
		if parsed, err := id.Parse(siteID); err == nil {
			filter.SiteID = &parsed
		}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
