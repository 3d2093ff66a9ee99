package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sitestock/internal/core/id"
	"sitestock/internal/domain"
	"sitestock/internal/domain/documents/challan"
	"sitestock/internal/infrastructure/http/v1/dto"
)

// ChallanHandler handles HTTP requests for outward delivery challans.
type ChallanHandler struct {
	*BaseHandler
	service *challan.Service
}

// NewChallanHandler creates a new challan handler.
func NewChallanHandler(base *BaseHandler, service *challan.Service) *ChallanHandler {
	return &ChallanHandler{BaseHandler: base, service: service}
}

// Create handles POST /challans.
func (h *ChallanHandler) Create(c *gin.Context) {
	var req dto.CreateChallanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// Get handles GET /challans/:id.
func (h *ChallanHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Update handles PUT /challans/:id. Draft documents only.
func (h *ChallanHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateChallanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(doc)

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Delete handles DELETE /challans/:id. Draft documents only.
func (h *ChallanHandler) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Approve handles POST /challans/:id/approve.
func (h *ChallanHandler) Approve(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ApproveChallanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Approve(c.Request.Context(), docID, req.ToApprovals())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Accept handles POST /challans/:id/accept.
func (h *ChallanHandler) Accept(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AcceptChallanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Accept(c.Request.Context(), docID, req.ToAcceptances())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// List handles GET /challans.
func (h *ChallanHandler) List(c *gin.Context) {
	filter := challan.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if fromSite := c.Query("fromSiteId"); fromSite != "" {
		if parsed, err := id.Parse(fromSite); err == nil {
			filter.FromSiteID = &parsed
		}
	}

	if toSite := c.Query("toSiteId"); toSite != "" {
		if parsed, err := id.Parse(toSite); err == nil {
			filter.ToSiteID = &parsed
		}
	}

	if status := c.Query("status"); status != "" {
		st := challan.Status(status)
		if st.Valid() {
			filter.Status = &st
		}
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
