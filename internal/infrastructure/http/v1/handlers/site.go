package handlers

import (
	"github.com/gin-gonic/gin"

	"sitestock/internal/domain"
	"sitestock/internal/domain/catalogs/site"
	"sitestock/internal/infrastructure/http/v1/dto"
)

// SiteHandler handles HTTP requests for the Site catalog.
type SiteHandler struct {
	*BaseHandler
	service *site.Service
}

// NewSiteHandler creates a new site handler.
func NewSiteHandler(base *BaseHandler, service *site.Service) *SiteHandler {
	return &SiteHandler{BaseHandler: base, service: service}
}

// Create handles POST /sites.
func (h *SiteHandler) Create(c *gin.Context) {
	var req dto.CreateSiteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, s.ID)
}

// Get handles GET /sites/:id.
func (h *SiteHandler) Get(c *gin.Context) {
	siteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), siteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// Update handles PUT /sites/:id.
func (h *SiteHandler) Update(c *gin.Context) {
	siteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSiteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), siteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(s)

	if err := h.service.Update(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// Delete handles DELETE /sites/:id (soft delete).
func (h *SiteHandler) Delete(c *gin.Context) {
	siteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), siteID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /sites.
func (h *SiteHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "code")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
