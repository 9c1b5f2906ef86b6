package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smartsched/smartsched-api/internal/models"
	"github.com/smartsched/smartsched-api/internal/service"
	"github.com/smartsched/smartsched-api/pkg/response"
)

// CatalogHandler serves the scheduling fact catalogs.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

func catalogFilter(c *gin.Context) models.CatalogFilter {
	var filter models.CatalogFilter
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	return filter
}

// Teachers godoc
// @Summary List teachers
// @Tags Catalog
// @Produce json
// @Param search query string false "Search by name or department"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers [get]
func (h *CatalogHandler) Teachers(c *gin.Context) {
	teachers, pagination, err := h.service.ListTeachers(c.Request.Context(), catalogFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// Classrooms godoc
// @Summary List classrooms
// @Tags Catalog
// @Produce json
// @Param search query string false "Search by name or type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms [get]
func (h *CatalogHandler) Classrooms(c *gin.Context) {
	classrooms, pagination, err := h.service.ListClassrooms(c.Request.Context(), catalogFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms, pagination)
}

// Sections godoc
// @Summary List sections
// @Tags Catalog
// @Produce json
// @Param search query string false "Search by program or label"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sections [get]
func (h *CatalogHandler) Sections(c *gin.Context) {
	sections, pagination, err := h.service.ListSections(c.Request.Context(), catalogFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, pagination)
}

// SectionByID godoc
// @Summary Get one section
// @Tags Catalog
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id} [get]
func (h *CatalogHandler) SectionByID(c *gin.Context) {
	section, err := h.service.FindSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}
