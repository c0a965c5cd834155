package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reformcases/portfolio-api/internal/service"
	"github.com/reformcases/portfolio-api/pkg/response"
)

// PortalHandler serves the public, unauthenticated portal endpoints.
type PortalHandler struct {
	service *service.PortalService
}

// NewPortalHandler creates a new handler.
func NewPortalHandler(svc *service.PortalService) *PortalHandler {
	return &PortalHandler{service: svc}
}

// ListCases godoc
// @Summary List published cases
// @Description Public listing with category and free-text filters
// @Tags Portal
// @Produce json
// @Param category query string false "Category filter"
// @Param search query string false "Search in title and category"
// @Success 200 {object} response.Envelope
// @Router /portal/cases [get]
func (h *PortalHandler) ListCases(c *gin.Context) {
	res, err := h.service.ListCases(c.Request.Context(), c.Query("category"), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// GetCase godoc
// @Summary Get a published case
// @Tags Portal
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /portal/cases/{id} [get]
func (h *PortalHandler) GetCase(c *gin.Context) {
	id, ok := parseCaseID(c)
	if !ok {
		return
	}

	res, err := h.service.GetCase(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// GetCompany godoc
// @Summary Get a contractor
// @Tags Portal
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /portal/companies/{id} [get]
func (h *PortalHandler) GetCompany(c *gin.Context) {
	res, err := h.service.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ListCompanies godoc
// @Summary List contractor directory
// @Description Public company directory ordered by rating
// @Tags Portal
// @Produce json
// @Param search query string false "Search in name, location and specialties"
// @Success 200 {object} response.Envelope
// @Router /portal/companies [get]
func (h *PortalHandler) ListCompanies(c *gin.Context) {
	res, err := h.service.ListCompanies(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
