package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reformcases/portfolio-api/internal/dto"
	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/service"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
	"github.com/reformcases/portfolio-api/pkg/response"
)

// CaseHandler exposes the authenticated case-management endpoints.
type CaseHandler struct {
	cases     *service.CaseService
	exports   *service.ExportService
	dashboard *service.DashboardService
	portal    *service.PortalService
}

// NewCaseHandler creates a new handler.
func NewCaseHandler(cases *service.CaseService, exports *service.ExportService, dashboard *service.DashboardService, portal *service.PortalService) *CaseHandler {
	return &CaseHandler{cases: cases, exports: exports, dashboard: dashboard, portal: portal}
}

// List godoc
// @Summary List own cases
// @Description List the company's cases with per-status counts
// @Tags Cases
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param search query string false "Search in title and category"
// @Success 200 {object} response.Envelope
// @Router /cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.CaseFilter{
		CompanyID: claims.CompanyID,
		Category:  c.Query("category"),
		Search:    c.Query("search"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.CaseStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status"))
			return
		}
		filter.Status = &status
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "0")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "0")); err == nil {
		filter.PageSize = size
	}

	res, err := h.cases.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Get godoc
// @Summary Get one case
// @Tags Cases
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := parseCaseID(c)
	if !ok {
		return
	}

	res, err := h.cases.Get(c.Request.Context(), id, claims.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Create godoc
// @Summary Create a case
// @Description Submit the upload wizard's result
// @Tags Cases
// @Accept json
// @Produce json
// @Param payload body dto.CreateCaseRequest true "Case payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /cases [post]
func (h *CaseHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid case payload"))
		return
	}

	actor := models.UserInfo{
		ID:          claims.UserID,
		Email:       claims.Email,
		CompanyName: claims.CompanyName,
		CompanyID:   claims.CompanyID,
	}
	res, err := h.cases.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidateViews(c, claims.CompanyID)
	response.Created(c, res)
}

// Update godoc
// @Summary Update a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path int true "Case ID"
// @Param payload body dto.UpdateCaseRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cases/{id} [put]
func (h *CaseHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := parseCaseID(c)
	if !ok {
		return
	}

	var req dto.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid case payload"))
		return
	}

	res, err := h.cases.Update(c.Request.Context(), id, claims.CompanyID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidateViews(c, claims.CompanyID)
	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Delete a case
// @Tags Cases
// @Param id path int true "Case ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cases/{id} [delete]
func (h *CaseHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := parseCaseID(c)
	if !ok {
		return
	}

	if err := h.cases.Delete(c.Request.Context(), id, claims.CompanyID); err != nil {
		response.Error(c, err)
		return
	}

	h.invalidateViews(c, claims.CompanyID)
	response.NoContent(c)
}

// Publish godoc
// @Summary Publish a case
// @Description Promote a draft or scheduled case to the public portal
// @Tags Cases
// @Produce json
// @Param id path int true "Case ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /cases/{id}/publish [post]
func (h *CaseHandler) Publish(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, ok := parseCaseID(c)
	if !ok {
		return
	}

	res, err := h.cases.Publish(c.Request.Context(), id, claims.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.invalidateViews(c, claims.CompanyID)
	response.JSON(c, http.StatusOK, res, nil)
}

// ValidateWizard godoc
// @Summary Validate an upload wizard step
// @Description Report whether the wizard may advance past a step
// @Tags Cases
// @Accept json
// @Produce json
// @Param payload body dto.WizardValidateRequest true "Wizard state"
// @Success 200 {object} response.Envelope
// @Router /cases/wizard/validate [post]
func (h *CaseHandler) ValidateWizard(c *gin.Context) {
	var req dto.WizardValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid wizard payload"))
		return
	}

	res := h.cases.ValidateWizardStep(req)
	response.JSON(c, http.StatusOK, res, nil)
}

// Export godoc
// @Summary Export own cases
// @Description Download the case portfolio as CSV or PDF
// @Tags Cases
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Filter by status"
// @Success 200 {file} file
// @Router /cases/export [get]
func (h *CaseHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	var status *models.CaseStatus
	if raw := c.Query("status"); raw != "" {
		parsed := models.CaseStatus(raw)
		if !parsed.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status"))
			return
		}
		status = &parsed
	}

	file, err := h.exports.ExportCases(c.Request.Context(), claims.CompanyID, status, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func (h *CaseHandler) invalidateViews(c *gin.Context, companyID string) {
	ctx := c.Request.Context()
	if h.dashboard != nil {
		h.dashboard.Invalidate(ctx, companyID)
	}
	if h.portal != nil {
		h.portal.Invalidate(ctx)
	}
}

func parseCaseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid case id"))
		return 0, false
	}
	return id, true
}
