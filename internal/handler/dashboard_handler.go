package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reformcases/portfolio-api/internal/service"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
	"github.com/reformcases/portfolio-api/pkg/response"
)

// DashboardHandler serves the contractor dashboard endpoint.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Overview godoc
// @Summary Dashboard overview
// @Description Per-status counts plus the case lists behind each tab
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.Overview(c.Request.Context(), claims.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
