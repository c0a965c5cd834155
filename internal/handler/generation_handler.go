package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reformcases/portfolio-api/internal/dto"
	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/service"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
	"github.com/reformcases/portfolio-api/pkg/response"
)

// GenerationHandler exposes summary-generation job endpoints.
type GenerationHandler struct {
	service *service.GenerationService
}

// NewGenerationHandler creates a new handler.
func NewGenerationHandler(svc *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{service: svc}
}

// Create godoc
// @Summary Start summary generation
// @Description Queue a work order for title and description generation
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body dto.GenerationRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /generations [post]
func (h *GenerationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}

	actor := models.UserInfo{
		ID:          claims.UserID,
		Email:       claims.Email,
		CompanyName: claims.CompanyName,
		CompanyID:   claims.CompanyID,
	}
	res, err := h.service.CreateJob(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, res, nil)
}

// Status godoc
// @Summary Get generation status
// @Description Poll a generation job for its result
// @Tags Generation
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /generations/{id} [get]
func (h *GenerationHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
