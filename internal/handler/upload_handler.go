package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reformcases/portfolio-api/internal/service"
	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
	"github.com/reformcases/portfolio-api/pkg/response"
)

// UploadHandler accepts photo and work order uploads and serves stored files.
type UploadHandler struct {
	service *service.UploadService
}

// NewUploadHandler creates a new handler.
func NewUploadHandler(svc *service.UploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// Upload godoc
// @Summary Upload a file
// @Description Store a case photo or a work order document
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File"
// @Param kind formData string false "photo or workorder" default(photo)
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field is required"))
		return
	}

	kind := service.UploadKind(c.DefaultPostForm("kind", string(service.UploadKindPhoto)))
	if kind != service.UploadKindPhoto && kind != service.UploadKindWorkOrder {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown upload kind"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	result, err := h.service.Save(c.Request.Context(), kind, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetFile godoc
// @Summary Serve a stored photo
// @Tags Uploads
// @Produce octet-stream
// @Param path path string true "Relative file path"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /files/{path} [get]
func (h *UploadHandler) GetFile(c *gin.Context) {
	relPath := c.Param("path")
	if len(relPath) > 0 && relPath[0] == '/' {
		relPath = relPath[1:]
	}

	file, err := h.service.OpenFile(relPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}

// GetWorkOrder godoc
// @Summary Download a work order
// @Description Resolve a signed token and stream the document
// @Tags Uploads
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /workorders/{token} [get]
func (h *UploadHandler) GetWorkOrder(c *gin.Context) {
	download, err := h.service.ResolveWorkOrder(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	c.Header("Content-Disposition", "attachment; filename="+download.Filename)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.File); err != nil {
		_ = c.Error(err)
	}
}
