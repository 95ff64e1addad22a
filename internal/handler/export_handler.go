package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stylistiq/wardrobe-api/internal/service"
	appErrors "github.com/stylistiq/wardrobe-api/pkg/errors"
	"github.com/stylistiq/wardrobe-api/pkg/response"
)

// ExportHandler streams wardrobe inventory exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export the wardrobe
// @Description Download the caller's wardrobe as a CSV inventory or a PDF lookbook
// @Tags Wardrobe
// @Produce text/csv
// @Param format query string false "Export format" Enums(csv, pdf) default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /wardrobe/export [get]
// @Security BearerAuth
func (h *ExportHandler) Export(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.service.Export(c.Request.Context(), principal, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
