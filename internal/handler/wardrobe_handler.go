package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stylistiq/wardrobe-api/internal/dto"
	"github.com/stylistiq/wardrobe-api/internal/models"
	appErrors "github.com/stylistiq/wardrobe-api/pkg/errors"
	"github.com/stylistiq/wardrobe-api/pkg/response"
)

type wardrobeService interface {
	Upload(ctx context.Context, principal models.Principal, req dto.UploadItemRequest, file io.Reader, size int64, contentType string) (*dto.ItemResponse, error)
	List(ctx context.Context, principal models.Principal, category string, page, pageSize int) ([]dto.ItemResponse, *models.Pagination, error)
	Delete(ctx context.Context, principal models.Principal, id string) error
	Match(ctx context.Context, principal models.Principal, excludeID string) (*dto.MatchResponse, error)
	Quota(ctx context.Context, principal models.Principal, category string) (*dto.QuotaResponse, error)
}

// WardrobeHandler exposes the wardrobe endpoints.
type WardrobeHandler struct {
	service wardrobeService
}

// NewWardrobeHandler creates a new handler.
func NewWardrobeHandler(svc wardrobeService) *WardrobeHandler {
	return &WardrobeHandler{service: svc}
}

// Upload godoc
// @Summary Upload a wardrobe item
// @Description Store a garment image with its tags; free-tier owners are capped per category
// @Tags Wardrobe
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Garment image (JPEG, PNG or WebP)"
// @Param category formData string true "Garment category" Enums(tops, bottoms, shoes, accessories)
// @Param colors formData string false "Comma-separated color tags"
// @Param styles formData string false "Comma-separated style tags"
// @Param seasons formData string false "Comma-separated season tags"
// @Param pattern formData string false "Pattern label, defaults to solid"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /wardrobe/items [post]
func (h *WardrobeHandler) Upload(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UploadItemRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload form"))
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	item, err := h.service.Upload(c.Request.Context(), principal, req, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

// List godoc
// @Summary List wardrobe items
// @Description Active items owned by the caller, newest first
// @Tags Wardrobe
// @Produce json
// @Param category query string false "Filter by category" Enums(tops, bottoms, shoes, accessories)
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /wardrobe/items [get]
func (h *WardrobeHandler) List(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	items, pagination, err := h.service.List(c.Request.Context(), principal, c.Query("category"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Delete godoc
// @Summary Delete a wardrobe item
// @Tags Wardrobe
// @Produce json
// @Param id path string true "Item ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /wardrobe/items/{id} [delete]
func (h *WardrobeHandler) Delete(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Match godoc
// @Summary Get an outfit match
// @Description Pick the best pairing from the caller's wardrobe; running out of items is reported in the payload, not as an error
// @Tags Wardrobe
// @Produce json
// @Param exclude query string false "Item to anchor the match on"
// @Success 200 {object} response.Envelope
// @Router /wardrobe/match [get]
func (h *WardrobeHandler) Match(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	match, err := h.service.Match(c.Request.Context(), principal, c.Query("exclude"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, match, nil)
}

// Limits godoc
// @Summary Per-category quota status
// @Tags Wardrobe
// @Produce json
// @Param category path string true "Garment category" Enums(tops, bottoms, shoes, accessories)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /wardrobe/limits/{category} [get]
func (h *WardrobeHandler) Limits(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	quota, err := h.service.Quota(c.Request.Context(), principal, c.Param("category"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, quota, nil)
}
