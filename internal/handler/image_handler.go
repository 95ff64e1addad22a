package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/stylistiq/wardrobe-api/pkg/errors"
	"github.com/stylistiq/wardrobe-api/pkg/response"
	"github.com/stylistiq/wardrobe-api/pkg/storage"
)

// ImageHandler serves garment images addressed by signed tokens. Raw storage
// paths are never exposed; an expired or tampered token yields 404 rather
// than a hint about what exists.
type ImageHandler struct {
	signer *storage.SignedURLSigner
	files  *storage.LocalStorage
}

// NewImageHandler creates a new handler.
func NewImageHandler(signer *storage.SignedURLSigner, files *storage.LocalStorage) *ImageHandler {
	return &ImageHandler{signer: signer, files: files}
}

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Serve godoc
// @Summary Fetch a garment image
// @Description Resolve a signed token to the stored image
// @Tags Wardrobe
// @Produce image/jpeg
// @Param token path string true "Signed image token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /images/{token} [get]
func (h *ImageHandler) Serve(c *gin.Context) {
	token := c.Param("token")

	_, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "image not found"))
		return
	}

	file, err := h.files.Open(relPath)
	if err != nil {
		if os.IsNotExist(err) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "image not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open image"))
		return
	}
	defer file.Close()

	contentType := imageContentTypes[strings.ToLower(filepath.Ext(relPath))]
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat image"))
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
