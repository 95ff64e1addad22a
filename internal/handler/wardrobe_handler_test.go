package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylistiq/wardrobe-api/internal/dto"
	"github.com/stylistiq/wardrobe-api/internal/middleware"
	"github.com/stylistiq/wardrobe-api/internal/models"
	appErrors "github.com/stylistiq/wardrobe-api/pkg/errors"
)

type wardrobeServiceMock struct {
	uploaded  *dto.UploadItemRequest
	uploadErr error
	matchResp *dto.MatchResponse
	quotaResp *dto.QuotaResponse
	deleted   []string
}

func (m *wardrobeServiceMock) Upload(ctx context.Context, principal models.Principal, req dto.UploadItemRequest, file io.Reader, size int64, contentType string) (*dto.ItemResponse, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploaded = &req
	return &dto.ItemResponse{ID: "item-1", Category: req.Category}, nil
}

func (m *wardrobeServiceMock) List(ctx context.Context, principal models.Principal, category string, page, pageSize int) ([]dto.ItemResponse, *models.Pagination, error) {
	return []dto.ItemResponse{{ID: "item-1"}}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, nil
}

func (m *wardrobeServiceMock) Delete(ctx context.Context, principal models.Principal, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *wardrobeServiceMock) Match(ctx context.Context, principal models.Principal, excludeID string) (*dto.MatchResponse, error) {
	return m.matchResp, nil
}

func (m *wardrobeServiceMock) Quota(ctx context.Context, principal models.Principal, category string) (*dto.QuotaResponse, error) {
	if m.quotaResp == nil {
		return nil, appErrors.ErrInvalidCategory
	}
	return m.quotaResp, nil
}

func anonContext(t *testing.T, w *httptest.ResponseRecorder, req *http.Request) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.ContextPrincipalKey, models.AnonymousPrincipal("anon_1_abcdefghijklmnop"))
	return c
}

func multipartUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("image", "shirt.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadHandlerSuccess(t *testing.T) {
	mock := &wardrobeServiceMock{}
	handler := NewWardrobeHandler(mock)

	body, contentType := multipartUpload(t, map[string]string{
		"category": "tops",
		"colors":   "navy,white",
	})
	req, _ := http.NewRequest(http.MethodPost, "/wardrobe/items", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	handler.Upload(anonContext(t, w, req))

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mock.uploaded)
	assert.Equal(t, "tops", mock.uploaded.Category)
	assert.Equal(t, "navy,white", mock.uploaded.Colors)
}

func TestUploadHandlerRequiresImage(t *testing.T) {
	handler := NewWardrobeHandler(&wardrobeServiceMock{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("category", "tops"))
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/wardrobe/items", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	handler.Upload(anonContext(t, w, req))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandlerMapsQuotaError(t *testing.T) {
	mock := &wardrobeServiceMock{uploadErr: appErrors.ErrQuotaExceeded}
	handler := NewWardrobeHandler(mock)

	body, contentType := multipartUpload(t, map[string]string{"category": "tops"})
	req, _ := http.NewRequest(http.MethodPost, "/wardrobe/items", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	handler.Upload(anonContext(t, w, req))

	require.Equal(t, http.StatusForbidden, w.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "QUOTA_EXCEEDED", envelope.Error.Code)
}

func TestUploadHandlerRequiresPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWardrobeHandler(&wardrobeServiceMock{})

	body, contentType := multipartUpload(t, map[string]string{"category": "tops"})
	req, _ := http.NewRequest(http.MethodPost, "/wardrobe/items", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Upload(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMatchHandlerNoMatchIsOK(t *testing.T) {
	mock := &wardrobeServiceMock{matchResp: &dto.MatchResponse{
		Matched: false,
		Reason:  "need_more_items",
		Message: "Add at least two items to your wardrobe to get outfit matches.",
	}}
	handler := NewWardrobeHandler(mock)

	req, _ := http.NewRequest(http.MethodGet, "/wardrobe/match", nil)
	w := httptest.NewRecorder()
	handler.Match(anonContext(t, w, req))

	require.Equal(t, http.StatusOK, w.Code, "running out of items is not an HTTP error")

	var envelope struct {
		Data dto.MatchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Matched)
	assert.Equal(t, "need_more_items", envelope.Data.Reason)
}

func TestLimitsHandlerRendersUnlimited(t *testing.T) {
	mock := &wardrobeServiceMock{quotaResp: &dto.QuotaResponse{
		Allowed:   true,
		Category:  "tops",
		Unlimited: true,
	}}
	handler := NewWardrobeHandler(mock)

	req, _ := http.NewRequest(http.MethodGet, "/wardrobe/limits/tops", nil)
	w := httptest.NewRecorder()
	c := anonContext(t, w, req)
	c.Params = gin.Params{{Key: "category", Value: "tops"}}

	handler.Limits(c)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "unlimited", envelope.Data["limit"])
}

func TestLimitsHandlerUnknownCategory(t *testing.T) {
	handler := NewWardrobeHandler(&wardrobeServiceMock{})

	req, _ := http.NewRequest(http.MethodGet, "/wardrobe/limits/hats", nil)
	w := httptest.NewRecorder()
	c := anonContext(t, w, req)
	c.Params = gin.Params{{Key: "category", Value: "hats"}}

	handler.Limits(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteHandler(t *testing.T) {
	mock := &wardrobeServiceMock{}
	handler := NewWardrobeHandler(mock)

	req, _ := http.NewRequest(http.MethodDelete, "/wardrobe/items/item-1", nil)
	w := httptest.NewRecorder()
	c := anonContext(t, w, req)
	c.Params = gin.Params{{Key: "id", Value: "item-1"}}

	handler.Delete(c)
	// c.Status alone does not flush to the recorder outside a router run.
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"item-1"}, mock.deleted)
}
