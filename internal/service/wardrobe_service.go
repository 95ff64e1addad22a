package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stylistiq/wardrobe-api/internal/dto"
	"github.com/stylistiq/wardrobe-api/internal/matcher"
	"github.com/stylistiq/wardrobe-api/internal/models"
	"github.com/stylistiq/wardrobe-api/internal/repository"
	appErrors "github.com/stylistiq/wardrobe-api/pkg/errors"
	"github.com/stylistiq/wardrobe-api/pkg/jobs"
)

type wardrobeItemRepository interface {
	ListOwned(ctx context.Context, owner models.Principal, filter models.ItemFilter) ([]models.ClothingItem, int, error)
	Create(ctx context.Context, item *models.ClothingItem) error
	CreateWithinLimit(ctx context.Context, item *models.ClothingItem, cap int) error
	Delete(ctx context.Context, owner models.Principal, id string) (string, error)
}

type imageStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

type imageSigner interface {
	Generate(itemID, relPath string) (string, time.Time, error)
}

type quotaChecker interface {
	Check(ctx context.Context, principal models.Principal, category models.Category) (models.QuotaStatus, error)
	Cap() int
}

type wardrobeMetrics interface {
	ObserveMatchScore(score int)
	RecordQuotaDenial(category string)
	RecordUpload(category string)
}

type imageCleanupQueue interface {
	Enqueue(job jobs.Job) error
}

// WardrobeConfig carries upload policy knobs into the service.
type WardrobeConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	AnonymousItemTTL time.Duration

	// ImageBasePath is the mounted path of the signed-image route,
	// including the API prefix, e.g. "/api/v1/images".
	ImageBasePath string
}

// WardrobeService implements the wardrobe use cases: quota-gated uploads,
// owner-scoped listing and deletion, and outfit matching.
type WardrobeService struct {
	items     wardrobeItemRepository
	storage   imageStore
	signer    imageSigner
	quota     quotaChecker
	selector  *matcher.Selector
	metrics   wardrobeMetrics
	cleanup   imageCleanupQueue
	validator *validator.Validate
	logger    *zap.Logger
	config    WardrobeConfig
}

// NewWardrobeService wires the wardrobe service.
func NewWardrobeService(
	items wardrobeItemRepository,
	storage imageStore,
	signer imageSigner,
	quota quotaChecker,
	selector *matcher.Selector,
	metrics wardrobeMetrics,
	cleanup imageCleanupQueue,
	validate *validator.Validate,
	logger *zap.Logger,
	config WardrobeConfig,
) *WardrobeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if selector == nil {
		selector = matcher.NewSelector(nil)
	}
	if config.AnonymousItemTTL <= 0 {
		config.AnonymousItemTTL = 7 * 24 * time.Hour
	}
	if config.ImageBasePath == "" {
		config.ImageBasePath = "/images"
	}
	config.ImageBasePath = strings.TrimRight(config.ImageBasePath, "/")
	return &WardrobeService{
		items:     items,
		storage:   storage,
		signer:    signer,
		quota:     quota,
		selector:  selector,
		metrics:   metrics,
		cleanup:   cleanup,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Upload stores a garment image and its tags for the principal. Uploads from
// non-verified principals run through a guarded insert so the per-category
// cap holds even under concurrent requests.
func (s *WardrobeService) Upload(ctx context.Context, principal models.Principal, req dto.UploadItemRequest, file io.Reader, size int64, contentType string) (*dto.ItemResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	if !models.ValidCategory(req.Category) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCategory, fmt.Sprintf("unknown category %q", req.Category))
	}
	if size > s.config.MaxFileSizeBytes {
		return nil, appErrors.ErrUploadTooLarge
	}
	if !s.mimeAllowed(contentType) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("file type %q is not supported", contentType))
	}

	category := models.Category(req.Category)

	item := &models.ClothingItem{
		ID:         uuid.NewString(),
		Category:   category,
		ColorTags:  splitTags(req.Colors),
		StyleTags:  splitTags(req.Styles),
		SeasonTags: splitTags(req.Seasons),
		Pattern:    normalizePattern(req.Pattern),
		CreatedAt:  time.Now().UTC(),
	}

	switch principal.Kind {
	case models.PrincipalRegistered:
		item.UserID = &principal.UserID
	case models.PrincipalAnonymous:
		item.SessionToken = &principal.SessionToken
		expiresAt := item.CreatedAt.Add(s.config.AnonymousItemTTL)
		item.ExpiresAt = &expiresAt
	}

	item.ImageRef = fmt.Sprintf("items/%s%s", item.ID, imageExtensions[contentType])
	if _, err := s.storage.SaveStream(item.ImageRef, file); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}

	var err error
	if principal.Unlimited {
		err = s.items.Create(ctx, item)
	} else {
		err = s.items.CreateWithinLimit(ctx, item, s.quota.Cap())
	}
	if err != nil {
		if removeErr := s.storage.Delete(item.ImageRef); removeErr != nil {
			s.logger.Warn("failed to remove orphaned image", zap.String("image_ref", item.ImageRef), zap.Error(removeErr))
		}
		if errors.Is(err, repository.ErrLimitReached) {
			if s.metrics != nil {
				s.metrics.RecordQuotaDenial(req.Category)
			}
			return nil, appErrors.Clone(appErrors.ErrQuotaExceeded, fmt.Sprintf("you already have %d items in %s; delete one or verify your account", s.quota.Cap(), req.Category))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save item")
	}

	if s.metrics != nil {
		s.metrics.RecordUpload(req.Category)
	}

	resp := s.itemResponse(*item)
	return &resp, nil
}

// List returns the principal's non-expired items, optionally filtered by
// category.
func (s *WardrobeService) List(ctx context.Context, principal models.Principal, rawCategory string, page, pageSize int) ([]dto.ItemResponse, *models.Pagination, error) {
	filter := models.ItemFilter{Page: page, PageSize: pageSize}
	if rawCategory != "" {
		if !models.ValidCategory(rawCategory) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidCategory, fmt.Sprintf("unknown category %q", rawCategory))
		}
		category := models.Category(rawCategory)
		filter.Category = &category
	}

	items, total, err := s.items.ListOwned(ctx, principal, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wardrobe")
	}

	responses := make([]dto.ItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, s.itemResponse(item))
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.PageSize <= 0 || pagination.PageSize > 100 {
		pagination.PageSize = 50
	}
	return responses, pagination, nil
}

// Delete removes an owned item; the backing image file is handed to the
// cleanup queue so the request does not wait on disk I/O.
func (s *WardrobeService) Delete(ctx context.Context, principal models.Principal, id string) error {
	imageRef, err := s.items.Delete(ctx, principal, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete item")
	}

	s.removeImage(id, imageRef)
	return nil
}

// Match loads the principal's wardrobe and picks the best pairing. Running
// out of items is a normal outcome reported in the payload, not an error.
func (s *WardrobeService) Match(ctx context.Context, principal models.Principal, excludeID string) (*dto.MatchResponse, error) {
	items, _, err := s.items.ListOwned(ctx, principal, models.ItemFilter{Page: 1, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load wardrobe")
	}

	result, err := s.selector.Select(items, excludeID)
	if err != nil {
		switch {
		case errors.Is(err, matcher.ErrNeedMoreItems):
			return &dto.MatchResponse{
				Matched: false,
				Reason:  string(models.NoMatchNeedMoreItems),
				Message: "Add at least two items to your wardrobe to get outfit matches.",
			}, nil
		case errors.Is(err, matcher.ErrNoMoreItems):
			return &dto.MatchResponse{
				Matched: false,
				Reason:  string(models.NoMatchNoMoreItems),
				Message: "No more items to match right now. Try uploading something new.",
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select match")
	}

	if s.metrics != nil {
		s.metrics.ObserveMatchScore(result.Score)
	}

	current := s.itemResponse(result.CurrentItem)
	matched := s.itemResponse(result.MatchedItem)
	return &dto.MatchResponse{
		Matched:     true,
		CurrentItem: &current,
		MatchedItem: &matched,
		Score:       result.Score,
		Occasion:    result.Occasion,
	}, nil
}

// Quota reports per-category usage for the principal.
func (s *WardrobeService) Quota(ctx context.Context, principal models.Principal, rawCategory string) (*dto.QuotaResponse, error) {
	if !models.ValidCategory(rawCategory) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCategory, fmt.Sprintf("unknown category %q", rawCategory))
	}

	status, err := s.quota.Check(ctx, principal, models.Category(rawCategory))
	if err != nil {
		return nil, err
	}

	resp := dto.QuotaResponseFrom(status)
	return &resp, nil
}

func (s *WardrobeService) removeImage(itemID, imageRef string) {
	if imageRef == "" {
		return
	}
	if s.cleanup != nil {
		if err := s.cleanup.Enqueue(jobs.Job{ID: itemID, Type: "image_delete", Payload: imageRef}); err == nil {
			return
		}
	}
	// No queue (or enqueue failed): delete inline.
	if err := s.storage.Delete(imageRef); err != nil {
		s.logger.Warn("failed to delete image", zap.String("image_ref", imageRef), zap.Error(err))
	}
}

func (s *WardrobeService) itemResponse(item models.ClothingItem) dto.ItemResponse {
	resp := dto.ItemResponse{
		ID:         item.ID,
		Category:   string(item.Category),
		ColorTags:  item.ColorTags,
		StyleTags:  item.StyleTags,
		SeasonTags: item.SeasonTags,
		Pattern:    item.Pattern,
		CreatedAt:  item.CreatedAt,
		ExpiresAt:  item.ExpiresAt,
	}
	if s.signer != nil && item.ImageRef != "" {
		if token, _, err := s.signer.Generate(item.ID, item.ImageRef); err == nil {
			resp.ImageURL = s.config.ImageBasePath + "/" + token
		}
	}
	return resp
}

func (s *WardrobeService) mimeAllowed(contentType string) bool {
	if len(s.config.AllowedMIMEs) == 0 {
		_, known := imageExtensions[contentType]
		return known
	}
	for _, allowed := range s.config.AllowedMIMEs {
		if strings.EqualFold(allowed, contentType) {
			return true
		}
	}
	return false
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func normalizePattern(raw string) string {
	pattern := strings.ToLower(strings.TrimSpace(raw))
	if pattern == "" {
		return models.PatternSolid
	}
	return pattern
}
