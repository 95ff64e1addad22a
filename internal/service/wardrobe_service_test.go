package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylistiq/wardrobe-api/internal/dto"
	"github.com/stylistiq/wardrobe-api/internal/matcher"
	"github.com/stylistiq/wardrobe-api/internal/models"
	"github.com/stylistiq/wardrobe-api/internal/repository"
	appErrors "github.com/stylistiq/wardrobe-api/pkg/errors"
	"github.com/stylistiq/wardrobe-api/pkg/jobs"
)

type mockItemRepo struct {
	items          []models.ClothingItem
	created        []*models.ClothingItem
	guardedCreates int
	plainCreates   int
	createErr      error
	deletedRefs    map[string]string
	deleteErr      error
	listErr        error
}

func (m *mockItemRepo) ListOwned(ctx context.Context, owner models.Principal, filter models.ItemFilter) ([]models.ClothingItem, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.items, len(m.items), nil
}

func (m *mockItemRepo) Create(ctx context.Context, item *models.ClothingItem) error {
	m.plainCreates++
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, item)
	return nil
}

func (m *mockItemRepo) CreateWithinLimit(ctx context.Context, item *models.ClothingItem, cap int) error {
	m.guardedCreates++
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, item)
	return nil
}

func (m *mockItemRepo) Delete(ctx context.Context, owner models.Principal, id string) (string, error) {
	if m.deleteErr != nil {
		return "", m.deleteErr
	}
	if m.deletedRefs == nil {
		m.deletedRefs = make(map[string]string)
	}
	ref := "items/" + id + ".jpg"
	m.deletedRefs[id] = ref
	return ref, nil
}

type mockImageStore struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
	saveErr error
}

func (m *mockImageStore) SaveStream(filename string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, filename)
	return "/data/" + filename, nil
}

func (m *mockImageStore) Delete(filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, filename)
	return nil
}

type mockSigner struct{}

func (mockSigner) Generate(itemID, relPath string) (string, time.Time, error) {
	return "tok-" + itemID, time.Now().Add(time.Hour), nil
}

type mockQuota struct{ cap int }

func (m mockQuota) Check(ctx context.Context, principal models.Principal, category models.Category) (models.QuotaStatus, error) {
	if principal.Unlimited {
		return models.QuotaStatus{Allowed: true, Unlimited: true, Category: category}, nil
	}
	return models.QuotaStatus{Allowed: true, Used: 1, Limit: m.cap, Category: category}, nil
}

func (m mockQuota) Cap() int { return m.cap }

type mockWardrobeMetrics struct {
	scores  []int
	denials []string
	uploads []string
}

func (m *mockWardrobeMetrics) ObserveMatchScore(score int)       { m.scores = append(m.scores, score) }
func (m *mockWardrobeMetrics) RecordQuotaDenial(category string) { m.denials = append(m.denials, category) }
func (m *mockWardrobeMetrics) RecordUpload(category string)      { m.uploads = append(m.uploads, category) }

type mockCleanupQueue struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockCleanupQueue) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func newTestWardrobeService(repo *mockItemRepo, store *mockImageStore, metrics *mockWardrobeMetrics, queue *mockCleanupQueue) *WardrobeService {
	return NewWardrobeService(repo, store, mockSigner{}, mockQuota{cap: 2}, matcher.NewSelector(nil), metrics, queue, nil, nil, WardrobeConfig{
		MaxFileSizeBytes: 1 << 20,
		AllowedMIMEs:     []string{"image/jpeg", "image/png", "image/webp"},
		AnonymousItemTTL: 7 * 24 * time.Hour,
		ImageBasePath:    "/api/v1/images",
	})
}

func TestUploadAnonymousStampsExpiry(t *testing.T) {
	repo := &mockItemRepo{}
	store := &mockImageStore{}
	svc := newTestWardrobeService(repo, store, &mockWardrobeMetrics{}, nil)

	resp, err := svc.Upload(context.Background(), models.AnonymousPrincipal("anon_1_abcdefghijklmnop"), dto.UploadItemRequest{
		Category: "tops",
		Colors:   "Navy, White , navy",
		Styles:   "casual",
	}, strings.NewReader("img"), 128, "image/jpeg")
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	item := repo.created[0]
	require.NotNil(t, item.ExpiresAt)
	assert.WithinDuration(t, item.CreatedAt.Add(7*24*time.Hour), *item.ExpiresAt, time.Second)
	assert.Equal(t, []string{"navy", "white"}, []string(item.ColorTags))
	assert.Equal(t, models.PatternSolid, item.Pattern)
	require.NotNil(t, item.SessionToken)
	assert.Nil(t, item.UserID)

	assert.Equal(t, 1, repo.guardedCreates)
	assert.Equal(t, 0, repo.plainCreates)
	require.Len(t, store.saved, 1)
	assert.Equal(t, item.ImageRef, store.saved[0])
	assert.Equal(t, "/api/v1/images/tok-"+item.ID, resp.ImageURL, "image URL must carry the mounted route prefix")
}

// serializingItemRepo mirrors the guarded insert: the mutex stands in for the
// per-owner advisory lock, so count and insert happen as one atomic step.
type serializingItemRepo struct {
	mu     sync.Mutex
	counts map[models.Category]int
}

func (r *serializingItemRepo) ListOwned(ctx context.Context, owner models.Principal, filter models.ItemFilter) ([]models.ClothingItem, int, error) {
	return nil, 0, nil
}

func (r *serializingItemRepo) Create(ctx context.Context, item *models.ClothingItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[item.Category]++
	return nil
}

func (r *serializingItemRepo) CreateWithinLimit(ctx context.Context, item *models.ClothingItem, cap int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts[item.Category] >= cap {
		return repository.ErrLimitReached
	}
	r.counts[item.Category]++
	return nil
}

func (r *serializingItemRepo) Delete(ctx context.Context, owner models.Principal, id string) (string, error) {
	return "", nil
}

func TestConcurrentUploadsHoldTheCap(t *testing.T) {
	repo := &serializingItemRepo{counts: make(map[models.Category]int)}
	store := &mockImageStore{}
	svc := NewWardrobeService(repo, store, mockSigner{}, mockQuota{cap: 2}, nil, nil, nil, nil, nil, WardrobeConfig{
		MaxFileSizeBytes: 1 << 20,
	})

	const attempts = 8
	principal := models.AnonymousPrincipal("anon_1_abcdefghijklmnop")
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Upload(context.Background(), principal, dto.UploadItemRequest{
				Category: "tops",
			}, strings.NewReader("img"), 128, "image/jpeg")
		}(i)
	}
	wg.Wait()

	successes, denials := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case appErrors.FromError(err).Code == appErrors.ErrQuotaExceeded.Code:
			denials++
		default:
			t.Fatalf("unexpected upload error: %v", err)
		}
	}

	assert.Equal(t, 2, successes, "racing uploads must never overshoot the cap")
	assert.Equal(t, attempts-2, denials)
	assert.Equal(t, 2, repo.counts[models.CategoryTops])
	assert.Len(t, store.deleted, attempts-2, "every denied upload cleans up its image")
}

func TestUploadRegisteredHasNoExpiry(t *testing.T) {
	repo := &mockItemRepo{}
	svc := newTestWardrobeService(repo, &mockImageStore{}, &mockWardrobeMetrics{}, nil)

	_, err := svc.Upload(context.Background(), models.RegisteredPrincipal("user-1", false), dto.UploadItemRequest{
		Category: "shoes",
	}, strings.NewReader("img"), 128, "image/png")
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Nil(t, repo.created[0].ExpiresAt)
	require.NotNil(t, repo.created[0].UserID)
	assert.Equal(t, "user-1", *repo.created[0].UserID)
	assert.Equal(t, 1, repo.guardedCreates, "non-verified accounts stay behind the guarded insert")
}

func TestUploadVerifiedSkipsGuardedInsert(t *testing.T) {
	repo := &mockItemRepo{}
	svc := newTestWardrobeService(repo, &mockImageStore{}, &mockWardrobeMetrics{}, nil)

	_, err := svc.Upload(context.Background(), models.RegisteredPrincipal("user-1", true), dto.UploadItemRequest{
		Category: "tops",
	}, strings.NewReader("img"), 128, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, 0, repo.guardedCreates)
	assert.Equal(t, 1, repo.plainCreates)
}

func TestUploadQuotaExceededCleansUpImage(t *testing.T) {
	repo := &mockItemRepo{createErr: repository.ErrLimitReached}
	store := &mockImageStore{}
	metrics := &mockWardrobeMetrics{}
	svc := newTestWardrobeService(repo, store, metrics, nil)

	_, err := svc.Upload(context.Background(), models.AnonymousPrincipal("anon_1_abcdefghijklmnop"), dto.UploadItemRequest{
		Category: "tops",
	}, strings.NewReader("img"), 128, "image/jpeg")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Code, appErr.Code)
	assert.Len(t, store.deleted, 1, "rejected upload must not leave an orphaned file")
	assert.Equal(t, []string{"tops"}, metrics.denials)
	assert.Empty(t, metrics.uploads)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc := newTestWardrobeService(&mockItemRepo{}, &mockImageStore{}, &mockWardrobeMetrics{}, nil)

	_, err := svc.Upload(context.Background(), models.RegisteredPrincipal("user-1", false), dto.UploadItemRequest{
		Category: "tops",
	}, strings.NewReader("img"), 2<<20, "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUploadTooLarge.Code, appErrors.FromError(err).Code)
}

func TestUploadRejectsUnsupportedMIME(t *testing.T) {
	store := &mockImageStore{}
	svc := newTestWardrobeService(&mockItemRepo{}, store, &mockWardrobeMetrics{}, nil)

	_, err := svc.Upload(context.Background(), models.RegisteredPrincipal("user-1", false), dto.UploadItemRequest{
		Category: "tops",
	}, strings.NewReader("gif"), 128, "image/gif")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedMedia.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.saved)
}

func TestUploadRejectsUnknownCategory(t *testing.T) {
	svc := newTestWardrobeService(&mockItemRepo{}, &mockImageStore{}, &mockWardrobeMetrics{}, nil)

	_, err := svc.Upload(context.Background(), models.RegisteredPrincipal("user-1", false), dto.UploadItemRequest{
		Category: "hats",
	}, strings.NewReader("img"), 128, "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCategory.Code, appErrors.FromError(err).Code)
}

func TestDeleteEnqueuesImageRemoval(t *testing.T) {
	repo := &mockItemRepo{}
	queue := &mockCleanupQueue{}
	store := &mockImageStore{}
	svc := newTestWardrobeService(repo, store, &mockWardrobeMetrics{}, queue)

	err := svc.Delete(context.Background(), models.RegisteredPrincipal("user-1", false), "item-1")
	require.NoError(t, err)

	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "items/item-1.jpg", queue.enqueued[0].Payload)
	assert.Empty(t, store.deleted, "queued removals must not also delete inline")
}

func TestDeleteFallsBackToInlineRemoval(t *testing.T) {
	store := &mockImageStore{}
	svc := newTestWardrobeService(&mockItemRepo{}, store, &mockWardrobeMetrics{}, &mockCleanupQueue{err: errors.New("queue full")})

	err := svc.Delete(context.Background(), models.RegisteredPrincipal("user-1", false), "item-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"items/item-1.jpg"}, store.deleted)
}

func TestDeleteMissingItem(t *testing.T) {
	repo := &mockItemRepo{deleteErr: sql.ErrNoRows}
	svc := newTestWardrobeService(repo, &mockImageStore{}, &mockWardrobeMetrics{}, nil)

	err := svc.Delete(context.Background(), models.RegisteredPrincipal("user-1", false), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMatchTooFewItems(t *testing.T) {
	repo := &mockItemRepo{items: []models.ClothingItem{{ID: "only", Category: models.CategoryTops}}}
	svc := newTestWardrobeService(repo, &mockImageStore{}, &mockWardrobeMetrics{}, nil)

	resp, err := svc.Match(context.Background(), models.AnonymousPrincipal("anon_1_abcdefghijklmnop"), "")
	require.NoError(t, err)
	assert.False(t, resp.Matched)
	assert.Equal(t, "need_more_items", resp.Reason)
	assert.NotEmpty(t, resp.Message)
}

func TestMatchReturnsPairingAndRecordsScore(t *testing.T) {
	repo := &mockItemRepo{items: []models.ClothingItem{
		{ID: "shirt", Category: models.CategoryTops, ColorTags: []string{"white"}, StyleTags: []string{"casual"}, Pattern: "solid"},
		{ID: "jeans", Category: models.CategoryBottoms, ColorTags: []string{"navy"}, StyleTags: []string{"casual"}, Pattern: "solid"},
	}}
	metrics := &mockWardrobeMetrics{}
	svc := newTestWardrobeService(repo, &mockImageStore{}, metrics, nil)

	resp, err := svc.Match(context.Background(), models.AnonymousPrincipal("anon_1_abcdefghijklmnop"), "shirt")
	require.NoError(t, err)

	require.True(t, resp.Matched)
	require.NotNil(t, resp.CurrentItem)
	require.NotNil(t, resp.MatchedItem)
	assert.Equal(t, "shirt", resp.CurrentItem.ID)
	assert.Equal(t, "jeans", resp.MatchedItem.ID)
	assert.Equal(t, resp.Score, metrics.scores[0])
	assert.NotEmpty(t, resp.Occasion)
}

func TestQuotaRendersUnlimited(t *testing.T) {
	svc := newTestWardrobeService(&mockItemRepo{}, &mockImageStore{}, &mockWardrobeMetrics{}, nil)

	resp, err := svc.Quota(context.Background(), models.RegisteredPrincipal("user-1", true), "tops")
	require.NoError(t, err)
	assert.True(t, resp.Allowed)
	assert.True(t, resp.Unlimited)

	_, err = svc.Quota(context.Background(), models.RegisteredPrincipal("user-1", true), "hats")
	require.Error(t, err)
}

func TestListFiltersByCategory(t *testing.T) {
	repo := &mockItemRepo{items: []models.ClothingItem{{ID: "a", Category: models.CategoryTops, ImageRef: "items/a.jpg"}}}
	svc := newTestWardrobeService(repo, &mockImageStore{}, &mockWardrobeMetrics{}, nil)

	items, pagination, err := svc.List(context.Background(), models.RegisteredPrincipal("user-1", false), "tops", 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "/api/v1/images/tok-a", items[0].ImageURL)
	assert.Equal(t, 1, pagination.TotalCount)

	_, _, err = svc.List(context.Background(), models.RegisteredPrincipal("user-1", false), "hats", 1, 20)
	require.Error(t, err)
}

func TestImagePathDefaultsWhenUnconfigured(t *testing.T) {
	repo := &mockItemRepo{items: []models.ClothingItem{{ID: "a", Category: models.CategoryTops, ImageRef: "items/a.jpg"}}}
	svc := NewWardrobeService(repo, &mockImageStore{}, mockSigner{}, mockQuota{cap: 2}, nil, nil, nil, nil, nil, WardrobeConfig{MaxFileSizeBytes: 1 << 20})

	items, _, err := svc.List(context.Background(), models.RegisteredPrincipal("user-1", false), "", 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "/images/tok-a", items[0].ImageURL)
}
