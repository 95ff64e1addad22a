package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stylistiq/wardrobe-api/internal/models"
)

// ErrLimitReached signals that a guarded insert found the owner already at
// the per-category cap.
var ErrLimitReached = errors.New("category item limit reached")

const itemColumns = `id, user_id, session_token, category, color_tags, style_tags, season_tags, pattern, image_ref, created_at, expires_at`

// Rows whose expiry has passed are treated as non-existent by every query.
const notExpired = `(expires_at IS NULL OR expires_at > $1)`

// ItemRepository provides database access for wardrobe items.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new instance of ItemRepository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// ListOwned returns the principal's non-expired items with total count.
func (r *ItemRepository) ListOwned(ctx context.Context, owner models.Principal, filter models.ItemFilter) ([]models.ClothingItem, int, error) {
	now := time.Now().UTC()
	args := []interface{}{now}

	where := notExpired
	clause, arg := ownerCondition(owner, len(args)+1)
	where += " AND " + clause
	args = append(args, arg)

	if filter.Category != nil {
		args = append(args, *filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s FROM wardrobe_items WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d", itemColumns, where, pageSize, offset)

	var items []models.ClothingItem
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list wardrobe items: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM wardrobe_items WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count wardrobe items: %w", err)
	}

	return items, total, nil
}

// CountActive returns the number of non-expired items the owner holds in a
// category.
func (r *ItemRepository) CountActive(ctx context.Context, owner models.Principal, category models.Category) (int, error) {
	now := time.Now().UTC()
	clause, arg := ownerCondition(owner, 3)
	query := fmt.Sprintf("SELECT COUNT(*) FROM wardrobe_items WHERE %s AND category = $2 AND %s", notExpired, clause)

	var count int
	if err := r.db.GetContext(ctx, &count, query, now, category, arg); err != nil {
		return 0, fmt.Errorf("count active items: %w", err)
	}
	return count, nil
}

// Create inserts an item without a cap check. Used for unlimited principals.
func (r *ItemRepository) Create(ctx context.Context, item *models.ClothingItem) error {
	prepareItem(item)
	const query = `INSERT INTO wardrobe_items (id, user_id, session_token, category, color_tags, style_tags, season_tags, pattern, image_ref, created_at, expires_at)
		VALUES (:id, :user_id, :session_token, :category, :color_tags, :style_tags, :season_tags, :pattern, :image_ref, :created_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create wardrobe item: %w", err)
	}
	return nil
}

// CreateWithinLimit inserts an item only while the owner holds fewer than
// cap non-expired items in the category. The count and insert run inside a
// transaction holding an advisory lock keyed on owner+category, so two
// concurrent uploads cannot both slip under the cap.
func (r *ItemRepository) CreateWithinLimit(ctx context.Context, item *models.ClothingItem, cap int) error {
	prepareItem(item)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upload transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	lockKey := fmt.Sprintf("%s|%s|%s", derefOr(item.UserID), derefOr(item.SessionToken), item.Category)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("acquire upload lock: %w", err)
	}

	owner := ownerOf(item)
	clause, arg := ownerCondition(owner, 3)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM wardrobe_items WHERE %s AND category = $2 AND %s", notExpired, clause)

	var count int
	if err := tx.GetContext(ctx, &count, countQuery, time.Now().UTC(), item.Category, arg); err != nil {
		return fmt.Errorf("count items under lock: %w", err)
	}
	if count >= cap {
		return ErrLimitReached
	}

	const insert = `INSERT INTO wardrobe_items (id, user_id, session_token, category, color_tags, style_tags, season_tags, pattern, image_ref, created_at, expires_at)
		VALUES (:id, :user_id, :session_token, :category, :color_tags, :style_tags, :season_tags, :pattern, :image_ref, :created_at, :expires_at)`
	if _, err := tx.NamedExecContext(ctx, insert, item); err != nil {
		return fmt.Errorf("insert wardrobe item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upload transaction: %w", err)
	}
	return nil
}

// Delete removes an owned item and returns its image ref for file cleanup.
func (r *ItemRepository) Delete(ctx context.Context, owner models.Principal, id string) (string, error) {
	clause, arg := ownerCondition(owner, 2)
	query := fmt.Sprintf("DELETE FROM wardrobe_items WHERE id = $1 AND %s RETURNING image_ref", clause)

	var imageRef string
	if err := r.db.GetContext(ctx, &imageRef, query, id, arg); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("delete wardrobe item: %w", err)
	}
	return imageRef, nil
}

// DeleteExpired removes rows whose expiry has passed and returns their image
// refs so the files can be removed too.
func (r *ItemRepository) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	const query = `DELETE FROM wardrobe_items WHERE expires_at IS NOT NULL AND expires_at <= $1 RETURNING image_ref`

	var refs []string
	if err := r.db.SelectContext(ctx, &refs, query, now); err != nil {
		return nil, fmt.Errorf("delete expired items: %w", err)
	}
	return refs, nil
}

func prepareItem(item *models.ClothingItem) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.Pattern == "" {
		item.Pattern = models.PatternSolid
	}
}

func ownerCondition(owner models.Principal, argIndex int) (string, interface{}) {
	if owner.Kind == models.PrincipalRegistered {
		return fmt.Sprintf("user_id = $%d", argIndex), owner.UserID
	}
	return fmt.Sprintf("session_token = $%d", argIndex), owner.SessionToken
}

func ownerOf(item *models.ClothingItem) models.Principal {
	if item.UserID != nil {
		return models.Principal{Kind: models.PrincipalRegistered, UserID: *item.UserID}
	}
	return models.Principal{Kind: models.PrincipalAnonymous, SessionToken: derefOr(item.SessionToken)}
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
