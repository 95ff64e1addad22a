package models

import (
	"time"

	"github.com/lib/pq"
)

// Category classifies a garment. The set is fixed and drives cross-category
// match preference.
type Category string

const (
	CategoryTops        Category = "tops"
	CategoryBottoms     Category = "bottoms"
	CategoryShoes       Category = "shoes"
	CategoryAccessories Category = "accessories"
)

// Categories lists every valid garment category.
var Categories = []Category{CategoryTops, CategoryBottoms, CategoryShoes, CategoryAccessories}

// ValidCategory reports whether the label names a known category.
func ValidCategory(raw string) bool {
	switch Category(raw) {
	case CategoryTops, CategoryBottoms, CategoryShoes, CategoryAccessories:
		return true
	}
	return false
}

// PatternSolid is the default pattern assigned when an upload omits one.
const PatternSolid = "solid"

// ClothingItem represents a garment stored in the wardrobe_items table.
// Exactly one of UserID and SessionToken is set; anonymous items carry an
// expiry, registered items never expire.
type ClothingItem struct {
	ID           string         `db:"id" json:"id"`
	UserID       *string        `db:"user_id" json:"user_id,omitempty"`
	SessionToken *string        `db:"session_token" json:"-"`
	Category     Category       `db:"category" json:"category"`
	ColorTags    pq.StringArray `db:"color_tags" json:"color_tags"`
	StyleTags    pq.StringArray `db:"style_tags" json:"style_tags"`
	SeasonTags   pq.StringArray `db:"season_tags" json:"season_tags"`
	Pattern      string         `db:"pattern" json:"pattern"`
	ImageRef     string         `db:"image_ref" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	ExpiresAt    *time.Time     `db:"expires_at" json:"expires_at,omitempty"`
}

// Expired reports whether the item must be treated as non-existent.
// A nil expiry means the item never expires.
func (i ClothingItem) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}

// ItemFilter captures listing criteria for wardrobe items.
type ItemFilter struct {
	Category *Category
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
