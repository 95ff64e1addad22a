package models

// MatchResult pairs a current item with its best-scoring partner. Transient,
// never persisted.
type MatchResult struct {
	CurrentItem ClothingItem `json:"current_item"`
	MatchedItem ClothingItem `json:"matched_item"`
	Score       int          `json:"score"`
	Occasion    string       `json:"occasion"`
}

// NoMatchReason explains why no pairing could be produced.
type NoMatchReason string

const (
	// NoMatchNeedMoreItems: fewer than two items in the wardrobe.
	NoMatchNeedMoreItems NoMatchReason = "need_more_items"
	// NoMatchNoMoreItems: the exclusion left no eligible partner.
	NoMatchNoMoreItems NoMatchReason = "no_more_items"
)

// QuotaStatus reports per-category usage against the upload policy. A quota
// refusal is data, not an error: callers render it as a "limit reached"
// message.
type QuotaStatus struct {
	Allowed   bool     `json:"allowed"`
	Used      int      `json:"used"`
	Limit     int      `json:"-"`
	Unlimited bool     `json:"-"`
	Category  Category `json:"category"`
}
