package matcher

import (
	"errors"
	"math/rand"
	"time"

	"github.com/stylistiq/wardrobe-api/internal/models"
)

// Sentinel outcomes for Select. Neither is a fault: callers translate them
// into "add more items" prompts.
var (
	// ErrNeedMoreItems: the wardrobe holds fewer than two items.
	ErrNeedMoreItems = errors.New("need at least two items to match")
	// ErrNoMoreItems: the exclusion left no eligible partner.
	ErrNoMoreItems = errors.New("no more items to match against")
)

// Selector picks the best available pairing from a principal's wardrobe.
// The random source is injected so tests can force deterministic outcomes;
// it drives only the current-item pick and the occasion label, never the
// partner choice.
type Selector struct {
	rng *rand.Rand
}

// NewSelector builds a selector around the given random source. A nil rng
// falls back to a time-seeded one.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rng: rng}
}

// Select picks a current item and its best-scoring partner from a different
// category, falling back to same-category partners when the wardrobe has no
// cross-category candidate. Items are assumed pre-filtered to one principal;
// expired items are skipped here regardless, so a stale caller-side list
// cannot surface a dead garment.
//
// Ties on score go to the candidate appearing first in the input slice; the
// tie-break is stable across calls.
func (s *Selector) Select(items []models.ClothingItem, excludeID string) (*models.MatchResult, error) {
	now := time.Now().UTC()
	live := make([]models.ClothingItem, 0, len(items))
	for _, item := range items {
		if item.Expired(now) {
			continue
		}
		live = append(live, item)
	}
	items = live

	if len(items) < 2 {
		return nil, ErrNeedMoreItems
	}

	pool := make([]models.ClothingItem, 0, len(items))
	for _, item := range items {
		if excludeID != "" && item.ID == excludeID {
			continue
		}
		pool = append(pool, item)
	}
	if len(pool) == 0 {
		return nil, ErrNoMoreItems
	}

	current, ok := s.pickCurrent(items, pool, excludeID)
	if !ok {
		return nil, ErrNoMoreItems
	}

	candidates := partnerCandidates(pool, current)
	if len(candidates) == 0 {
		return nil, ErrNoMoreItems
	}

	best := candidates[0]
	bestScore := Score(current, best)
	for _, candidate := range candidates[1:] {
		if score := Score(current, candidate); score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	styles := append(append([]string{}, current.StyleTags...), best.StyleTags...)

	return &models.MatchResult{
		CurrentItem: current,
		MatchedItem: best,
		Score:       bestScore,
		Occasion:    occasionFor(styles, s.rng),
	}, nil
}

// pickCurrent resolves the pairing anchor: the excluded item when one was
// named (taken from the original set, not the pool), otherwise a uniformly
// random pool element.
func (s *Selector) pickCurrent(items, pool []models.ClothingItem, excludeID string) (models.ClothingItem, bool) {
	if excludeID != "" {
		for _, item := range items {
			if item.ID == excludeID {
				return item, true
			}
		}
		// Unknown exclude id: treat it as not provided.
	}
	if len(pool) == 0 {
		return models.ClothingItem{}, false
	}
	return pool[s.rng.Intn(len(pool))], true
}

// partnerCandidates prefers cross-category items, falling back to any pool
// item other than the current one.
func partnerCandidates(pool []models.ClothingItem, current models.ClothingItem) []models.ClothingItem {
	var crossCategory, sameOwnerAny []models.ClothingItem
	for _, item := range pool {
		if item.ID == current.ID {
			continue
		}
		sameOwnerAny = append(sameOwnerAny, item)
		if item.Category != current.Category {
			crossCategory = append(crossCategory, item)
		}
	}
	if len(crossCategory) > 0 {
		return crossCategory
	}
	return sameOwnerAny
}
