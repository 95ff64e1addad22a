package matcher

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylistiq/wardrobe-api/internal/models"
)

func newTestSelector() *Selector {
	return NewSelector(rand.New(rand.NewSource(1)))
}

func wardrobeItem(id string, category models.Category, colors, styles []string) models.ClothingItem {
	return models.ClothingItem{
		ID:        id,
		Category:  category,
		ColorTags: colors,
		StyleTags: styles,
		Pattern:   "solid",
	}
}

func TestSelectNeedsAtLeastTwoItems(t *testing.T) {
	s := newTestSelector()

	_, err := s.Select(nil, "")
	require.ErrorIs(t, err, ErrNeedMoreItems)

	_, err = s.Select([]models.ClothingItem{wardrobeItem("a", models.CategoryTops, nil, nil)}, "")
	require.ErrorIs(t, err, ErrNeedMoreItems)
}

func TestSelectExclusionRemovesEveryItem(t *testing.T) {
	s := newTestSelector()
	// Both rows carry the same id, so the exclusion empties the pool.
	items := []models.ClothingItem{
		wardrobeItem("a", models.CategoryTops, nil, nil),
		wardrobeItem("a", models.CategoryBottoms, nil, nil),
	}

	_, err := s.Select(items, "a")
	require.ErrorIs(t, err, ErrNoMoreItems)
}

func TestSelectUsesExcludedItemAsCurrent(t *testing.T) {
	s := newTestSelector()
	items := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, []string{"red"}, nil),
		wardrobeItem("bottom-1", models.CategoryBottoms, []string{"green"}, nil),
	}

	result, err := s.Select(items, "top-1")
	require.NoError(t, err)
	assert.Equal(t, "top-1", result.CurrentItem.ID)
	assert.Equal(t, "bottom-1", result.MatchedItem.ID)
	assert.Equal(t, 70, result.Score) // red/green 45 + style 10 + solid 15
}

func TestSelectPrefersCrossCategory(t *testing.T) {
	s := newTestSelector()
	// top-2 is a perfect clone of top-1 and would outscore bottom-1, but
	// cross-category candidates are considered first.
	items := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, []string{"red"}, []string{"casual"}),
		wardrobeItem("bottom-1", models.CategoryBottoms, []string{"chartreuse"}, nil),
		wardrobeItem("top-2", models.CategoryTops, []string{"red"}, []string{"casual"}),
	}

	result, err := s.Select(items, "top-1")
	require.NoError(t, err)
	assert.Equal(t, "bottom-1", result.MatchedItem.ID)
}

func TestSelectFallsBackToSameCategory(t *testing.T) {
	s := newTestSelector()
	items := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, []string{"red"}, nil),
		wardrobeItem("top-2", models.CategoryTops, []string{"navy"}, nil),
	}

	result, err := s.Select(items, "top-1")
	require.NoError(t, err)
	assert.Equal(t, "top-2", result.MatchedItem.ID)
}

func TestSelectTieBreakIsStable(t *testing.T) {
	items := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, []string{"red"}, nil),
		wardrobeItem("bottom-1", models.CategoryBottoms, []string{"green"}, nil),
		wardrobeItem("bottom-2", models.CategoryBottoms, []string{"green"}, nil),
	}

	for i := 0; i < 20; i++ {
		s := NewSelector(rand.New(rand.NewSource(int64(i))))
		result, err := s.Select(items, "top-1")
		require.NoError(t, err)
		assert.Equal(t, "bottom-1", result.MatchedItem.ID, "seed %d", i)
	}
}

func TestSelectPicksHighestScoringPartner(t *testing.T) {
	s := newTestSelector()
	items := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, []string{"red"}, nil),
		wardrobeItem("bottom-weak", models.CategoryBottoms, []string{"chartreuse"}, nil),
		wardrobeItem("bottom-strong", models.CategoryBottoms, []string{"green"}, nil),
	}

	result, err := s.Select(items, "top-1")
	require.NoError(t, err)
	assert.Equal(t, "bottom-strong", result.MatchedItem.ID)
}

func TestSelectUnknownExcludeIDStillMatches(t *testing.T) {
	s := newTestSelector()
	items := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, []string{"red"}, nil),
		wardrobeItem("bottom-1", models.CategoryBottoms, []string{"green"}, nil),
	}

	result, err := s.Select(items, "missing")
	require.NoError(t, err)
	assert.NotEqual(t, result.CurrentItem.ID, result.MatchedItem.ID)
}

func TestSelectSkipsExpiredItems(t *testing.T) {
	s := newTestSelector()
	past := time.Now().UTC().Add(-time.Hour)

	expired := wardrobeItem("bottom-old", models.CategoryBottoms, []string{"green"}, nil)
	expired.ExpiresAt = &past
	items := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, []string{"red"}, nil),
		expired,
		wardrobeItem("bottom-1", models.CategoryBottoms, []string{"chartreuse"}, nil),
	}

	result, err := s.Select(items, "top-1")
	require.NoError(t, err)
	assert.Equal(t, "bottom-1", result.MatchedItem.ID, "expired rows never win a pairing")

	// With only the expired item left as a partner the wardrobe is too small.
	_, err = s.Select([]models.ClothingItem{items[0], expired}, "")
	require.ErrorIs(t, err, ErrNeedMoreItems)
}

func TestSelectOccasionPrecedence(t *testing.T) {
	s := newTestSelector()

	formal := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, nil, []string{"formal", "casual"}),
		wardrobeItem("bottom-1", models.CategoryBottoms, nil, []string{"casual"}),
	}
	result, err := s.Select(formal, "top-1")
	require.NoError(t, err)
	assert.Contains(t, occasionsFormal, result.Occasion)

	business := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, nil, []string{"professional"}),
		wardrobeItem("bottom-1", models.CategoryBottoms, nil, []string{"casual"}),
	}
	result, err = s.Select(business, "top-1")
	require.NoError(t, err)
	assert.Contains(t, occasionsBusiness, result.Occasion)

	plain := []models.ClothingItem{
		wardrobeItem("top-1", models.CategoryTops, nil, nil),
		wardrobeItem("bottom-1", models.CategoryBottoms, nil, nil),
	}
	result, err = s.Select(plain, "top-1")
	require.NoError(t, err)
	assert.Equal(t, "Everyday Wear", result.Occasion)
}
