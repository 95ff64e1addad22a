package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylistiq/wardrobe-api/internal/models"
)

type mockItemCounter struct {
	counts  map[models.Category]int
	err     error
	queried []models.Category
}

func (m *mockItemCounter) CountActive(ctx context.Context, owner models.Principal, category models.Category) (int, error) {
	m.queried = append(m.queried, category)
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[category], nil
}

func TestQuotaCheckAllowsBelowCap(t *testing.T) {
	counter := &mockItemCounter{counts: map[models.Category]int{models.CategoryTops: 1}}
	svc := NewQuotaService(counter, nil, 2)

	status, err := svc.Check(context.Background(), models.AnonymousPrincipal("anon_1_abcdefghijklmnop"), models.CategoryTops)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 1, status.Used)
	assert.Equal(t, 2, status.Limit)
	assert.False(t, status.Unlimited)
}

func TestQuotaCheckDeniesAtCap(t *testing.T) {
	counter := &mockItemCounter{counts: map[models.Category]int{models.CategoryShoes: 2}}
	svc := NewQuotaService(counter, nil, 2)

	status, err := svc.Check(context.Background(), models.RegisteredPrincipal("user-1", false), models.CategoryShoes)
	require.NoError(t, err)
	assert.False(t, status.Allowed)
	assert.Equal(t, 2, status.Used)
	assert.Equal(t, 2, status.Limit)
}

func TestQuotaCheckIsPerCategory(t *testing.T) {
	counter := &mockItemCounter{counts: map[models.Category]int{
		models.CategoryTops:    2,
		models.CategoryBottoms: 0,
	}}
	svc := NewQuotaService(counter, nil, 2)
	principal := models.AnonymousPrincipal("anon_1_abcdefghijklmnop")

	tops, err := svc.Check(context.Background(), principal, models.CategoryTops)
	require.NoError(t, err)
	assert.False(t, tops.Allowed)

	bottoms, err := svc.Check(context.Background(), principal, models.CategoryBottoms)
	require.NoError(t, err)
	assert.True(t, bottoms.Allowed)
}

func TestQuotaCheckVerifiedBypassSkipsCount(t *testing.T) {
	counter := &mockItemCounter{counts: map[models.Category]int{models.CategoryTops: 99}}
	svc := NewQuotaService(counter, nil, 2)

	status, err := svc.Check(context.Background(), models.RegisteredPrincipal("user-1", true), models.CategoryTops)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.True(t, status.Unlimited)
	assert.Equal(t, 0, status.Used)
	assert.Empty(t, counter.queried, "verified clients must not trigger a count query")
}

func TestQuotaCheckPropagatesCountErrors(t *testing.T) {
	counter := &mockItemCounter{err: errors.New("db down")}
	svc := NewQuotaService(counter, nil, 2)

	_, err := svc.Check(context.Background(), models.RegisteredPrincipal("user-1", false), models.CategoryTops)
	assert.Error(t, err)
}

func TestQuotaCapDefaults(t *testing.T) {
	svc := NewQuotaService(&mockItemCounter{}, nil, 0)
	assert.Equal(t, 2, svc.Cap())
}
