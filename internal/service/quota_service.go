package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/stylistiq/wardrobe-api/internal/models"
	appErrors "github.com/stylistiq/wardrobe-api/pkg/errors"
)

type quotaItemCounter interface {
	CountActive(ctx context.Context, owner models.Principal, category models.Category) (int, error)
}

// QuotaService computes per-category usage against the free-tier upload cap.
// A refusal is reported as data (Allowed=false with Used/Limit for display),
// never as an error.
type QuotaService struct {
	items  quotaItemCounter
	logger *zap.Logger
	cap    int
}

// NewQuotaService constructs a quota service with the configured cap.
func NewQuotaService(items quotaItemCounter, logger *zap.Logger, cap int) *QuotaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cap <= 0 {
		cap = 2
	}
	return &QuotaService{items: items, logger: logger, cap: cap}
}

// Cap returns the configured per-category item limit.
func (s *QuotaService) Cap() int {
	return s.cap
}

// Check reports whether the principal may upload another item in the
// category. Verified clients bypass the cap entirely; their Used stays 0
// without hitting the database, mirroring the original site's shortcut.
func (s *QuotaService) Check(ctx context.Context, principal models.Principal, category models.Category) (models.QuotaStatus, error) {
	if principal.Unlimited {
		return models.QuotaStatus{
			Allowed:   true,
			Used:      0,
			Unlimited: true,
			Category:  category,
		}, nil
	}

	used, err := s.items.CountActive(ctx, principal, category)
	if err != nil {
		return models.QuotaStatus{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count wardrobe items")
	}

	return models.QuotaStatus{
		Allowed:  used < s.cap,
		Used:     used,
		Limit:    s.cap,
		Category: category,
	}, nil
}
