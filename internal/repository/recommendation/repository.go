package recommendation

import (
	"context"

	"storefront-catalog/internal/domain"
)

type Repository interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]domain.Recommendation, error)
	RecordInteraction(ctx context.Context, in domain.Interaction) error
	Analytics(ctx context.Context) (*domain.Analytics, error)
}
