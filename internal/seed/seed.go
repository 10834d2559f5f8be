package seed

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-catalog/internal/domain"
	recrepo "storefront-catalog/internal/repository/recommendation"
)

const demoUserPrefix = "demo-"

type interactionSeed struct {
	User      string
	ProductID int
	Kind      string
	Category  string
	Age       time.Duration
}

// Interactions returns the demo history; product ids match the public
// catalogs (secondary ids carry the 1000 offset).
func Interactions(now time.Time) []domain.Interaction {
	seeds := []interactionSeed{
		{User: "alice", ProductID: 9, Kind: domain.InteractionView, Category: "electronics", Age: 72 * time.Hour},
		{User: "alice", ProductID: 10, Kind: domain.InteractionPurchase, Category: "electronics", Age: 70 * time.Hour},
		{User: "alice", ProductID: 1001, Kind: domain.InteractionView, Category: "beauty", Age: 48 * time.Hour},
		{User: "bob", ProductID: 10, Kind: domain.InteractionPurchase, Category: "electronics", Age: 40 * time.Hour},
		{User: "bob", ProductID: 11, Kind: domain.InteractionCartAdd, Category: "electronics", Age: 39 * time.Hour},
		{User: "bob", ProductID: 12, Kind: domain.InteractionView, Category: "electronics", Age: 38 * time.Hour},
		{User: "carol", ProductID: 1002, Kind: domain.InteractionPurchase, Category: "beauty", Age: 30 * time.Hour},
		{User: "carol", ProductID: 1003, Kind: domain.InteractionCartAdd, Category: "beauty", Age: 29 * time.Hour},
		{User: "carol", ProductID: 5, Kind: domain.InteractionView, Category: "jewelery", Age: 20 * time.Hour},
		{User: "dave", ProductID: 6, Kind: domain.InteractionPurchase, Category: "jewelery", Age: 10 * time.Hour},
		{User: "dave", ProductID: 1, Kind: domain.InteractionView, Category: "men's clothing", Age: 2 * time.Hour},
	}
	out := make([]domain.Interaction, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, domain.Interaction{
			UserID:          demoUserPrefix + s.User,
			ProductID:       s.ProductID,
			InteractionType: s.Kind,
			Category:        s.Category,
			CreatedAt:       now.Add(-s.Age).UTC(),
		})
	}
	return out
}

// Apply replaces the demo users' interaction history so repeated runs leave
// the same data behind.
func Apply(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	query, args, err := sq.Delete("user_interactions").
		Where(sq.Like{"user_id": demoUserPrefix + "%"}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}
	if _, err := pool.Exec(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("clear demo interactions: %w", err)
	}

	repo := recrepo.NewPostgres(pool, nil)
	events := Interactions(time.Now())
	for _, e := range events {
		if err := repo.RecordInteraction(ctx, e); err != nil {
			return 0, fmt.Errorf("insert interaction %s/%d: %w", e.UserID, e.ProductID, err)
		}
	}
	return len(events), nil
}
