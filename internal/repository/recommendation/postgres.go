package recommendation

import (
	"context"
	"io"
	"log"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-catalog/internal/domain"
)

const (
	popularCategoriesLimit  = 5
	recentInteractionsLimit = 10
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Recommendation, error) {
	const q = `
SELECT product_id, score, COALESCE(reason, '')
FROM get_product_recommendations($1, $2)
`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		r.logger.Printf("recommendation repo: list user_id=%s error=%v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Recommendation
	for rows.Next() {
		var rec domain.Recommendation
		if err := rows.Scan(&rec.ProductID, &rec.Score, &rec.Reason); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("recommendation repo: list rows user_id=%s error=%v", userID, err)
		return nil, err
	}
	r.logger.Printf("recommendation repo: list user_id=%s count=%d", userID, len(result))
	return result, nil
}

func (r *postgresRepo) RecordInteraction(ctx context.Context, in domain.Interaction) error {
	insert := psql.Insert("user_interactions").
		Columns("user_id", "product_id", "interaction_type", "category")
	values := []interface{}{in.UserID, in.ProductID, in.InteractionType, in.Category}
	if !in.CreatedAt.IsZero() {
		insert = insert.Columns("created_at")
		values = append(values, in.CreatedAt)
	}
	query, args, err := insert.Values(values...).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		r.logger.Printf("recommendation repo: record user_id=%s product_id=%d error=%v", in.UserID, in.ProductID, err)
		return err
	}
	return nil
}

func (r *postgresRepo) Analytics(ctx context.Context) (*domain.Analytics, error) {
	var out domain.Analytics

	totals, args, err := psql.Select(
		"COUNT(DISTINCT user_id)",
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE interaction_type = 'view')",
		"COUNT(*) FILTER (WHERE interaction_type = 'cart_add')",
		"COUNT(*) FILTER (WHERE interaction_type = 'purchase')",
	).From("user_interactions").ToSql()
	if err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx, totals, args...).Scan(
		&out.TotalUsers, &out.TotalInteractions, &out.TotalViews, &out.TotalCartAdds, &out.TotalPurchases,
	); err != nil {
		r.logger.Printf("recommendation repo: analytics totals error=%v", err)
		return nil, err
	}

	popular, err := r.popularCategories(ctx)
	if err != nil {
		return nil, err
	}
	out.PopularCategories = popular

	recent, err := r.recentInteractions(ctx)
	if err != nil {
		return nil, err
	}
	out.RecentInteractions = recent
	return &out, nil
}

func (r *postgresRepo) popularCategories(ctx context.Context) ([]domain.CategoryCount, error) {
	query, args, err := psql.Select("category", "COUNT(*) AS cnt").
		From("user_interactions").
		Where(sq.NotEq{"category": ""}).
		GroupBy("category").
		OrderBy("cnt DESC", "category ASC").
		Limit(popularCategoriesLimit).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Printf("recommendation repo: popular categories error=%v", err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.CategoryCount{}
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *postgresRepo) recentInteractions(ctx context.Context) ([]domain.Interaction, error) {
	query, args, err := psql.Select("user_id", "product_id", "interaction_type", "category", "created_at").
		From("user_interactions").
		OrderBy("created_at DESC", "id DESC").
		Limit(recentInteractionsLimit).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Printf("recommendation repo: recent interactions error=%v", err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Interaction{}
	for rows.Next() {
		var in domain.Interaction
		if err := rows.Scan(&in.UserID, &in.ProductID, &in.InteractionType, &in.Category, &in.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, in)
	}
	return result, rows.Err()
}
