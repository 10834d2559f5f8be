package recommendation

import (
	"context"
	"io"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"storefront-catalog/internal/domain"
)

const (
	DefaultLimit        = 8
	DefaultSimilarLimit = 4

	maxPerCategory   = 2
	similarPriceLow  = 0.7
	similarPriceHigh = 1.3
)

type hintSource interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]domain.Recommendation, error)
}

type catalog interface {
	FetchAllProducts(ctx context.Context, limit int) ([]domain.Product, error)
	FetchProductByID(ctx context.Context, id int) *domain.Product
}

// Service selects products to recommend. Every method degrades to an empty
// list instead of returning an error.
type Service struct {
	hints   hintSource
	catalog catalog
	logger  *log.Logger
}

// New builds a Service. hints may be nil, in which case only the fallback
// and similar-product selections produce results.
func New(hints hintSource, catalog catalog, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{hints: hints, catalog: catalog, logger: logger}
}

// GetRecommendations resolves the backend's personalized hints for userID to
// products, keeping hint order and dropping ids that no longer resolve.
func (s *Service) GetRecommendations(ctx context.Context, userID string, limit int) []domain.Product {
	limit = orDefault(limit, DefaultLimit)
	if s.hints == nil {
		return []domain.Product{}
	}
	hints, err := s.hints.ListForUser(ctx, userID, limit)
	if err != nil {
		s.logger.Printf("recommendation: hints user_id=%s error=%v", userID, err)
		return []domain.Product{}
	}
	if len(hints) == 0 {
		return []domain.Product{}
	}

	resolved := make([]*domain.Product, len(hints))
	var g errgroup.Group
	for i, h := range hints {
		i, h := i, h
		g.Go(func() error {
			resolved[i] = s.catalog.FetchProductByID(ctx, h.ProductID)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Product, 0, len(resolved))
	for _, p := range resolved {
		if p != nil {
			out = append(out, *p)
		}
	}
	s.logger.Printf("recommendation: user_id=%s hints=%d resolved=%d", userID, len(hints), len(out))
	return out
}

// GetFallbackRecommendations walks 2*limit catalog products in order and
// admits at most two per category until limit products are chosen.
func (s *Service) GetFallbackRecommendations(ctx context.Context, limit int) []domain.Product {
	limit = orDefault(limit, DefaultLimit)
	products, err := s.catalog.FetchAllProducts(ctx, limit*2)
	if err != nil {
		s.logger.Printf("recommendation: fallback fetch error=%v", err)
		return []domain.Product{}
	}
	return diversify(products, limit)
}

func diversify(products []domain.Product, limit int) []domain.Product {
	perCategory := make(map[string]int)
	out := make([]domain.Product, 0, limit)
	for _, p := range products {
		if len(out) >= limit {
			break
		}
		if perCategory[p.Category] >= maxPerCategory {
			continue
		}
		perCategory[p.Category]++
		out = append(out, p)
	}
	return out
}

// GetRecommendationsWithFallback prefers personalized recommendations and
// uses the diversity fallback for anonymous users or empty results.
func (s *Service) GetRecommendationsWithFallback(ctx context.Context, userID string, limit int) []domain.Product {
	if userID == "" {
		return s.GetFallbackRecommendations(ctx, limit)
	}
	personalized := s.GetRecommendations(ctx, userID, limit)
	if len(personalized) == 0 {
		return s.GetFallbackRecommendations(ctx, limit)
	}
	return personalized
}

// GetSimilarProducts returns same-category products priced within 30% of
// price, best rated first, excluding productID itself.
func (s *Service) GetSimilarProducts(ctx context.Context, productID int, category string, price float64, limit int) []domain.Product {
	limit = orDefault(limit, DefaultSimilarLimit)
	all, err := s.catalog.FetchAllProducts(ctx, 0)
	if err != nil {
		s.logger.Printf("recommendation: similar fetch product_id=%d error=%v", productID, err)
		return []domain.Product{}
	}
	return similar(all, productID, category, price, limit)
}

func similar(all []domain.Product, productID int, category string, price float64, limit int) []domain.Product {
	low, high := price*similarPriceLow, price*similarPriceHigh
	out := []domain.Product{}
	for _, p := range all {
		if p.ID == productID || p.Category != category {
			continue
		}
		if p.Price < low || p.Price > high {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating.Rate > out[j].Rating.Rate })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func orDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
