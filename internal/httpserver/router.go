package httpserver

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/metrics"
	interactionsvc "storefront-catalog/internal/service/interaction"
)

type catalogService interface {
	ListProducts(ctx context.Context, opts catalog.ListOptions) ([]domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
	FetchProductByID(ctx context.Context, id int) *domain.Product
	FetchAllCategories(ctx context.Context) ([]string, error)
}

type recommendationService interface {
	GetRecommendationsWithFallback(ctx context.Context, userID string, limit int) []domain.Product
	GetSimilarProducts(ctx context.Context, productID int, category string, price float64, limit int) []domain.Product
}

type interactionService interface {
	Record(ctx context.Context, userID string, in interactionsvc.RecordInput) (*domain.Interaction, error)
	Analytics(ctx context.Context) (*domain.Analytics, error)
}

// Deps groups the services the HTTP layer serves. Interactions may be nil
// when no database is configured.
type Deps struct {
	Catalog         catalogService
	Recommendations recommendationService
	Interactions    interactionService
	CORSOrigins     []string
	JWTSecret       string
}

type handlers struct {
	logger          *log.Logger
	catalog         catalogService
	recommendations recommendationService
	interactions    interactionService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, check storeCheck, deps Deps) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Recommendations == nil {
		return nil, errors.New("catalog and recommendation services are required")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	router.Use(metricsMiddleware())
	router.Use(userMiddleware(deps.JWTSecret))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(check))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := &handlers{
		logger:          logger,
		catalog:         deps.Catalog,
		recommendations: deps.Recommendations,
		interactions:    deps.Interactions,
	}

	router.GET("/products", h.listProducts)
	router.GET("/products/search", h.searchProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/products/:id/similar", h.similarProducts)
	router.GET("/categories", h.listCategories)
	router.GET("/recommendations", h.getRecommendations)
	router.POST("/interactions", h.recordInteraction)
	router.GET("/analytics", h.analytics)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
