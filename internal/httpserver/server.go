package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-catalog/internal/db"
)

// storeCheck probes the recommendation store. A nil check means the API runs
// without one.
type storeCheck func(ctx context.Context) error

// Server serves the storefront catalog API.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New builds a Server. pool may be nil, in which case personalized
// recommendations and interaction tracking are disabled.
func New(addr string, logger *log.Logger, pool *pgxpool.Pool, deps Deps) (*Server, error) {
	var check storeCheck
	if pool != nil {
		check = func(ctx context.Context) error { return db.Check(ctx, pool) }
	}
	router, err := buildRouter(logger, check, deps)
	if err != nil {
		return nil, err
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
		},
		logger: logger,
	}, nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type readiness struct {
	Status              string `json:"status"`
	Catalog             string `json:"catalog"`
	RecommendationStore string `json:"recommendation_store"`
	Reason              string `json:"reason,omitempty"`
}

// readyHandler reports ready only when the recommendation store answers.
// The catalog is stateless and always reported as ok.
func readyHandler(check storeCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := readiness{Status: "ready", Catalog: "ok", RecommendationStore: "ok"}
		switch {
		case check == nil:
			out.Status, out.RecommendationStore = "unavailable", "disabled"
			out.Reason = "recommendation store not configured"
		default:
			if err := check(c.Request.Context()); err != nil {
				out.Status, out.RecommendationStore = "unavailable", "unreachable"
				out.Reason = err.Error()
			}
		}
		code := http.StatusOK
		if out.Status != "ready" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, out)
	}
}
