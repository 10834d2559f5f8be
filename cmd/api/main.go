package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/config"
	"storefront-catalog/internal/db"
	"storefront-catalog/internal/httpserver"
	recrepo "storefront-catalog/internal/repository/recommendation"
	interactionsvc "storefront-catalog/internal/service/interaction"
	recommendationsvc "storefront-catalog/internal/service/recommendation"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	aggregator, err := catalog.New(
		catalog.DefaultSources(cfg.Upstream.PrimaryURL, cfg.Upstream.SecondaryURL),
		catalog.Options{Timeout: cfg.Upstream.Timeout, RPS: cfg.Upstream.RPS, Burst: cfg.Upstream.Burst},
		logger,
	)
	if err != nil {
		logger.Fatalf("init catalog: %v", err)
	}

	ctx := context.Background()
	var dbpool *pgxpool.Pool
	deps := httpserver.Deps{
		Catalog:     aggregator,
		CORSOrigins: cfg.CORSOrigins,
		JWTSecret:   cfg.JWTSecret,
	}

	dbpool, err = db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		// Catalog and fallback recommendations keep working without the store.
		logger.Printf("connect to db: %v; serving without personalized recommendations", err)
		deps.Recommendations = recommendationsvc.New(nil, aggregator, logger)
	} else {
		defer dbpool.Close()
		repo := recrepo.NewPostgres(dbpool, logger)
		deps.Recommendations = recommendationsvc.New(repo, aggregator, logger)
		deps.Interactions = interactionsvc.New(repo, aggregator, logger)
	}
	if cfg.JWTSecret == "" {
		logger.Printf("AUTH_JWT_SECRET not set; all requests are anonymous")
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
