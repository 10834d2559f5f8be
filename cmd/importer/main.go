package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"storefront-catalog/internal/config"
	"storefront-catalog/internal/db"
	"storefront-catalog/internal/importer"
	recrepo "storefront-catalog/internal/repository/recommendation"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to interactions CSV (user_id,product_id,interaction_type[,category,created_at])")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, recrepo.NewPostgres(pool, nil))

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatalf("import failed after %d rows: %v", count, err)
	}

	fmt.Printf("Imported %d interactions in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
