package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	catalogapp "github.com/Apurer/marketplace-api/internal/domains/catalog/application"
	orderspostgres "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/persistence/postgres"
	"github.com/Apurer/marketplace-api/internal/platform/migrations"
	platformpostgres "github.com/Apurer/marketplace-api/internal/platform/postgres"
)

// catalog-import applies a supplier YAML price list to the marketplace database.
//
//	CATALOG_FILE=shop.yaml CATALOG_OWNER=7 POSTGRES_DSN=... catalog-import
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path := strings.TrimSpace(os.Getenv("CATALOG_FILE"))
	if path == "" {
		log.Fatal("CATALOG_FILE not set; nothing to import")
	}
	owner, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("CATALOG_OWNER")), 10, 64)
	if err != nil || owner <= 0 {
		log.Fatal("CATALOG_OWNER must be the supplier account id")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot import catalog")
	}
	if err := migrations.Run(db); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer file.Close()

	result, err := catalogapp.NewImporter(orderspostgres.NewCatalog(db), logger).Import(ctx, owner, file)
	if err != nil {
		log.Fatalf("catalog import failed: %v", err)
	}
	log.Printf("catalog import completed: shop %d (%s), %d categories, %d offers created, %d updated",
		result.ShopID, result.ShopName, result.Categories, result.Created, result.Updated)
}
