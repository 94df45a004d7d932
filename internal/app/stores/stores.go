// Package stores selects the persistence adapters shared by every process.
package stores

import (
	"context"
	"fmt"
	"log/slog"

	catalogports "github.com/Apurer/marketplace-api/internal/domains/catalog/ports"
	ordersmemory "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/persistence/postgres"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
	"github.com/Apurer/marketplace-api/internal/platform/migrations"
	platformpostgres "github.com/Apurer/marketplace-api/internal/platform/postgres"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Stores bundles the order, catalog and contact adapters over one backend.
type Stores struct {
	Backend   string
	Orders    ports.Repository
	Catalog   ports.CatalogProvider
	Contacts  ports.ContactStore
	Suppliers ports.SupplierDirectory
	PriceList catalogports.Writer

	// Idempotency remembers confirmation keys.
	Idempotency ports.IdempotencyStore
}

// Build uses PostgreSQL when dsn connects and falls back to the in-memory store otherwise.
// A failed migration is an error: the database is reachable but unusable.
func Build(ctx context.Context, dsn string, logger *slog.Logger) (*Stores, func(), error) {
	db, cleanup := platformpostgres.Open(ctx, dsn, logger)
	if db == nil {
		return Memory(ordersmemory.NewStore()), cleanup, nil
	}
	if err := migrations.Run(db); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("migrate marketplace schema: %w", err)
	}
	catalog := orderspostgres.NewCatalog(db)
	return &Stores{
		Backend:   BackendPostgres,
		Orders:    orderspostgres.NewRepository(db),
		Catalog:   catalog,
		Contacts:  orderspostgres.NewContacts(db),
		Suppliers: catalog,
		PriceList: catalog,

		Idempotency: orderspostgres.NewIdempotencyStore(db),
	}, cleanup, nil
}

// Memory wires every port to one in-memory store.
func Memory(store *ordersmemory.Store) *Stores {
	return &Stores{
		Backend:   BackendMemory,
		Orders:    store,
		Catalog:   store,
		Contacts:  store.Contacts(),
		Suppliers: store,
		PriceList: store,

		Idempotency: ordersmemory.NewIdempotencyStore(),
	}
}
