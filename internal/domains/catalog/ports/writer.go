package ports

import (
	"context"

	"github.com/Apurer/marketplace-api/internal/domains/catalog/domain"
)

// Writer applies a validated price list for the supplier account. It upserts the shop the
// account owns, the categories, the products and the shop's offers in one unit of work.
type Writer interface {
	ApplyPriceList(ctx context.Context, ownerID int64, list domain.PriceList) (*domain.ImportResult, error)
}
