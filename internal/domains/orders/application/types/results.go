package types

import "github.com/Apurer/marketplace-api/internal/domains/orders/domain"

// SupplierStatusResult reports the supplier-derived status of an order.
type SupplierStatusResult struct {
	OrderID     int64
	ShopID      int64
	Status      domain.Status
	OrderStatus domain.Status
	// Updated counts the items touched by a status change; zero for reads.
	Updated int
}
