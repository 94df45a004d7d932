package domain

import "time"

// Shop is the supplier entity; a supplier account owns zero or one shop.
type Shop struct {
	ID              int64
	OwnerID         int64
	Name            string
	URL             string
	Categories      []string
	AcceptingOrders bool
}

// Offer is the catalog view of a purchasable listing at lookup time.
type Offer struct {
	OfferRef
	Stock     int
	Accepting bool
}

// SupplierOrder is an order projected onto one supplier: its items, its total, its status.
type SupplierOrder struct {
	OrderID     int64
	BuyerID     int64
	OrderStatus Status
	CreatedAt   time.Time
	Contact     *Contact
	ShopID      int64
	Items       []*OrderItem
	Total       Money
	Status      Status
}

// ProjectForSupplier restricts the order to the shop's items. ok is false when the
// shop has no items or the order is still a cart.
func ProjectForSupplier(order *Order, shopID int64) (*SupplierOrder, bool) {
	if order == nil || order.Status == StatusCart {
		return nil, false
	}
	items := order.ItemsForShop(shopID)
	if len(items) == 0 {
		return nil, false
	}
	copied := make([]*OrderItem, 0, len(items))
	for _, item := range items {
		clone := *item
		copied = append(copied, &clone)
	}
	view := &SupplierOrder{
		OrderID:     order.ID,
		BuyerID:     order.BuyerID,
		OrderStatus: order.Status,
		CreatedAt:   order.CreatedAt,
		ShopID:      shopID,
		Items:       copied,
		Total:       SumItems(copied),
		Status:      SupplierStatus(copied),
	}
	if order.Contact != nil {
		contact := *order.Contact
		view.Contact = &contact
	}
	return view, true
}
