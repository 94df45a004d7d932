package types

import "github.com/Apurer/marketplace-api/internal/domains/orders/domain"

// AddCartItemInput adds quantity of an offer to the buyer's cart.
type AddCartItemInput struct {
	BuyerID  int64
	OfferID  int64
	Quantity int
}

// RemoveCartItemInput drops one line from the buyer's cart.
type RemoveCartItemInput struct {
	BuyerID int64
	ItemID  int64
}

// ConfirmOrderInput selects the delivery contact for the pending order. Exactly one of
// ContactID and Contact must be set.
type ConfirmOrderInput struct {
	BuyerID   int64
	ContactID *int64
	Contact   *domain.ContactFields
	// IdempotencyKey, when set, makes a retried confirmation return the first result.
	IdempotencyKey string
}

// BuyerOrderInput identifies an order as seen by its buyer.
type BuyerOrderInput struct {
	BuyerID int64
	OrderID int64
}

// SupplierOrderInput identifies an order as seen by a supplier account.
type SupplierOrderInput struct {
	SupplierID int64
	OrderID    int64
}

// SetSupplierStatusInput moves every item of the supplier in the order to Status.
type SetSupplierStatusInput struct {
	SupplierID int64
	OrderID    int64
	Status     string
}

// SetAcceptingInput toggles whether the supplier's shop accepts orders.
type SetAcceptingInput struct {
	SupplierID int64
	Accepting  bool
}

// CreateContactInput registers a new delivery contact for the owner.
type CreateContactInput struct {
	OwnerID int64
	Fields  domain.ContactFields
}

// UpdateContactInput replaces the fields of an owned contact.
type UpdateContactInput struct {
	OwnerID   int64
	ContactID int64
	Fields    domain.ContactFields
}

// ContactIdentifier addresses one owned contact.
type ContactIdentifier struct {
	OwnerID   int64
	ContactID int64
}
