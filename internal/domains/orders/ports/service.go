package ports

import (
	"context"

	ordertypes "github.com/Apurer/marketplace-api/internal/domains/orders/application/types"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
)

// Service defines the order use cases exposed to adapters (inbound/driving port).
type Service interface {
	GetCart(ctx context.Context, buyerID int64) (*domain.Order, error)
	AddCartItem(ctx context.Context, input ordertypes.AddCartItemInput) (*domain.OrderItem, error)
	RemoveCartItem(ctx context.Context, input ordertypes.RemoveCartItemInput) error
	FinalizeCart(ctx context.Context, buyerID int64) (*domain.Order, error)
	ConfirmOrder(ctx context.Context, input ordertypes.ConfirmOrderInput) (*domain.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID int64) ([]*domain.Order, error)
	GetBuyerOrder(ctx context.Context, input ordertypes.BuyerOrderInput) (*domain.Order, error)

	ListSupplierOrders(ctx context.Context, supplierID int64) ([]*domain.SupplierOrder, error)
	SupplierOrderStatus(ctx context.Context, input ordertypes.SupplierOrderInput) (*ordertypes.SupplierStatusResult, error)
	SetSupplierOrderStatus(ctx context.Context, input ordertypes.SetSupplierStatusInput) (*ordertypes.SupplierStatusResult, error)
	SetSupplierAccepting(ctx context.Context, input ordertypes.SetAcceptingInput) (*domain.Shop, error)

	ListContacts(ctx context.Context, ownerID int64) ([]*domain.Contact, error)
	CreateContact(ctx context.Context, input ordertypes.CreateContactInput) (*domain.Contact, error)
	UpdateContact(ctx context.Context, input ordertypes.UpdateContactInput) (*domain.Contact, error)
	DeleteContact(ctx context.Context, input ordertypes.ContactIdentifier) error
}
