package ports

import (
	"context"

	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
)

// CatalogProvider resolves supplier offers by id.
type CatalogProvider interface {
	GetOffer(ctx context.Context, offerID int64) (*domain.Offer, error)
}

// ContactStore manages buyer-owned delivery contacts.
type ContactStore interface {
	// Get returns ErrNotFound when the contact does not exist or belongs to someone else.
	Get(ctx context.Context, contactID, ownerID int64) (*domain.Contact, error)
	Create(ctx context.Context, ownerID int64, fields domain.ContactFields) (*domain.Contact, error)
	List(ctx context.Context, ownerID int64) ([]*domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) (*domain.Contact, error)
	// Delete returns ErrConflict when an order references the contact.
	Delete(ctx context.Context, contactID, ownerID int64) error
}

// SupplierDirectory maps supplier accounts to the shop they own.
type SupplierDirectory interface {
	ShopByOwner(ctx context.Context, ownerID int64) (*domain.Shop, error)
	SetAccepting(ctx context.Context, shopID int64, accepting bool) (*domain.Shop, error)
}

// NotificationKind names a notification the confirmation flow emits.
type NotificationKind string

const (
	NotificationBuyerConfirmation NotificationKind = "buyer_confirmation"
	NotificationAdminInvoice      NotificationKind = "admin_invoice"
)

// Notification identifies a message to deliver about an order.
type Notification struct {
	Kind    NotificationKind
	OrderID int64
}

// NotificationDispatcher hands notifications to an asynchronous delivery channel.
// Enqueue must not wait for delivery.
type NotificationDispatcher interface {
	Enqueue(ctx context.Context, notification Notification) error
}
