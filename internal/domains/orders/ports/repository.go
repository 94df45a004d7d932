package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict signals a uniqueness or referential constraint rejected the write.
	ErrConflict = errors.New("record conflict")
)

// Repository persists orders. Every mutation runs inside WithinTx, which executes fn as
// one atomic unit of work; implementations serialize units of work that touch the same
// order (row locks in Postgres, a store-wide mutex in memory).
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Get(ctx context.Context, orderID int64) (*domain.Order, error)
	// ListByBuyer returns the buyer's non-cart orders, newest first.
	ListByBuyer(ctx context.Context, buyerID int64) ([]*domain.Order, error)
	// GetForBuyer returns a non-cart order owned by the buyer.
	GetForBuyer(ctx context.Context, buyerID, orderID int64) (*domain.Order, error)
	// ListBySupplier returns non-cart orders holding at least one item of the shop, newest first.
	ListBySupplier(ctx context.Context, shopID int64) ([]*domain.Order, error)
	// GetForSupplier returns a non-cart order holding at least one item of the shop.
	GetForSupplier(ctx context.Context, shopID, orderID int64) (*domain.Order, error)
}

// Tx is the transactional view handed to a unit of work. Orders returned from it are
// locked until the unit of work ends.
type Tx interface {
	FindCart(ctx context.Context, buyerID int64) (*domain.Order, error)
	// CreateCart returns ErrConflict when the buyer already has a cart.
	CreateCart(ctx context.Context, buyerID int64, now time.Time) (*domain.Order, error)
	// LatestNew returns the most recently created order in status new.
	LatestNew(ctx context.Context, buyerID int64) (*domain.Order, error)
	GetForUpdate(ctx context.Context, orderID int64) (*domain.Order, error)
	// SaveOrder writes the order row and its items; items with a zero ID are inserted
	// and receive their identifiers in place.
	SaveOrder(ctx context.Context, order *domain.Order) error
	DeleteItem(ctx context.Context, orderID, itemID int64) error
	// SupplierAcceptance reads the accepting flag of each shop. The flags cannot change
	// until the unit of work ends.
	SupplierAcceptance(ctx context.Context, shopIDs []int64) (map[int64]bool, error)
	// Contacts exposes the contact store bound to this unit of work.
	Contacts() ContactStore
}
