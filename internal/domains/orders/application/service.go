package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	ordertypes "github.com/Apurer/marketplace-api/internal/domains/orders/application/types"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

// cartAttempts bounds retries after losing a concurrent cart creation.
const cartAttempts = 2

// Service orchestrates the cart, the order state machine and the supplier fulfillment view.
type Service struct {
	repo       ports.Repository
	catalog    ports.CatalogProvider
	contacts   ports.ContactStore
	suppliers  ports.SupplierDirectory
	dispatcher ports.NotificationDispatcher
	idempotent ports.IdempotencyStore
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithNotificationDispatcher sets where confirmation notifications are enqueued.
func WithNotificationDispatcher(d ports.NotificationDispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
	}
}

// WithIdempotencyStore enables Idempotency-Key replay for order confirmation.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotent = store
	}
}

// WithLogger injects the logger used for swallowed notification failures and domain events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the orders service with its collaborators.
func NewService(repo ports.Repository, catalog ports.CatalogProvider, contacts ports.ContactStore, suppliers ports.SupplierDirectory, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		catalog:   catalog,
		contacts:  contacts,
		suppliers: suppliers,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// GetCart returns the buyer's cart, creating it when absent.
func (s *Service) GetCart(ctx context.Context, buyerID int64) (*domain.Order, error) {
	var cart *domain.Order
	err := s.withCart(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		cart, err = s.cartFor(ctx, tx, buyerID)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return cart.Clone(), nil
}

// AddCartItem adds quantity of an offer to the cart, merging with an existing line for the same offer.
func (s *Service) AddCartItem(ctx context.Context, input ordertypes.AddCartItemInput) (*domain.OrderItem, error) {
	if input.Quantity < 1 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	offer, err := s.catalog.GetOffer(ctx, input.OfferID)
	if err != nil {
		return nil, notFound("offer", input.OfferID, err)
	}
	if !offer.Accepting {
		return nil, &SupplierUnavailableError{OfferID: offer.OfferID, ShopID: offer.ShopID, ShopName: offer.ShopName}
	}

	var added domain.OrderItem
	err = s.withCart(ctx, func(ctx context.Context, tx ports.Tx) error {
		cart, err := s.cartFor(ctx, tx, input.BuyerID)
		if err != nil {
			return err
		}
		item, err := cart.AddOrMerge(offer.OfferRef, input.Quantity, s.now())
		if err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, cart); err != nil {
			return err
		}
		added = *item
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &added, nil
}

// RemoveCartItem deletes a line from the buyer's current cart. The cart stays even when emptied.
func (s *Service) RemoveCartItem(ctx context.Context, input ordertypes.RemoveCartItemInput) error {
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		cart, err := tx.FindCart(ctx, input.BuyerID)
		if err != nil {
			return notFound("cart item", input.ItemID, err)
		}
		if _, err := cart.RemoveItem(input.ItemID, s.now()); err != nil {
			if errors.Is(err, domain.ErrItemNotFound) {
				return &NotFoundError{Resource: "cart item", ID: input.ItemID}
			}
			return err
		}
		if err := tx.DeleteItem(ctx, cart.ID, input.ItemID); err != nil {
			return notFound("cart item", input.ItemID, err)
		}
		return tx.SaveOrder(ctx, cart)
	})
	return mapError(err)
}

// FinalizeCart turns a non-empty cart into a new order.
func (s *Service) FinalizeCart(ctx context.Context, buyerID int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		cart, err := tx.FindCart(ctx, buyerID)
		if errors.Is(err, ports.ErrNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if err := cart.Finalize(s.now()); err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, cart); err != nil {
			return err
		}
		order = cart
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, order)
	return order.Clone(), nil
}

// ConfirmOrder attaches a contact to the buyer's latest new order and confirms it together
// with every item, provided all suppliers still accept orders.
func (s *Service) ConfirmOrder(ctx context.Context, input ordertypes.ConfirmOrderInput) (*domain.Order, error) {
	if (input.ContactID == nil) == (input.Contact == nil) {
		return nil, invalid("exactly one of contact_id or contact must be supplied")
	}
	var fields domain.ContactFields
	if input.Contact != nil {
		fields = input.Contact.Normalize()
		if err := fields.Validate(); err != nil {
			return nil, mapError(err)
		}
	}

	replayed, fingerprint, err := s.replayConfirmation(ctx, input)
	if err != nil || replayed != nil {
		return replayed, err
	}

	var order *domain.Order
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		pending, err := tx.LatestNew(ctx, input.BuyerID)
		if errors.Is(err, ports.ErrNotFound) {
			return ErrNoPendingOrder
		}
		if err != nil {
			return err
		}

		var contact *domain.Contact
		if input.ContactID != nil {
			contact, err = tx.Contacts().Get(ctx, *input.ContactID, input.BuyerID)
			if err != nil {
				return notFound("contact", *input.ContactID, err)
			}
		}

		accepting, err := tx.SupplierAcceptance(ctx, pending.ShopIDs())
		if err != nil {
			return err
		}
		for _, item := range pending.Items {
			if !accepting[item.Offer.ShopID] {
				return &SupplierUnavailableError{
					ItemID:   item.ID,
					OfferID:  item.Offer.OfferID,
					ShopID:   item.Offer.ShopID,
					ShopName: item.Offer.ShopName,
				}
			}
		}

		if contact == nil {
			contact, err = tx.Contacts().Create(ctx, input.BuyerID, fields)
			if err != nil {
				return err
			}
		}
		if err := pending.Confirm(contact, s.now()); err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, pending); err != nil {
			return err
		}
		order = pending
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.rememberConfirmation(ctx, input, fingerprint, order.ID)
	s.publish(ctx, order)
	s.notifyConfirmed(ctx, order.ID)
	return order.Clone(), nil
}

// ListBuyerOrders returns the buyer's orders past the cart phase, newest first.
func (s *Service) ListBuyerOrders(ctx context.Context, buyerID int64) ([]*domain.Order, error) {
	orders, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// GetBuyerOrder loads one of the buyer's non-cart orders.
func (s *Service) GetBuyerOrder(ctx context.Context, input ordertypes.BuyerOrderInput) (*domain.Order, error) {
	order, err := s.repo.GetForBuyer(ctx, input.BuyerID, input.OrderID)
	if err != nil {
		return nil, notFound("order", input.OrderID, err)
	}
	return order, nil
}

// withCart runs fn in a unit of work, retrying when a concurrent request created the cart first.
func (s *Service) withCart(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	var err error
	for attempt := 0; attempt < cartAttempts; attempt++ {
		err = s.repo.WithinTx(ctx, fn)
		if !errors.Is(err, ports.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Service) cartFor(ctx context.Context, tx ports.Tx, buyerID int64) (*domain.Order, error) {
	if buyerID <= 0 {
		return nil, domain.ErrInvalidBuyer
	}
	cart, err := tx.FindCart(ctx, buyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	return tx.CreateCart(ctx, buyerID, s.now())
}

func (s *Service) notifyConfirmed(ctx context.Context, orderID int64) {
	if s.dispatcher == nil {
		return
	}
	for _, kind := range []ports.NotificationKind{ports.NotificationBuyerConfirmation, ports.NotificationAdminInvoice} {
		if err := s.dispatcher.Enqueue(ctx, ports.Notification{Kind: kind, OrderID: orderID}); err != nil {
			s.logger.WarnContext(ctx, "notification enqueue failed",
				slog.Int64("order.id", orderID),
				slog.String("notification.kind", string(kind)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *Service) publish(ctx context.Context, order *domain.Order) {
	for _, event := range order.Events() {
		s.logger.InfoContext(ctx, "domain event",
			slog.String("event", event.EventName()),
			slog.Int64("order.id", order.ID),
			slog.Time("occurred_at", event.OccurredAt()),
		)
	}
	order.ClearEvents()
}

var _ ports.Service = (*Service)(nil)
