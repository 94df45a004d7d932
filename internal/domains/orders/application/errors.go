package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

var (
	// ErrValidation signals malformed or contradictory input.
	ErrValidation = errors.New("invalid order input")
	// ErrNotFound signals a referenced entity is absent or not owned by the caller.
	ErrNotFound            = errors.New("not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrNoPendingOrder      = errors.New("no order awaiting confirmation")
	ErrSupplierUnavailable = errors.New("supplier is not accepting orders")
	// ErrNotSupplier is returned to accounts that own no shop.
	ErrNotSupplier  = fmt.Errorf("%w: account owns no shop", ErrNotFound)
	ErrContactInUse = errors.New("contact is referenced by an order")
	// ErrIdempotencyConflict rejects a key reused with a different contact selector.
	ErrIdempotencyConflict = fmt.Errorf("%w: key reused for a different confirmation", ports.ErrIdempotencyConflict)
)

// ValidationError carries the reason and, when known, per-field problems.
type ValidationError struct {
	Reason string
	Fields domain.FieldErrors
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// SupplierUnavailableError identifies the offer and shop that refused the operation.
type SupplierUnavailableError struct {
	ItemID   int64
	OfferID  int64
	ShopID   int64
	ShopName string
}

func (e *SupplierUnavailableError) Error() string {
	if e.ItemID != 0 {
		return fmt.Sprintf("%s: shop %d (%s) for item %d", ErrSupplierUnavailable, e.ShopID, e.ShopName, e.ItemID)
	}
	return fmt.Sprintf("%s: shop %d (%s) for offer %d", ErrSupplierUnavailable, e.ShopID, e.ShopName, e.OfferID)
}

func (e *SupplierUnavailableError) Unwrap() error { return ErrSupplierUnavailable }

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}

func notFound(resource string, id int64, err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return err
	}
	if errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidBuyer) ||
		errors.Is(err, domain.ErrSupplierStatus) ||
		errors.Is(err, domain.ErrStatusRegression) ||
		errors.Is(err, domain.ErrContactRequired) ||
		errors.Is(err, domain.ErrOfferShopRequired) ||
		errors.Is(err, domain.ErrInvalidContact) {
		out := &ValidationError{Err: err}
		var fields domain.FieldErrors
		if errors.As(err, &fields) {
			out.Fields = fields
		}
		return out
	}
	if errors.Is(err, domain.ErrEmptyCart) {
		return fmt.Errorf("%w: %w", ErrEmptyCart, err)
	}
	if errors.Is(err, domain.ErrNotPending) {
		return fmt.Errorf("%w: %w", ErrNoPendingOrder, err)
	}
	return err
}
