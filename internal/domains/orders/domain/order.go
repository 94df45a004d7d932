package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Status enumerates order and line-item progression.
type Status string

const (
	StatusCart      Status = "cart"
	StatusNew       Status = "new"
	StatusConfirmed Status = "confirmed"
	StatusDone      Status = "done"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidBuyer      = errors.New("buyer id must be greater than zero")
	ErrItemNotFound      = errors.New("order item not found")
	ErrEmptyCart         = errors.New("cart has no items")
	ErrNotCart           = errors.New("order is not a cart")
	ErrNotPending        = errors.New("order is not awaiting confirmation")
	ErrOrderIsCart       = errors.New("order is still a cart")
	ErrShopHasNoItems    = errors.New("shop has no items in order")
	ErrStatusRegression  = errors.New("status cannot move backwards")
	ErrContactRequired   = errors.New("delivery contact is required")
	ErrSupplierStatus    = errors.New("supplier status must be confirmed or done")
	ErrOfferShopRequired = errors.New("offer must reference a shop")

	ErrQuantityLimit = fmt.Errorf("%w: line quantity exceeds %d", ErrInvalidQuantity, MaxItemQuantity)
	ErrTotalLimit    = fmt.Errorf("%w: order total would overflow", ErrInvalidQuantity)
)

// MaxItemQuantity bounds the quantity of a single line.
const MaxItemQuantity = math.MaxInt32

// Valid reports whether the status is one of the known lifecycle values.
func (s Status) Valid() bool {
	return s.rank() >= 0
}

func (s Status) rank() int {
	switch s {
	case StatusCart:
		return 0
	case StatusNew:
		return 1
	case StatusConfirmed:
		return 2
	case StatusDone:
		return 3
	default:
		return -1
	}
}

// ParseSupplierStatus accepts only the values a supplier may set on its items.
func ParseSupplierStatus(raw string) (Status, error) {
	status := Status(raw)
	switch status {
	case StatusConfirmed, StatusDone:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrSupplierStatus, raw)
	}
}

// Money is an amount in minor currency units.
type Money int64

func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/100, int64(m)%100)
}

// OfferRef snapshots the supplier offer a line item was created from.
type OfferRef struct {
	OfferID     int64
	ProductID   int64
	ProductName string
	ShopID      int64
	ShopName    string
	UnitPrice   Money
}

// OrderItem is one (offer, quantity, status) entry of an order.
type OrderItem struct {
	ID       int64
	OrderID  int64
	Offer    OfferRef
	Quantity int
	Status   Status
}

// Total is unit price times quantity.
func (i *OrderItem) Total() Money {
	return i.Offer.UnitPrice * Money(i.Quantity)
}

// Order models the buyer order aggregate including its cart phase.
type Order struct {
	ID        int64
	BuyerID   int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	ContactID *int64
	Contact   *Contact
	Items     []*OrderItem

	events []Event
}

// NewCart builds an empty cart order for the buyer.
func NewCart(buyerID int64, now time.Time) (*Order, error) {
	if buyerID <= 0 {
		return nil, ErrInvalidBuyer
	}
	return &Order{
		BuyerID:   buyerID,
		Status:    StatusCart,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Total sums unit price times quantity across all items.
func (o *Order) Total() Money {
	return SumItems(o.Items)
}

// SumItems totals an arbitrary item subset.
func SumItems(items []*OrderItem) Money {
	var total Money
	for _, item := range items {
		total += item.Total()
	}
	return total
}

// FindItem returns the item with the given id, or nil.
func (o *Order) FindItem(itemID int64) *OrderItem {
	for _, item := range o.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// FindItemByOffer returns the item referencing the offer, or nil.
func (o *Order) FindItemByOffer(offerID int64) *OrderItem {
	for _, item := range o.Items {
		if item.Offer.OfferID == offerID {
			return item
		}
	}
	return nil
}

// AddOrMerge adds quantity of the offer to the cart, merging with an existing line.
func (o *Order) AddOrMerge(offer OfferRef, quantity int, now time.Time) (*OrderItem, error) {
	if o.Status != StatusCart {
		return nil, ErrNotCart
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if offer.ShopID <= 0 {
		return nil, ErrOfferShopRequired
	}
	existing := o.FindItemByOffer(offer.OfferID)
	current := 0
	if existing != nil {
		current = existing.Quantity
	}
	if quantity > MaxItemQuantity-current {
		return nil, ErrQuantityLimit
	}
	if offer.UnitPrice > 0 && Money(quantity) > (math.MaxInt64-o.Total())/offer.UnitPrice {
		return nil, ErrTotalLimit
	}
	o.UpdatedAt = now
	if existing != nil {
		existing.Quantity += quantity
		return existing, nil
	}
	item := &OrderItem{
		OrderID:  o.ID,
		Offer:    offer,
		Quantity: quantity,
		Status:   StatusCart,
	}
	o.Items = append(o.Items, item)
	return item, nil
}

// RemoveItem drops a cart line. The order status is left untouched even when empty.
func (o *Order) RemoveItem(itemID int64, now time.Time) (*OrderItem, error) {
	if o.Status != StatusCart {
		return nil, ErrNotCart
	}
	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.UpdatedAt = now
			return item, nil
		}
	}
	return nil, ErrItemNotFound
}

// Finalize turns a non-empty cart into a new order. Items keep the cart status until confirmation.
func (o *Order) Finalize(now time.Time) error {
	if o.Status != StatusCart {
		return ErrNotCart
	}
	if len(o.Items) == 0 {
		return ErrEmptyCart
	}
	o.Status = StatusNew
	o.UpdatedAt = now
	o.record(OrderFinalized{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, BuyerID: o.BuyerID, Total: o.Total()})
	return nil
}

// ShopIDs lists the distinct suppliers with items in the order, ascending.
func (o *Order) ShopIDs() []int64 {
	seen := make(map[int64]struct{}, len(o.Items))
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.Offer.ShopID]; ok {
			continue
		}
		seen[item.Offer.ShopID] = struct{}{}
		ids = append(ids, item.Offer.ShopID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Confirm attaches the delivery contact and moves the order to confirmed. Items a supplier
// already advanced past confirmed keep their status.
func (o *Order) Confirm(contact *Contact, now time.Time) error {
	if o.Status != StatusNew {
		return ErrNotPending
	}
	if contact == nil || contact.ID <= 0 {
		return ErrContactRequired
	}
	id := contact.ID
	o.ContactID = &id
	clone := *contact
	o.Contact = &clone
	o.Status = StatusConfirmed
	for _, item := range o.Items {
		if item.Status.rank() < StatusConfirmed.rank() {
			item.Status = StatusConfirmed
		}
	}
	o.UpdatedAt = now
	o.record(OrderConfirmed{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, BuyerID: o.BuyerID, ContactID: id, ShopIDs: o.ShopIDs()})
	return nil
}

// ItemsForShop returns the subset of items belonging to one supplier.
func (o *Order) ItemsForShop(shopID int64) []*OrderItem {
	var items []*OrderItem
	for _, item := range o.Items {
		if item.Offer.ShopID == shopID {
			items = append(items, item)
		}
	}
	return items
}

// SetShopItemsStatus moves every item of the supplier to status and reconciles the order.
// It returns the number of items touched.
func (o *Order) SetShopItemsStatus(shopID int64, status Status, now time.Time) (int, error) {
	if status != StatusConfirmed && status != StatusDone {
		return 0, ErrSupplierStatus
	}
	if o.Status == StatusCart {
		return 0, ErrOrderIsCart
	}
	items := o.ItemsForShop(shopID)
	if len(items) == 0 {
		return 0, ErrShopHasNoItems
	}
	for _, item := range items {
		if item.Status.rank() > status.rank() {
			return 0, fmt.Errorf("%w: item %d is %s", ErrStatusRegression, item.ID, item.Status)
		}
	}
	for _, item := range items {
		item.Status = status
	}
	o.UpdatedAt = now
	o.record(SupplierItemsUpdated{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, ShopID: shopID, Status: status, Items: len(items)})
	o.ReconcileDone(now)
	return len(items), nil
}

// ReconcileDone advances the order to done once every item is done. It never moves the order back.
func (o *Order) ReconcileDone(now time.Time) bool {
	if o.Status == StatusDone || o.Status == StatusCart || len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if item.Status != StatusDone {
			return false
		}
	}
	o.Status = StatusDone
	o.UpdatedAt = now
	o.record(OrderCompleted{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, BuyerID: o.BuyerID})
	return true
}

// SupplierStatus derives the supplier sub-status: done iff every item is done.
func SupplierStatus(items []*OrderItem) Status {
	for _, item := range items {
		if item.Status != StatusDone {
			return StatusConfirmed
		}
	}
	return StatusDone
}

// Clone returns a deep copy without pending events.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.events = nil
	if o.ContactID != nil {
		id := *o.ContactID
		clone.ContactID = &id
	}
	if o.Contact != nil {
		contact := *o.Contact
		clone.Contact = &contact
	}
	clone.Items = make([]*OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		copied := *item
		clone.Items = append(clone.Items, &copied)
	}
	return &clone
}

// Events returns domain events raised since the last ClearEvents.
func (o *Order) Events() []Event {
	return append([]Event(nil), o.events...)
}

// ClearEvents drops recorded events.
func (o *Order) ClearEvents() {
	o.events = nil
}

func (o *Order) record(event Event) {
	o.events = append(o.events, event)
}

var _ AggregateWithEvents = (*Order)(nil)
