package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderFinalized is raised when a buyer turns the cart into a new order.
type OrderFinalized struct {
	BaseEvent
	OrderID int64
	BuyerID int64
	Total   Money
}

func (e OrderFinalized) EventName() string {
	return "orders.order.finalized"
}

// OrderConfirmed is raised once the buyer attached a contact and every supplier accepted.
type OrderConfirmed struct {
	BaseEvent
	OrderID   int64
	BuyerID   int64
	ContactID int64
	ShopIDs   []int64
}

func (e OrderConfirmed) EventName() string {
	return "orders.order.confirmed"
}

// SupplierItemsUpdated is raised when a supplier moves its items in an order.
type SupplierItemsUpdated struct {
	BaseEvent
	OrderID int64
	ShopID  int64
	Status  Status
	Items   int
}

func (e SupplierItemsUpdated) EventName() string {
	return "orders.supplier.items_updated"
}

// OrderCompleted is raised when the last item of an order reaches done.
type OrderCompleted struct {
	BaseEvent
	OrderID int64
	BuyerID int64
}

func (e OrderCompleted) EventName() string {
	return "orders.order.completed"
}

// AggregateWithEvents is implemented by aggregates that track domain events.
type AggregateWithEvents interface {
	Events() []Event
	ClearEvents()
}
