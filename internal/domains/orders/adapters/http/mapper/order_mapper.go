package mapper

import (
	"time"

	catalogdomain "github.com/Apurer/marketplace-api/internal/domains/catalog/domain"
	ordertypes "github.com/Apurer/marketplace-api/internal/domains/orders/application/types"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
)

// OrderItem is the transport shape of a line item. Money renders as a decimal string.
type OrderItem struct {
	ID          int64  `json:"id"`
	OfferID     int64  `json:"offerId"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	ShopID      int64  `json:"shopId"`
	ShopName    string `json:"shopName"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Total       string `json:"total"`
	Status      string `json:"status"`
}

// Contact is the transport shape of a delivery contact.
type Contact struct {
	ID        int64  `json:"id"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Street    string `json:"street"`
	House     string `json:"house"`
	Apartment string `json:"apartment,omitempty"`
}

// Order is the buyer view of a cart or order.
type Order struct {
	ID        int64       `json:"id"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Contact   *Contact    `json:"contact,omitempty"`
	Items     []OrderItem `json:"items"`
	Total     string      `json:"total"`
}

// SupplierOrder restricts an order to one shop's items.
type SupplierOrder struct {
	OrderID     int64       `json:"orderId"`
	BuyerID     int64       `json:"buyerId"`
	OrderStatus string      `json:"orderStatus"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	Contact     *Contact    `json:"contact,omitempty"`
	Items       []OrderItem `json:"items"`
	Total       string      `json:"total"`
}

// SupplierStatus reports a supplier status read or change.
type SupplierStatus struct {
	OrderID     int64  `json:"orderId"`
	ShopID      int64  `json:"shopId"`
	Status      string `json:"status"`
	OrderStatus string `json:"orderStatus"`
	Updated     *int   `json:"updated,omitempty"`
}

// Shop echoes the acceptance flag after a toggle.
type Shop struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	AcceptingOrders bool   `json:"acceptingOrders"`
}

// ImportResult summarizes a price-list import.
type ImportResult struct {
	ShopID     int64  `json:"shopId"`
	ShopName   string `json:"shopName"`
	Categories int    `json:"categories"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
}

// CartItemRequest is the body of POST /cart/items.
type CartItemRequest struct {
	OfferID  int64 `json:"offerId" binding:"required"`
	Quantity int   `json:"quantity"`
}

// ContactRequest is the body for creating or updating a contact.
type ContactRequest struct {
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Street    string `json:"street"`
	House     string `json:"house"`
	Apartment string `json:"apartment"`
}

// ConfirmRequest selects the delivery contact for the pending order.
type ConfirmRequest struct {
	ContactID *int64          `json:"contactId"`
	Contact   *ContactRequest `json:"contact"`
}

// StatusRequest is the body of POST /supplier/orders/:orderId/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AcceptingRequest is the body of POST /supplier/accepting.
type AcceptingRequest struct {
	Accepting *bool `json:"accepting" binding:"required"`
}

// ToContactFields converts a request body into domain contact fields.
func ToContactFields(req ContactRequest) domain.ContactFields {
	return domain.ContactFields{
		Phone:     req.Phone,
		City:      req.City,
		Street:    req.Street,
		House:     req.House,
		Apartment: req.Apartment,
	}
}

// ToConfirmInput builds the confirm use-case input for the buyer.
func ToConfirmInput(buyerID int64, req ConfirmRequest) ordertypes.ConfirmOrderInput {
	input := ordertypes.ConfirmOrderInput{BuyerID: buyerID, ContactID: req.ContactID}
	if req.Contact != nil {
		fields := ToContactFields(*req.Contact)
		input.Contact = &fields
	}
	return input
}

func FromItem(item *domain.OrderItem) OrderItem {
	return OrderItem{
		ID:          item.ID,
		OfferID:     item.Offer.OfferID,
		ProductID:   item.Offer.ProductID,
		ProductName: item.Offer.ProductName,
		ShopID:      item.Offer.ShopID,
		ShopName:    item.Offer.ShopName,
		UnitPrice:   item.Offer.UnitPrice.String(),
		Quantity:    item.Quantity,
		Total:       item.Total().String(),
		Status:      string(item.Status),
	}
}

func fromItems(items []*domain.OrderItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromContact converts a domain contact; nil stays nil.
func FromContact(contact *domain.Contact) *Contact {
	if contact == nil {
		return nil
	}
	return &Contact{
		ID:        contact.ID,
		Phone:     contact.Phone,
		City:      contact.City,
		Street:    contact.Street,
		House:     contact.House,
		Apartment: contact.Apartment,
	}
}

func FromContacts(contacts []*domain.Contact) []Contact {
	out := make([]Contact, 0, len(contacts))
	for _, contact := range contacts {
		out = append(out, *FromContact(contact))
	}
	return out
}

// FromOrder converts the order aggregate to its buyer view.
func FromOrder(order *domain.Order) Order {
	if order == nil {
		return Order{Items: []OrderItem{}, Total: domain.Money(0).String()}
	}
	return Order{
		ID:        order.ID,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		Contact:   FromContact(order.Contact),
		Items:     fromItems(order.Items),
		Total:     order.Total().String(),
	}
}

func FromOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromOrder(order))
	}
	return out
}

func FromSupplierOrders(views []*domain.SupplierOrder) []SupplierOrder {
	out := make([]SupplierOrder, 0, len(views))
	for _, view := range views {
		out = append(out, SupplierOrder{
			OrderID:     view.OrderID,
			BuyerID:     view.BuyerID,
			OrderStatus: string(view.OrderStatus),
			Status:      string(view.Status),
			CreatedAt:   view.CreatedAt,
			Contact:     FromContact(view.Contact),
			Items:       fromItems(view.Items),
			Total:       view.Total.String(),
		})
	}
	return out
}

// FromStatusResult converts a supplier status result. withCount adds the updated item count.
func FromStatusResult(result *ordertypes.SupplierStatusResult, withCount bool) SupplierStatus {
	out := SupplierStatus{
		OrderID:     result.OrderID,
		ShopID:      result.ShopID,
		Status:      string(result.Status),
		OrderStatus: string(result.OrderStatus),
	}
	if withCount {
		updated := result.Updated
		out.Updated = &updated
	}
	return out
}

func FromShop(shop *domain.Shop) Shop {
	return Shop{ID: shop.ID, Name: shop.Name, AcceptingOrders: shop.AcceptingOrders}
}

func FromImportResult(result *catalogdomain.ImportResult) ImportResult {
	return ImportResult{
		ShopID:     result.ShopID,
		ShopName:   result.ShopName,
		Categories: result.Categories,
		Created:    result.Created,
		Updated:    result.Updated,
	}
}
