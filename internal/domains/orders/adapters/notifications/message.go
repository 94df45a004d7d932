// Package notifications renders order notifications and delivers them to a Notifier.
package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

// ErrUnknownKind is returned for notification kinds the renderer has no template for.
var ErrUnknownKind = errors.New("unknown notification kind")

// Message is a rendered notification ready for delivery.
type Message struct {
	Kind      ports.NotificationKind `json:"kind"`
	OrderID   int64                  `json:"order_id"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Body      string                 `json:"body"`
}

// OrderReader loads an order with its items and contact.
type OrderReader interface {
	Get(ctx context.Context, orderID int64) (*domain.Order, error)
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`New order #{{.Order.ID}}

Buyer: {{.Buyer}}

Items:
{{range .Order.Items}}{{.Offer.ProductName}} - {{.Quantity}} x {{.Offer.UnitPrice}}
{{end}}
Total: {{.Order.Total}}

Delivery contact:
Phone: {{.Contact.Phone}}
City: {{.Contact.City}}
Street: {{.Contact.Street}}
House: {{.Contact.House}}
Apartment: {{.Contact.ApartmentOrDefault}}
`))

// Renderer turns an order into buyer and admin messages.
type Renderer struct {
	orders     OrderReader
	adminEmail string
}

func NewRenderer(orders OrderReader, adminEmail string) *Renderer {
	return &Renderer{orders: orders, adminEmail: adminEmail}
}

// Render loads the order and produces the message for the notification.
func (r *Renderer) Render(ctx context.Context, n ports.Notification) (Message, error) {
	order, err := r.orders.Get(ctx, n.OrderID)
	if err != nil {
		return Message{}, fmt.Errorf("load order %d: %w", n.OrderID, err)
	}
	return RenderOrder(order, n.Kind, r.adminEmail)
}

// RenderOrder renders an already loaded order.
func RenderOrder(order *domain.Order, kind ports.NotificationKind, adminEmail string) (Message, error) {
	switch kind {
	case ports.NotificationBuyerConfirmation:
		return Message{
			Kind:      kind,
			OrderID:   order.ID,
			Recipient: buyerAddress(order.BuyerID),
			Subject:   fmt.Sprintf("Order %d confirmed", order.ID),
			Body:      fmt.Sprintf("Your order %d has been confirmed.", order.ID),
		}, nil
	case ports.NotificationAdminInvoice:
		if order.Contact == nil {
			return Message{}, fmt.Errorf("order %d: %w", order.ID, domain.ErrContactRequired)
		}
		var body bytes.Buffer
		err := invoiceTemplate.Execute(&body, struct {
			Order   *domain.Order
			Buyer   string
			Contact domain.ContactFields
		}{Order: order, Buyer: buyerAddress(order.BuyerID), Contact: order.Contact.ContactFields})
		if err != nil {
			return Message{}, err
		}
		return Message{
			Kind:      kind,
			OrderID:   order.ID,
			Recipient: adminEmail,
			Subject:   fmt.Sprintf("Invoice for order #%d", order.ID),
			Body:      body.String(),
		}, nil
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func buyerAddress(buyerID int64) string {
	return fmt.Sprintf("account:%d", buyerID)
}
