package postgres

import (
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

// orderRecord maps the order aggregate root. The partial unique index keeps one cart per buyer.
type orderRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	BuyerID   int64     `gorm:"column:buyer_id;index;uniqueIndex:idx_orders_one_cart,where:status = 'cart'"`
	Status    string    `gorm:"column:status;type:varchar(16);index"`
	ContactID *int64    `gorm:"column:contact_id;index"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// orderItemRecord snapshots the offer at add time.
type orderItemRecord struct {
	ID          int64  `gorm:"primaryKey;column:id"`
	OrderID     int64  `gorm:"column:order_id;uniqueIndex:idx_order_items_offer"`
	OfferID     int64  `gorm:"column:offer_id;uniqueIndex:idx_order_items_offer"`
	ProductID   int64  `gorm:"column:product_id"`
	ProductName string `gorm:"column:product_name"`
	ShopID      int64  `gorm:"column:shop_id;index"`
	ShopName    string `gorm:"column:shop_name"`
	UnitPrice   int64  `gorm:"column:unit_price"`
	Quantity    int    `gorm:"column:quantity"`
	Status      string `gorm:"column:status;type:varchar(16)"`
}

func (orderItemRecord) TableName() string { return "order_items" }

type shopRecord struct {
	ID              int64          `gorm:"primaryKey;column:id"`
	OwnerID         int64          `gorm:"column:owner_id;uniqueIndex"`
	Name            string         `gorm:"column:name"`
	URL             string         `gorm:"column:url"`
	Categories      pq.StringArray `gorm:"column:categories;type:text[]"`
	AcceptingOrders bool           `gorm:"column:accepting_orders"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
}

func (shopRecord) TableName() string { return "shops" }

type productRecord struct {
	ID       int64  `gorm:"primaryKey;column:id"`
	Name     string `gorm:"column:name;uniqueIndex:idx_products_name_category"`
	Category string `gorm:"column:category;uniqueIndex:idx_products_name_category"`
	Model    string `gorm:"column:model"`
}

func (productRecord) TableName() string { return "products" }

type offerRecord struct {
	ID               int64             `gorm:"primaryKey;column:id"`
	ProductID        int64             `gorm:"column:product_id;uniqueIndex:idx_offers_product_shop"`
	ShopID           int64             `gorm:"column:shop_id;uniqueIndex:idx_offers_product_shop"`
	Price            int64             `gorm:"column:price"`
	RecommendedPrice int64             `gorm:"column:recommended_price"`
	Stock            int               `gorm:"column:stock"`
	Parameters       map[string]string `gorm:"column:parameters;serializer:json"`
	UpdatedAt        time.Time         `gorm:"column:updated_at"`
}

func (offerRecord) TableName() string { return "offers" }

type contactRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	OwnerID   int64     `gorm:"column:owner_id;index"`
	Phone     string    `gorm:"column:phone;size:20"`
	City      string    `gorm:"column:city;size:100"`
	Street    string    `gorm:"column:street;size:255"`
	House     string    `gorm:"column:house;size:10"`
	Apartment string    `gorm:"column:apartment;size:10"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (contactRecord) TableName() string { return "contacts" }

func toItemRecord(orderID int64, item *domain.OrderItem) orderItemRecord {
	return orderItemRecord{
		ID:          item.ID,
		OrderID:     orderID,
		OfferID:     item.Offer.OfferID,
		ProductID:   item.Offer.ProductID,
		ProductName: item.Offer.ProductName,
		ShopID:      item.Offer.ShopID,
		ShopName:    item.Offer.ShopName,
		UnitPrice:   int64(item.Offer.UnitPrice),
		Quantity:    item.Quantity,
		Status:      string(item.Status),
	}
}

func (r orderItemRecord) toDomain() *domain.OrderItem {
	return &domain.OrderItem{
		ID:      r.ID,
		OrderID: r.OrderID,
		Offer: domain.OfferRef{
			OfferID:     r.OfferID,
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			ShopID:      r.ShopID,
			ShopName:    r.ShopName,
			UnitPrice:   domain.Money(r.UnitPrice),
		},
		Quantity: r.Quantity,
		Status:   domain.Status(r.Status),
	}
}

func (r orderRecord) toDomain(items []orderItemRecord, contact *contactRecord) *domain.Order {
	order := &domain.Order{
		ID:        r.ID,
		BuyerID:   r.BuyerID,
		Status:    domain.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Items:     make([]*domain.OrderItem, 0, len(items)),
	}
	if r.ContactID != nil {
		id := *r.ContactID
		order.ContactID = &id
	}
	if contact != nil {
		order.Contact = contact.toDomain()
	}
	for _, item := range items {
		order.Items = append(order.Items, item.toDomain())
	}
	return order
}

func (r shopRecord) toDomain() *domain.Shop {
	return &domain.Shop{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Name:            r.Name,
		URL:             r.URL,
		Categories:      append([]string(nil), r.Categories...),
		AcceptingOrders: r.AcceptingOrders,
	}
}

func toContactRecord(contact *domain.Contact) contactRecord {
	return contactRecord{
		ID:        contact.ID,
		OwnerID:   contact.OwnerID,
		Phone:     contact.Phone,
		City:      contact.City,
		Street:    contact.Street,
		House:     contact.House,
		Apartment: contact.Apartment,
	}
}

func (r contactRecord) toDomain() *domain.Contact {
	return &domain.Contact{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		ContactFields: domain.ContactFields{
			Phone:     r.Phone,
			City:      r.City,
			Street:    r.Street,
			House:     r.House,
			Apartment: r.Apartment,
		},
	}
}

// translate maps driver errors onto port errors. The connection must be opened with
// gorm.Config.TranslateError for duplicate keys to surface as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ports.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return ports.ErrConflict
	default:
		return err
	}
}
