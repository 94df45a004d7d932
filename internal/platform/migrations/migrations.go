package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the marketplace schema. Adapters do not automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&shopRecord{},
		&productRecord{},
		&offerRecord{},
		&contactRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&idempotencyRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter. The partial unique index enforces a
// single cart per buyer at the storage layer.
type orderRecord struct {
	ID        int64          `gorm:"primaryKey;column:id"`
	BuyerID   int64          `gorm:"column:buyer_id;index;uniqueIndex:idx_orders_one_cart,where:status = 'cart'"`
	Status    string         `gorm:"column:status;type:varchar(16);index"`
	ContactID *int64         `gorm:"column:contact_id;index"`
	Contact   *contactRecord `gorm:"foreignKey:ContactID;constraint:OnDelete:RESTRICT"`
	CreatedAt time.Time      `gorm:"column:created_at;index"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID          int64        `gorm:"primaryKey;column:id"`
	OrderID     int64        `gorm:"column:order_id;uniqueIndex:idx_order_items_offer"`
	Order       *orderRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	OfferID     int64        `gorm:"column:offer_id;uniqueIndex:idx_order_items_offer"`
	ProductID   int64        `gorm:"column:product_id"`
	ProductName string       `gorm:"column:product_name"`
	ShopID      int64        `gorm:"column:shop_id;index"`
	ShopName    string       `gorm:"column:shop_name"`
	UnitPrice   int64        `gorm:"column:unit_price"`
	Quantity    int          `gorm:"column:quantity;check:chk_order_items_quantity,quantity > 0"`
	Status      string       `gorm:"column:status;type:varchar(16)"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Shop schema: a supplier account owns at most one shop.
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
	Product          *productRecord    `gorm:"foreignKey:ProductID"`
	ShopID           int64             `gorm:"column:shop_id;uniqueIndex:idx_offers_product_shop"`
	Shop             *shopRecord       `gorm:"foreignKey:ShopID"`
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

// Confirmation replay keys, scoped per buyer.
type idempotencyRecord struct {
	BuyerID     int64     `gorm:"primaryKey;column:buyer_id"`
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:64"`
	OrderID     int64     `gorm:"column:order_id;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (idempotencyRecord) TableName() string { return "order_idempotency_keys" }
