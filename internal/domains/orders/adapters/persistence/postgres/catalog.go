package postgres

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catalogdomain "github.com/Apurer/marketplace-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/marketplace-api/internal/domains/catalog/ports"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

var (
	_ ports.CatalogProvider   = (*Catalog)(nil)
	_ ports.SupplierDirectory = (*Catalog)(nil)
	_ catalogports.Writer     = (*Catalog)(nil)
)

// Catalog serves offers and shops from PostgreSQL and applies imported price lists.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

type offerRow struct {
	OfferID         int64
	ProductID       int64
	ProductName     string
	ShopID          int64
	ShopName        string
	Price           int64
	Stock           int
	AcceptingOrders bool
}

func (c *Catalog) GetOffer(ctx context.Context, offerID int64) (*domain.Offer, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var row offerRow
	err := c.db.WithContext(ctx).
		Table("offers AS o").
		Select(`o.id AS offer_id, p.id AS product_id, p.name AS product_name, s.id AS shop_id,
			s.name AS shop_name, o.price, o.stock, s.accepting_orders`).
		Joins("JOIN products p ON p.id = o.product_id").
		Joins("JOIN shops s ON s.id = o.shop_id").
		Where("o.id = ?", offerID).
		Take(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &domain.Offer{
		OfferRef: domain.OfferRef{
			OfferID:     row.OfferID,
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			ShopID:      row.ShopID,
			ShopName:    row.ShopName,
			UnitPrice:   domain.Money(row.Price),
		},
		Stock:     row.Stock,
		Accepting: row.AcceptingOrders,
	}, nil
}

func (c *Catalog) ShopByOwner(ctx context.Context, ownerID int64) (*domain.Shop, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var record shopRecord
	if err := c.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&record).Error; err != nil {
		return nil, translate(err)
	}
	return record.toDomain(), nil
}

// SetAccepting updates the flag under a row lock, so it waits for confirmations holding FOR SHARE.
func (c *Catalog) SetAccepting(ctx context.Context, shopID int64, accepting bool) (*domain.Shop, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	var record shopRecord
	result := c.db.WithContext(ctx).Model(&record).
		Clauses(clause.Returning{}).
		Where("id = ?", shopID).
		Updates(map[string]any{"accepting_orders": accepting, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return record.toDomain(), nil
}

// ApplyPriceList upserts the owner's shop, products and offers in one transaction.
func (c *Catalog) ApplyPriceList(ctx context.Context, ownerID int64, list catalogdomain.PriceList) (*catalogdomain.ImportResult, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}
	result := &catalogdomain.ImportResult{Categories: len(list.Categories)}
	err := c.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		shop, err := upsertShop(db, ownerID, list)
		if err != nil {
			return err
		}
		result.ShopID, result.ShopName = shop.ID, shop.Name

		for _, category := range list.Categories {
			categoryName := strings.TrimSpace(category.Name)
			for _, item := range category.Items {
				product := productRecord{Name: strings.TrimSpace(item.Name), Category: categoryName, Model: item.Model}
				if err := db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "name"}, {Name: "category"}},
					DoUpdates: clause.AssignmentColumns([]string{"model"}),
				}).Create(&product).Error; err != nil {
					return err
				}
				if product.ID == 0 {
					if err := db.Where("name = ? AND category = ?", product.Name, product.Category).First(&product).Error; err != nil {
						return err
					}
				}

				var existing offerRecord
				err := db.Where("product_id = ? AND shop_id = ?", product.ID, shop.ID).First(&existing).Error
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					result.Created++
				case err != nil:
					return err
				default:
					result.Updated++
				}
				offer := offerRecord{
					ID:               existing.ID,
					ProductID:        product.ID,
					ShopID:           shop.ID,
					Price:            int64(item.Price),
					RecommendedPrice: int64(item.RecommendedPrice),
					Stock:            item.Quantity,
					Parameters:       map[string]string(item.Parameters),
					UpdatedAt:        time.Now().UTC(),
				}
				if err := db.Save(&offer).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return result, nil
}

func upsertShop(db *gorm.DB, ownerID int64, list catalogdomain.PriceList) (*shopRecord, error) {
	var shop shopRecord
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("owner_id = ?", ownerID).First(&shop).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if shop.ID == 0 {
		shop = shopRecord{OwnerID: ownerID, AcceptingOrders: true}
	}
	shop.Name = strings.TrimSpace(list.Shop)
	if list.URL != "" {
		shop.URL = list.URL
	}
	categories := map[string]struct{}{}
	for _, name := range shop.Categories {
		categories[name] = struct{}{}
	}
	for _, category := range list.Categories {
		categories[strings.TrimSpace(category.Name)] = struct{}{}
	}
	merged := make([]string, 0, len(categories))
	for name := range categories {
		merged = append(merged, name)
	}
	sort.Strings(merged)
	shop.Categories = pq.StringArray(merged)
	if err := db.Save(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (c *Catalog) ensureDB() error {
	if c == nil || c.db == nil {
		return errors.New("postgres catalog not configured")
	}
	return nil
}
