package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

var (
	_ ports.Repository = (*Repository)(nil)
	_ ports.Tx         = (*tx)(nil)
)

// Repository persists orders in PostgreSQL using GORM. Units of work run in a database
// transaction and lock the order rows they read with SELECT ... FOR UPDATE.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &tx{db: db})
	})
	return translate(err)
}

func (r *Repository) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return firstOrder(r.db.WithContext(ctx).Where("id = ?", orderID))
}

func (r *Repository) ListByBuyer(ctx context.Context, buyerID int64) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return findOrders(r.db.WithContext(ctx).
		Where("buyer_id = ? AND status <> ?", buyerID, domain.StatusCart).
		Order("created_at DESC, id DESC"))
}

func (r *Repository) GetForBuyer(ctx context.Context, buyerID, orderID int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return firstOrder(r.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ? AND status <> ?", orderID, buyerID, domain.StatusCart))
}

func (r *Repository) ListBySupplier(ctx context.Context, shopID int64) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return findOrders(r.db.WithContext(ctx).
		Where("status <> ? AND id IN (?)", domain.StatusCart, shopItems(r.db.WithContext(ctx), shopID)).
		Order("created_at DESC, id DESC"))
}

func (r *Repository) GetForSupplier(ctx context.Context, shopID, orderID int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return firstOrder(r.db.WithContext(ctx).
		Where("id = ? AND status <> ? AND id IN (?)", orderID, domain.StatusCart, shopItems(r.db.WithContext(ctx), shopID)))
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func shopItems(db *gorm.DB, shopID int64) *gorm.DB {
	return db.Model(&orderItemRecord{}).Select("order_id").Where("shop_id = ?", shopID)
}

func firstOrder(query *gorm.DB) (*domain.Order, error) {
	var record orderRecord
	if err := query.First(&record).Error; err != nil {
		return nil, translate(err)
	}
	orders, err := hydrate(query.Session(&gorm.Session{NewDB: true}), []orderRecord{record})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

func findOrders(query *gorm.DB) ([]*domain.Order, error) {
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return hydrate(query.Session(&gorm.Session{NewDB: true}), records)
}

// hydrate loads items and contacts for the given order rows in two queries.
func hydrate(db *gorm.DB, records []orderRecord) ([]*domain.Order, error) {
	if len(records) == 0 {
		return []*domain.Order{}, nil
	}
	orderIDs := make([]int64, 0, len(records))
	var contactIDs []int64
	for _, rec := range records {
		orderIDs = append(orderIDs, rec.ID)
		if rec.ContactID != nil {
			contactIDs = append(contactIDs, *rec.ContactID)
		}
	}

	var items []orderItemRecord
	if err := db.Where("order_id IN ?", orderIDs).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	itemsByOrder := make(map[int64][]orderItemRecord, len(records))
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	contacts := map[int64]*contactRecord{}
	if len(contactIDs) > 0 {
		var rows []contactRecord
		if err := db.Where("id IN ?", contactIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
		for i := range rows {
			contacts[rows[i].ID] = &rows[i]
		}
	}

	orders := make([]*domain.Order, 0, len(records))
	for _, rec := range records {
		var contact *contactRecord
		if rec.ContactID != nil {
			contact = contacts[*rec.ContactID]
		}
		orders = append(orders, rec.toDomain(itemsByOrder[rec.ID], contact))
	}
	return orders, nil
}

// tx binds the port operations to one database transaction.
type tx struct {
	db *gorm.DB
}

func (t *tx) forUpdate() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *tx) FindCart(_ context.Context, buyerID int64) (*domain.Order, error) {
	return firstOrder(t.forUpdate().Where("buyer_id = ? AND status = ?", buyerID, domain.StatusCart))
}

func (t *tx) CreateCart(_ context.Context, buyerID int64, now time.Time) (*domain.Order, error) {
	cart, err := domain.NewCart(buyerID, now)
	if err != nil {
		return nil, err
	}
	record := orderRecord{BuyerID: buyerID, Status: string(cart.Status), CreatedAt: now, UpdatedAt: now}
	if err := t.db.Create(&record).Error; err != nil {
		return nil, translate(err)
	}
	cart.ID = record.ID
	return cart, nil
}

func (t *tx) LatestNew(_ context.Context, buyerID int64) (*domain.Order, error) {
	return firstOrder(t.forUpdate().
		Where("buyer_id = ? AND status = ?", buyerID, domain.StatusNew).
		Order("created_at DESC, id DESC"))
}

func (t *tx) GetForUpdate(_ context.Context, orderID int64) (*domain.Order, error) {
	return firstOrder(t.forUpdate().Where("id = ?", orderID))
}

func (t *tx) SaveOrder(_ context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	result := t.db.Model(&orderRecord{}).Where("id = ?", order.ID).Updates(map[string]any{
		"status":     string(order.Status),
		"contact_id": order.ContactID,
		"updated_at": order.UpdatedAt,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	for _, item := range order.Items {
		record := toItemRecord(order.ID, item)
		if item.ID == 0 {
			if err := t.db.Create(&record).Error; err != nil {
				return translate(err)
			}
			item.ID = record.ID
			item.OrderID = order.ID
			continue
		}
		if err := t.db.Model(&orderItemRecord{}).Where("id = ? AND order_id = ?", item.ID, order.ID).Updates(map[string]any{
			"quantity": record.Quantity,
			"status":   record.Status,
		}).Error; err != nil {
			return translate(err)
		}
	}
	return nil
}

func (t *tx) DeleteItem(_ context.Context, orderID, itemID int64) error {
	result := t.db.Where("id = ? AND order_id = ?", itemID, orderID).Delete(&orderItemRecord{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// SupplierAcceptance takes FOR SHARE locks on the shop rows, so a concurrent SetAccepting
// waits until this transaction ends.
func (t *tx) SupplierAcceptance(_ context.Context, shopIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(shopIDs))
	if len(shopIDs) == 0 {
		return result, nil
	}
	var shops []shopRecord
	if err := t.db.Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id IN ?", shopIDs).
		Order("id").
		Find(&shops).Error; err != nil {
		return nil, err
	}
	for _, id := range shopIDs {
		result[id] = false
	}
	for _, shop := range shops {
		result[shop.ID] = shop.AcceptingOrders
	}
	return result, nil
}

func (t *tx) Contacts() ports.ContactStore {
	return &Contacts{db: t.db, locking: true}
}
