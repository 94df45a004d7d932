package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

var (
	_ ports.Repository        = (*Store)(nil)
	_ ports.CatalogProvider   = (*Store)(nil)
	_ ports.SupplierDirectory = (*Store)(nil)
	_ ports.Tx                = (*tx)(nil)
)

// Store is an in-memory marketplace persistence adapter. A single mutex guards orders,
// shops, offers and contacts, so every unit of work is serialized.
type Store struct {
	mu       sync.RWMutex
	orders   map[int64]*domain.Order
	shops    map[int64]*domain.Shop
	products map[int64]*productRecord
	offers   map[int64]*offerRecord
	contacts map[int64]*domain.Contact
	seq      sequences
}

type sequences struct {
	order, item, shop, product, offer, contact int64
}

func NewStore() *Store {
	return &Store{
		orders:   map[int64]*domain.Order{},
		shops:    map[int64]*domain.Shop{},
		products: map[int64]*productRecord{},
		offers:   map[int64]*offerRecord{},
		contacts: map[int64]*domain.Contact{},
	}
}

// WithinTx runs fn under the store lock. Writes are staged and applied only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if fn == nil {
		return errors.New("unit of work is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &tx{
		s:               s,
		orders:          map[int64]*domain.Order{},
		contacts:        map[int64]*domain.Contact{},
		deletedContacts: map[int64]struct{}{},
	}
	if err := fn(ctx, t); err != nil {
		return err
	}
	for id, order := range t.orders {
		s.orders[id] = order
	}
	for id, contact := range t.contacts {
		s.contacts[id] = contact
	}
	for id := range t.deletedContacts {
		delete(s.contacts, id)
	}
	return nil
}

func (s *Store) Get(_ context.Context, orderID int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return s.hydrate(order), nil
}

func (s *Store) ListByBuyer(_ context.Context, buyerID int64) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []*domain.Order
	for _, order := range s.orders {
		if order.BuyerID == buyerID && order.Status != domain.StatusCart {
			list = append(list, s.hydrate(order))
		}
	}
	sortNewestFirst(list)
	return list, nil
}

func (s *Store) GetForBuyer(_ context.Context, buyerID, orderID int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok || order.BuyerID != buyerID || order.Status == domain.StatusCart {
		return nil, ports.ErrNotFound
	}
	return s.hydrate(order), nil
}

func (s *Store) ListBySupplier(_ context.Context, shopID int64) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []*domain.Order
	for _, order := range s.orders {
		if order.Status != domain.StatusCart && len(order.ItemsForShop(shopID)) > 0 {
			list = append(list, s.hydrate(order))
		}
	}
	sortNewestFirst(list)
	return list, nil
}

func (s *Store) GetForSupplier(_ context.Context, shopID, orderID int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok || order.Status == domain.StatusCart || len(order.ItemsForShop(shopID)) == 0 {
		return nil, ports.ErrNotFound
	}
	return s.hydrate(order), nil
}

// hydrate clones the order and resolves its contact reference. Callers hold the lock.
func (s *Store) hydrate(order *domain.Order) *domain.Order {
	clone := order.Clone()
	if clone.ContactID != nil {
		if contact, ok := s.contacts[*clone.ContactID]; ok {
			copied := *contact
			clone.Contact = &copied
		}
	}
	return clone
}

func sortNewestFirst(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// tx is the staged view of a unit of work. The store lock is held for its whole lifetime.
type tx struct {
	s               *Store
	orders          map[int64]*domain.Order
	contacts        map[int64]*domain.Contact
	deletedContacts map[int64]struct{}
}

func (t *tx) order(id int64) (*domain.Order, bool) {
	if staged, ok := t.orders[id]; ok {
		return staged, true
	}
	order, ok := t.s.orders[id]
	return order, ok
}

func (t *tx) current() []*domain.Order {
	list := make([]*domain.Order, 0, len(t.s.orders)+len(t.orders))
	for id, order := range t.s.orders {
		if staged, ok := t.orders[id]; ok {
			order = staged
		}
		list = append(list, order)
	}
	for id, staged := range t.orders {
		if _, ok := t.s.orders[id]; !ok {
			list = append(list, staged)
		}
	}
	return list
}

func (t *tx) FindCart(_ context.Context, buyerID int64) (*domain.Order, error) {
	for _, order := range t.current() {
		if order.BuyerID == buyerID && order.Status == domain.StatusCart {
			return order.Clone(), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (t *tx) CreateCart(ctx context.Context, buyerID int64, now time.Time) (*domain.Order, error) {
	if _, err := t.FindCart(ctx, buyerID); err == nil {
		return nil, ports.ErrConflict
	}
	cart, err := domain.NewCart(buyerID, now)
	if err != nil {
		return nil, err
	}
	t.s.seq.order++
	cart.ID = t.s.seq.order
	t.orders[cart.ID] = cart.Clone()
	return cart, nil
}

func (t *tx) LatestNew(_ context.Context, buyerID int64) (*domain.Order, error) {
	var pending []*domain.Order
	for _, order := range t.current() {
		if order.BuyerID == buyerID && order.Status == domain.StatusNew {
			pending = append(pending, order)
		}
	}
	if len(pending) == 0 {
		return nil, ports.ErrNotFound
	}
	sortNewestFirst(pending)
	return pending[0].Clone(), nil
}

func (t *tx) GetForUpdate(_ context.Context, orderID int64) (*domain.Order, error) {
	order, ok := t.order(orderID)
	if !ok {
		return nil, ports.ErrNotFound
	}
	return t.hydrate(order), nil
}

func (t *tx) SaveOrder(_ context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	if _, ok := t.order(order.ID); !ok {
		return ports.ErrNotFound
	}
	if order.Status == domain.StatusCart {
		for _, other := range t.current() {
			if other.ID != order.ID && other.BuyerID == order.BuyerID && other.Status == domain.StatusCart {
				return ports.ErrConflict
			}
		}
	}
	for _, item := range order.Items {
		if item.ID == 0 {
			t.s.seq.item++
			item.ID = t.s.seq.item
		}
		item.OrderID = order.ID
	}
	t.orders[order.ID] = order.Clone()
	return nil
}

func (t *tx) DeleteItem(_ context.Context, orderID, itemID int64) error {
	order, ok := t.order(orderID)
	if !ok || order.FindItem(itemID) == nil {
		return ports.ErrNotFound
	}
	clone := order.Clone()
	kept := clone.Items[:0]
	for _, item := range clone.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	clone.Items = kept
	t.orders[orderID] = clone
	return nil
}

func (t *tx) SupplierAcceptance(_ context.Context, shopIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(shopIDs))
	for _, id := range shopIDs {
		shop, ok := t.s.shops[id]
		result[id] = ok && shop.AcceptingOrders
	}
	return result, nil
}

func (t *tx) Contacts() ports.ContactStore {
	return txContacts{t: t}
}

func (t *tx) hydrate(order *domain.Order) *domain.Order {
	clone := order.Clone()
	if clone.ContactID != nil {
		if contact, ok := t.contact(*clone.ContactID); ok {
			copied := *contact
			clone.Contact = &copied
		}
	}
	return clone
}
