package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	catalogdomain "github.com/Apurer/marketplace-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/marketplace-api/internal/domains/catalog/ports"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

var _ catalogports.Writer = (*Store)(nil)

type productRecord struct {
	ID       int64
	Name     string
	Model    string
	Category string
}

type offerRecord struct {
	ID               int64
	ProductID        int64
	ShopID           int64
	Price            domain.Money
	RecommendedPrice domain.Money
	Stock            int
	Parameters       map[string]string
}

// GetOffer resolves the offer together with its shop's current acceptance flag.
func (s *Store) GetOffer(_ context.Context, offerID int64) (*domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offer, ok := s.offers[offerID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	product := s.products[offer.ProductID]
	shop := s.shops[offer.ShopID]
	if product == nil || shop == nil {
		return nil, ports.ErrNotFound
	}
	return &domain.Offer{
		OfferRef: domain.OfferRef{
			OfferID:     offer.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			ShopID:      shop.ID,
			ShopName:    shop.Name,
			UnitPrice:   offer.Price,
		},
		Stock:     offer.Stock,
		Accepting: shop.AcceptingOrders,
	}, nil
}

func (s *Store) ShopByOwner(_ context.Context, ownerID int64) (*domain.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if shop := s.shopByOwner(ownerID); shop != nil {
		return cloneShop(shop), nil
	}
	return nil, ports.ErrNotFound
}

// SetAccepting takes the store lock, so it cannot interleave with a running confirmation.
func (s *Store) SetAccepting(_ context.Context, shopID int64, accepting bool) (*domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.shops[shopID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	shop.AcceptingOrders = accepting
	return cloneShop(shop), nil
}

// AddShop registers a shop for the owner, mainly for seeding and tests.
func (s *Store) AddShop(ownerID int64, name string, accepting bool) (*domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shopByOwner(ownerID) != nil {
		return nil, ports.ErrConflict
	}
	s.seq.shop++
	shop := &domain.Shop{ID: s.seq.shop, OwnerID: ownerID, Name: name, AcceptingOrders: accepting}
	s.shops[shop.ID] = shop
	return cloneShop(shop), nil
}

// AddOffer lists a product in the shop at the given price.
func (s *Store) AddOffer(shopID int64, productName string, price domain.Money, stock int) (*domain.Offer, error) {
	s.mu.Lock()
	shop, ok := s.shops[shopID]
	if !ok {
		s.mu.Unlock()
		return nil, ports.ErrNotFound
	}
	product := s.upsertProduct(productName, "", "")
	s.seq.offer++
	offer := &offerRecord{ID: s.seq.offer, ProductID: product.ID, ShopID: shop.ID, Price: price, Stock: stock}
	s.offers[offer.ID] = offer
	s.mu.Unlock()
	return s.GetOffer(context.Background(), offer.ID)
}

// ApplyPriceList upserts the owner's shop and its offers from a parsed price list.
func (s *Store) ApplyPriceList(_ context.Context, ownerID int64, list catalogdomain.PriceList) (*catalogdomain.ImportResult, error) {
	if ownerID <= 0 {
		return nil, errors.New("owner id must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	shop := s.shopByOwner(ownerID)
	if shop == nil {
		s.seq.shop++
		shop = &domain.Shop{ID: s.seq.shop, OwnerID: ownerID, AcceptingOrders: true}
		s.shops[shop.ID] = shop
	}
	shop.Name = strings.TrimSpace(list.Shop)
	if list.URL != "" {
		shop.URL = list.URL
	}

	result := &catalogdomain.ImportResult{ShopID: shop.ID, ShopName: shop.Name, Categories: len(list.Categories)}
	for _, category := range list.Categories {
		shop.Categories = appendUnique(shop.Categories, strings.TrimSpace(category.Name))
		for _, item := range category.Items {
			product := s.upsertProduct(strings.TrimSpace(item.Name), item.Model, strings.TrimSpace(category.Name))
			offer := s.offerFor(product.ID, shop.ID)
			if offer == nil {
				s.seq.offer++
				offer = &offerRecord{ID: s.seq.offer, ProductID: product.ID, ShopID: shop.ID}
				s.offers[offer.ID] = offer
				result.Created++
			} else {
				result.Updated++
			}
			offer.Price = domain.Money(item.Price)
			offer.RecommendedPrice = domain.Money(item.RecommendedPrice)
			offer.Stock = item.Quantity
			offer.Parameters = map[string]string(item.Parameters)
		}
	}
	sort.Strings(shop.Categories)
	return result, nil
}

func (s *Store) shopByOwner(ownerID int64) *domain.Shop {
	for _, shop := range s.shops {
		if shop.OwnerID == ownerID {
			return shop
		}
	}
	return nil
}

func (s *Store) upsertProduct(name, model, category string) *productRecord {
	for _, product := range s.products {
		if product.Name == name && product.Category == category {
			if model != "" {
				product.Model = model
			}
			return product
		}
	}
	s.seq.product++
	product := &productRecord{ID: s.seq.product, Name: name, Model: model, Category: category}
	s.products[product.ID] = product
	return product
}

func (s *Store) offerFor(productID, shopID int64) *offerRecord {
	for _, offer := range s.offers {
		if offer.ProductID == productID && offer.ShopID == shopID {
			return offer
		}
	}
	return nil
}

func cloneShop(shop *domain.Shop) *domain.Shop {
	clone := *shop
	clone.Categories = append([]string(nil), shop.Categories...)
	return &clone
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
