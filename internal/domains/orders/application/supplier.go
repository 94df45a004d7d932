package application

import (
	"context"
	"errors"

	ordertypes "github.com/Apurer/marketplace-api/internal/domains/orders/application/types"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

// ListSupplierOrders projects every non-cart order holding the supplier's items onto its shop.
func (s *Service) ListSupplierOrders(ctx context.Context, supplierID int64) ([]*domain.SupplierOrder, error) {
	shop, err := s.shopFor(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListBySupplier(ctx, shop.ID)
	if err != nil {
		return nil, mapError(err)
	}
	views := make([]*domain.SupplierOrder, 0, len(orders))
	for _, order := range orders {
		if view, ok := domain.ProjectForSupplier(order, shop.ID); ok {
			views = append(views, view)
		}
	}
	return views, nil
}

// SupplierOrderStatus derives the supplier sub-status: done iff all of its items are done.
func (s *Service) SupplierOrderStatus(ctx context.Context, input ordertypes.SupplierOrderInput) (*ordertypes.SupplierStatusResult, error) {
	shop, err := s.shopFor(ctx, input.SupplierID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.GetForSupplier(ctx, shop.ID, input.OrderID)
	if err != nil {
		return nil, notFound("order", input.OrderID, err)
	}
	view, ok := domain.ProjectForSupplier(order, shop.ID)
	if !ok {
		return nil, &NotFoundError{Resource: "order", ID: input.OrderID}
	}
	return &ordertypes.SupplierStatusResult{
		OrderID:     order.ID,
		ShopID:      shop.ID,
		Status:      view.Status,
		OrderStatus: order.Status,
	}, nil
}

// SetSupplierOrderStatus moves all of the supplier's items in the order to the requested
// status and completes the order once every item is done.
func (s *Service) SetSupplierOrderStatus(ctx context.Context, input ordertypes.SetSupplierStatusInput) (*ordertypes.SupplierStatusResult, error) {
	status, err := domain.ParseSupplierStatus(input.Status)
	if err != nil {
		return nil, mapError(err)
	}
	shop, err := s.shopFor(ctx, input.SupplierID)
	if err != nil {
		return nil, err
	}

	var (
		order   *domain.Order
		updated int
	)
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		locked, err := tx.GetForUpdate(ctx, input.OrderID)
		if err != nil {
			return notFound("order", input.OrderID, err)
		}
		updated, err = locked.SetShopItemsStatus(shop.ID, status, s.now())
		if errors.Is(err, domain.ErrOrderIsCart) || errors.Is(err, domain.ErrShopHasNoItems) {
			return &NotFoundError{Resource: "order", ID: input.OrderID}
		}
		if err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, locked); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, order)
	return &ordertypes.SupplierStatusResult{
		OrderID:     order.ID,
		ShopID:      shop.ID,
		Status:      domain.SupplierStatus(order.ItemsForShop(shop.ID)),
		OrderStatus: order.Status,
		Updated:     updated,
	}, nil
}

// SetSupplierAccepting toggles the supplier's shop-wide acceptance flag.
func (s *Service) SetSupplierAccepting(ctx context.Context, input ordertypes.SetAcceptingInput) (*domain.Shop, error) {
	shop, err := s.shopFor(ctx, input.SupplierID)
	if err != nil {
		return nil, err
	}
	updated, err := s.suppliers.SetAccepting(ctx, shop.ID, input.Accepting)
	if err != nil {
		return nil, notFound("shop", shop.ID, err)
	}
	return updated, nil
}

func (s *Service) shopFor(ctx context.Context, supplierID int64) (*domain.Shop, error) {
	shop, err := s.suppliers.ShopByOwner(ctx, supplierID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrNotSupplier
	}
	if err != nil {
		return nil, mapError(err)
	}
	return shop, nil
}
