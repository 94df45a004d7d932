package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/Apurer/marketplace-api/internal/domains/catalog/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		_, err := tx.CreateCart(ctx, 1, now)
		require.NoError(t, err)
		_, err = tx.Contacts().Create(ctx, 1, domain.ContactFields{Phone: "1"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		_, err := tx.FindCart(ctx, 1)
		return err
	})
	require.ErrorIs(t, err, ports.ErrNotFound)

	contacts, err := store.Contacts().List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestCreateCart_OnePerBuyer(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if _, err := tx.CreateCart(ctx, 1, now); err != nil {
			return err
		}
		_, err := tx.CreateCart(ctx, 1, now)
		return err
	})
	require.ErrorIs(t, err, ports.ErrConflict)
}

func TestSaveOrder_AssignsItemIDs(t *testing.T) {
	store := NewStore()
	shop, err := store.AddShop(10, "Shop", true)
	require.NoError(t, err)
	offer, err := store.AddOffer(shop.ID, "Phone", 1000, 3)
	require.NoError(t, err)
	ctx := context.Background()

	var cartID int64
	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		cart, err := tx.CreateCart(ctx, 1, now)
		if err != nil {
			return err
		}
		item, err := cart.AddOrMerge(offer.OfferRef, 2, now)
		if err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, cart); err != nil {
			return err
		}
		assert.NotZero(t, item.ID)
		cartID = cart.ID
		return nil
	})
	require.NoError(t, err)

	stored, err := store.Get(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, cartID, stored.Items[0].OrderID)
	assert.Equal(t, "Phone", stored.Items[0].Offer.ProductName)
}

func TestApplyPriceList_UpsertsShopAndOffers(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	list := catalogdomain.PriceList{
		Shop: "Gadgets",
		Categories: []catalogdomain.Category{{
			Name: "Phones",
			Items: []catalogdomain.Item{
				{Name: "Phone", Price: 99990, Quantity: 3, Parameters: catalogdomain.Parameters{"color": "black"}},
				{Name: "Case", Price: 1500, Quantity: 10},
			},
		}},
	}

	result, err := store.ApplyPriceList(ctx, 42, list)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)

	list.Categories[0].Items[0].Price = 89990
	result, err = store.ApplyPriceList(ctx, 42, list)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 2, result.Updated)

	shop, err := store.ShopByOwner(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Gadgets", shop.Name)
	assert.Equal(t, []string{"Phones"}, shop.Categories)
	assert.True(t, shop.AcceptingOrders)

	offer, err := store.GetOffer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(89990), offer.UnitPrice)
	assert.Equal(t, shop.ID, offer.ShopID)
}

func TestSetAccepting_ReflectedInAcceptance(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	shop, err := store.AddShop(10, "Shop", true)
	require.NoError(t, err)

	_, err = store.SetAccepting(ctx, shop.ID, false)
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		flags, err := tx.SupplierAcceptance(ctx, []int64{shop.ID, 999})
		require.NoError(t, err)
		assert.False(t, flags[shop.ID])
		assert.False(t, flags[999])
		return nil
	})
	require.NoError(t, err)

	_, err = store.ShopByOwner(ctx, 11)
	require.ErrorIs(t, err, ports.ErrNotFound)
}
