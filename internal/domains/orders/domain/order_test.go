package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func offer(id, shopID int64, price Money) OfferRef {
	return OfferRef{OfferID: id, ProductID: id * 10, ProductName: "product", ShopID: shopID, ShopName: "shop", UnitPrice: price}
}

func cartWithItems(t *testing.T) *Order {
	t.Helper()
	cart, err := NewCart(7, now)
	require.NoError(t, err)
	cart.ID = 1
	_, err = cart.AddOrMerge(offer(1, 100, 1000), 2, now)
	require.NoError(t, err)
	_, err = cart.AddOrMerge(offer(2, 200, 500), 1, now)
	require.NoError(t, err)
	for i, item := range cart.Items {
		item.ID = int64(i + 1)
	}
	return cart
}

func TestNewCart_RejectsInvalidBuyer(t *testing.T) {
	_, err := NewCart(0, now)
	require.ErrorIs(t, err, ErrInvalidBuyer)
}

func TestAddOrMerge_MergesSameOffer(t *testing.T) {
	cart, err := NewCart(7, now)
	require.NoError(t, err)

	_, err = cart.AddOrMerge(offer(1, 100, 1000), 2, now)
	require.NoError(t, err)
	item, err := cart.AddOrMerge(offer(1, 100, 1000), 3, now)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, StatusCart, item.Status)
	assert.Equal(t, Money(5000), cart.Total())
}

func TestAddOrMerge_RejectsBadInput(t *testing.T) {
	cart, err := NewCart(7, now)
	require.NoError(t, err)

	_, err = cart.AddOrMerge(offer(1, 100, 1000), 0, now)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = cart.AddOrMerge(offer(1, 0, 1000), 1, now)
	require.ErrorIs(t, err, ErrOfferShopRequired)

	cart.Status = StatusNew
	_, err = cart.AddOrMerge(offer(1, 100, 1000), 1, now)
	require.ErrorIs(t, err, ErrNotCart)
}

func TestAddOrMerge_BoundsQuantity(t *testing.T) {
	cart, err := NewCart(7, now)
	require.NoError(t, err)

	_, err = cart.AddOrMerge(offer(1, 100, 1), math.MaxInt, now)
	require.ErrorIs(t, err, ErrQuantityLimit)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, cart.Items)

	_, err = cart.AddOrMerge(offer(1, 100, 1), MaxItemQuantity, now)
	require.NoError(t, err)
	_, err = cart.AddOrMerge(offer(1, 100, 1), 1, now)
	require.ErrorIs(t, err, ErrQuantityLimit)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, MaxItemQuantity, cart.Items[0].Quantity)
	assert.Equal(t, Money(MaxItemQuantity), cart.Total())
}

func TestAddOrMerge_BoundsOrderTotal(t *testing.T) {
	cart, err := NewCart(7, now)
	require.NoError(t, err)

	expensive := Money(math.MaxInt64 / 4)
	_, err = cart.AddOrMerge(offer(1, 100, expensive), 3, now)
	require.NoError(t, err)
	_, err = cart.AddOrMerge(offer(2, 100, expensive), 2, now)
	require.ErrorIs(t, err, ErrTotalLimit)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, expensive*3, cart.Total())
	assert.Positive(t, int64(cart.Total()))
}

func TestRemoveItem_LeavesEmptyCart(t *testing.T) {
	cart := cartWithItems(t)

	_, err := cart.RemoveItem(1, now)
	require.NoError(t, err)
	_, err = cart.RemoveItem(2, now)
	require.NoError(t, err)

	assert.Empty(t, cart.Items)
	assert.Equal(t, StatusCart, cart.Status)

	_, err = cart.RemoveItem(2, now)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestFinalize_KeepsItemsInCartStatus(t *testing.T) {
	cart := cartWithItems(t)

	require.NoError(t, cart.Finalize(now))

	assert.Equal(t, StatusNew, cart.Status)
	for _, item := range cart.Items {
		assert.Equal(t, StatusCart, item.Status)
	}
	require.Len(t, cart.Events(), 1)
	assert.Equal(t, "orders.order.finalized", cart.Events()[0].EventName())
}

func TestFinalize_EmptyCart(t *testing.T) {
	cart, err := NewCart(7, now)
	require.NoError(t, err)

	require.ErrorIs(t, cart.Finalize(now), ErrEmptyCart)
	assert.Equal(t, StatusCart, cart.Status)
	assert.Empty(t, cart.Events())
}

func TestConfirm_MovesOrderAndItems(t *testing.T) {
	order := cartWithItems(t)
	require.NoError(t, order.Finalize(now))

	require.ErrorIs(t, order.Confirm(nil, now), ErrContactRequired)

	contact := &Contact{ID: 3, OwnerID: 7, ContactFields: ContactFields{Phone: "1", City: "c", Street: "s", House: "1"}}
	require.NoError(t, order.Confirm(contact, now))

	assert.Equal(t, StatusConfirmed, order.Status)
	require.NotNil(t, order.ContactID)
	assert.Equal(t, int64(3), *order.ContactID)
	for _, item := range order.Items {
		assert.Equal(t, StatusConfirmed, item.Status)
	}
	require.ErrorIs(t, order.Confirm(contact, now), ErrNotPending)
}

func TestConfirm_KeepsItemsSupplierAlreadyCompleted(t *testing.T) {
	order := cartWithItems(t)
	require.NoError(t, order.Finalize(now))

	_, err := order.SetShopItemsStatus(100, StatusDone, now)
	require.NoError(t, err)
	require.Equal(t, StatusNew, order.Status)

	require.NoError(t, order.Confirm(&Contact{ID: 1}, now))

	assert.Equal(t, StatusConfirmed, order.Status)
	assert.Equal(t, StatusDone, order.ItemsForShop(100)[0].Status)
	assert.Equal(t, StatusConfirmed, order.ItemsForShop(200)[0].Status)

	_, err = order.SetShopItemsStatus(200, StatusDone, now)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, order.Status)
}

func TestSetShopItemsStatus_ReconcilesDone(t *testing.T) {
	order := cartWithItems(t)
	require.NoError(t, order.Finalize(now))
	require.NoError(t, order.Confirm(&Contact{ID: 1}, now))

	n, err := order.SetShopItemsStatus(100, StatusDone, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, StatusConfirmed, order.Status)
	assert.Equal(t, StatusDone, SupplierStatus(order.ItemsForShop(100)))
	assert.Equal(t, StatusConfirmed, SupplierStatus(order.ItemsForShop(200)))

	_, err = order.SetShopItemsStatus(200, StatusDone, now)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, order.Status)

	var names []string
	for _, event := range order.Events() {
		names = append(names, event.EventName())
	}
	assert.Contains(t, names, "orders.order.completed")
}

func TestSetShopItemsStatus_Guards(t *testing.T) {
	order := cartWithItems(t)

	_, err := order.SetShopItemsStatus(100, StatusDone, now)
	require.ErrorIs(t, err, ErrOrderIsCart)

	require.NoError(t, order.Finalize(now))
	_, err = order.SetShopItemsStatus(999, StatusDone, now)
	require.ErrorIs(t, err, ErrShopHasNoItems)

	_, err = order.SetShopItemsStatus(100, StatusNew, now)
	require.ErrorIs(t, err, ErrSupplierStatus)

	_, err = order.SetShopItemsStatus(100, StatusDone, now)
	require.NoError(t, err)
	_, err = order.SetShopItemsStatus(100, StatusConfirmed, now)
	require.True(t, errors.Is(err, ErrStatusRegression))
	assert.Equal(t, StatusDone, order.ItemsForShop(100)[0].Status)
}

func TestReconcileDone_NeverReverts(t *testing.T) {
	order := cartWithItems(t)
	require.NoError(t, order.Finalize(now))
	for _, item := range order.Items {
		item.Status = StatusDone
	}
	require.True(t, order.ReconcileDone(now))
	require.False(t, order.ReconcileDone(now))
	assert.Equal(t, StatusDone, order.Status)
}

func TestProjectForSupplier_HidesOtherSuppliers(t *testing.T) {
	order := cartWithItems(t)
	_, ok := ProjectForSupplier(order, 100)
	require.False(t, ok)

	require.NoError(t, order.Finalize(now))
	view, ok := ProjectForSupplier(order, 200)
	require.True(t, ok)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(200), view.Items[0].Offer.ShopID)
	assert.Equal(t, Money(500), view.Total)
	assert.Equal(t, Money(2500), order.Total())

	_, ok = ProjectForSupplier(order, 300)
	assert.False(t, ok)
}

func TestShopIDs_SortedDistinct(t *testing.T) {
	order := cartWithItems(t)
	_, err := order.AddOrMerge(offer(3, 100, 1), 1, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, order.ShopIDs())
}

func TestClone_IsDeep(t *testing.T) {
	order := cartWithItems(t)
	clone := order.Clone()
	clone.Items[0].Quantity = 99
	assert.Equal(t, 2, order.Items[0].Quantity)
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "25.00", Money(2500).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.50", Money(-150).String())
}

func TestParseSupplierStatus(t *testing.T) {
	status, err := ParseSupplierStatus("done")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)

	_, err = ParseSupplierStatus("cart")
	require.ErrorIs(t, err, ErrSupplierStatus)
}
