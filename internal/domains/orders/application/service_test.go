package application_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/marketplace-api/internal/domains/orders/adapters/memory"
	"github.com/Apurer/marketplace-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/marketplace-api/internal/domains/orders/application/types"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

const (
	buyerID     int64 = 1
	supplierX   int64 = 50
	supplierY   int64 = 60
	otherBuyer  int64 = 2
	notSupplier int64 = 99
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []ports.Notification
	err  error
}

func (d *recordingDispatcher) Enqueue(_ context.Context, n ports.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return d.err
}

type fixture struct {
	store      *memory.Store
	svc        *application.Service
	dispatcher *recordingDispatcher
	shopX      *domain.Shop
	shopY      *domain.Shop
	offerA     *domain.Offer
	offerB     *domain.Offer
	offerY     *domain.Offer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	shopX, err := store.AddShop(supplierX, "Shop X", true)
	require.NoError(t, err)
	shopY, err := store.AddShop(supplierY, "Shop Y", true)
	require.NoError(t, err)
	offerA, err := store.AddOffer(shopX.ID, "Phone", 1000, 5)
	require.NoError(t, err)
	offerB, err := store.AddOffer(shopX.ID, "Case", 500, 5)
	require.NoError(t, err)
	offerY, err := store.AddOffer(shopY.ID, "Charger", 300, 5)
	require.NoError(t, err)

	dispatcher := &recordingDispatcher{}
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := application.NewService(store, store, store.Contacts(), store,
		application.WithNotificationDispatcher(dispatcher),
		application.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	return &fixture{store: store, svc: svc, dispatcher: dispatcher, shopX: shopX, shopY: shopY, offerA: offerA, offerB: offerB, offerY: offerY}
}

func (f *fixture) add(t *testing.T, offer *domain.Offer, qty int) *domain.OrderItem {
	t.Helper()
	item, err := f.svc.AddCartItem(context.Background(), ordertypes.AddCartItemInput{BuyerID: buyerID, OfferID: offer.OfferID, Quantity: qty})
	require.NoError(t, err)
	return item
}

func validContact() *domain.ContactFields {
	return &domain.ContactFields{Phone: "+123", City: "Berlin", Street: "Main", House: "1"}
}

func (f *fixture) confirmed(t *testing.T) *domain.Order {
	t.Helper()
	f.add(t, f.offerA, 1)
	f.add(t, f.offerY, 1)
	_, err := f.svc.FinalizeCart(context.Background(), buyerID)
	require.NoError(t, err)
	order, err := f.svc.ConfirmOrder(context.Background(), ordertypes.ConfirmOrderInput{BuyerID: buyerID, Contact: validContact()})
	require.NoError(t, err)
	return order
}

func TestGetCart_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	second, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.StatusCart, second.Status)
}

func TestAddCartItem_MergesAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, f.offerA, 1)
	merged := f.add(t, f.offerA, 1)
	f.add(t, f.offerB, 1)

	assert.Equal(t, 2, merged.Quantity)
	cart, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, domain.Money(2500), cart.Total())
}

func TestAddCartItem_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddCartItem(ctx, ordertypes.AddCartItemInput{BuyerID: buyerID, OfferID: f.offerA.OfferID, Quantity: 0})
	require.ErrorIs(t, err, application.ErrValidation)

	_, err = f.svc.AddCartItem(ctx, ordertypes.AddCartItemInput{BuyerID: buyerID, OfferID: 404, Quantity: 1})
	require.ErrorIs(t, err, application.ErrNotFound)
	var nf *application.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "offer", nf.Resource)

	_, err = f.store.SetAccepting(ctx, f.shopX.ID, false)
	require.NoError(t, err)
	_, err = f.svc.AddCartItem(ctx, ordertypes.AddCartItemInput{BuyerID: buyerID, OfferID: f.offerA.OfferID, Quantity: 1})
	require.ErrorIs(t, err, application.ErrSupplierUnavailable)
	var unavailable *application.SupplierUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, f.shopX.ID, unavailable.ShopID)
}

func TestAddCartItem_QuantityOverflowIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddCartItem(ctx, ordertypes.AddCartItemInput{BuyerID: buyerID, OfferID: f.offerA.OfferID, Quantity: math.MaxInt})
	require.ErrorIs(t, err, application.ErrValidation)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	f.add(t, f.offerA, domain.MaxItemQuantity-1)
	f.add(t, f.offerA, 1)
	_, err = f.svc.AddCartItem(ctx, ordertypes.AddCartItemInput{BuyerID: buyerID, OfferID: f.offerA.OfferID, Quantity: 1})
	require.ErrorIs(t, err, application.ErrValidation)

	cart, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, domain.MaxItemQuantity, cart.Items[0].Quantity)
	assert.Equal(t, domain.Money(domain.MaxItemQuantity)*1000, cart.Total())
}

func TestAddCartItem_ConcurrentAddsAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddCartItem(ctx, ordertypes.AddCartItemInput{BuyerID: buyerID, OfferID: f.offerA.OfferID, Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 20, cart.Items[0].Quantity)
}

func TestRemoveCartItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.add(t, f.offerA, 1)

	err := f.svc.RemoveCartItem(ctx, ordertypes.RemoveCartItemInput{BuyerID: otherBuyer, ItemID: item.ID})
	require.ErrorIs(t, err, application.ErrNotFound)

	require.NoError(t, f.svc.RemoveCartItem(ctx, ordertypes.RemoveCartItemInput{BuyerID: buyerID, ItemID: item.ID}))
	cart, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, domain.StatusCart, cart.Status)

	err = f.svc.RemoveCartItem(ctx, ordertypes.RemoveCartItemInput{BuyerID: buyerID, ItemID: item.ID})
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestFinalizeCart_EmptyOrMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.FinalizeCart(ctx, buyerID)
	require.ErrorIs(t, err, application.ErrEmptyCart)

	_, err = f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	_, err = f.svc.FinalizeCart(ctx, buyerID)
	require.ErrorIs(t, err, application.ErrEmptyCart)

	cart, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCart, cart.Status)
}

func TestCheckoutScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, f.offerA, 2)
	f.add(t, f.offerB, 1)
	cart, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(2500), cart.Total())

	order, err := f.svc.FinalizeCart(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, order.Status)

	confirmed, err := f.svc.ConfirmOrder(ctx, ordertypes.ConfirmOrderInput{BuyerID: buyerID, Contact: validContact()})
	require.NoError(t, err)
	assert.Equal(t, order.ID, confirmed.ID)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ContactID)
	for _, item := range confirmed.Items {
		assert.Equal(t, domain.StatusConfirmed, item.Status)
	}

	require.Len(t, f.dispatcher.sent, 2)
	assert.Equal(t, ports.NotificationBuyerConfirmation, f.dispatcher.sent[0].Kind)
	assert.Equal(t, ports.NotificationAdminInvoice, f.dispatcher.sent[1].Kind)
	assert.Equal(t, order.ID, f.dispatcher.sent[1].OrderID)

	orders, err := f.svc.ListBuyerOrders(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].Contact)
	assert.Equal(t, "Berlin", orders[0].Contact.City)

	// A fresh cart is available after finalization.
	next, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	assert.NotEqual(t, order.ID, next.ID)
}

func TestConfirmOrder_ContactSelector(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.offerA, 1)
	_, err := f.svc.FinalizeCart(ctx, buyerID)
	require.NoError(t, err)

	id := int64(1)
	_, err = f.svc.ConfirmOrder(ctx, ordertypes.ConfirmOrderInput{BuyerID: buyerID, ContactID: &id, Contact: validContact()})
	require.ErrorIs(t, err, application.ErrValidation)

	_, err = f.svc.ConfirmOrder(ctx, ordertypes.ConfirmOrderInput{BuyerID: buyerID})
	require.ErrorIs(t, err, application.ErrValidation)

	_, err = f.svc.ConfirmOrder(ctx, ordertypes.ConfirmOrderInput{BuyerID: buyerID, Contact: &domain.ContactFields{City: "x"}})
	require.ErrorIs(t, err, application.ErrValidation)
	var validation *application.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Contains(t, validation.Fields, "phone")

	foreign, err := f.svc.CreateContact(ctx, ordertypes.CreateContactInput{OwnerID: otherBuyer, Fields: *validContact()})
	require.NoError(t, err)
	_, err = f.svc.ConfirmOrder(ctx, ordertypes.ConfirmOrderInput{BuyerID: buyerID, ContactID: &foreign.ID})
	require.ErrorIs(t, err, application.ErrNotFound)

	orders, err := f.svc.ListBuyerOrders(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusNew, orders[0].Status)
	assert.Empty(t, f.dispatcher.sent)
}

func TestConfirmOrder_WithExistingContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact, err := f.svc.CreateContact(ctx, ordertypes.CreateContactInput{OwnerID: buyerID, Fields: *validContact()})
	require.NoError(t, err)
	f.add(t, f.offerA, 1)
	_, err = f.svc.FinalizeCart(ctx, buyerID)
	require.NoError(t, err)

	order, err := f.svc.ConfirmOrder(ctx, ordertypes.ConfirmOrderInput{BuyerID: buyerID, ContactID: &contact.ID})
	require.NoError(t, err)
	assert.Equal(t, contact.ID, *order.ContactID)

	contacts, err := f.svc.ListContacts(ctx, buyerID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	err = f.svc.DeleteContact(ctx, ordertypes.ContactIdentifier{OwnerID: buyerID, ContactID: contact.ID})
	require.ErrorIs(t, err, application.ErrContactInUse)
}

func TestConfirmOrder_NoPendingOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ConfirmOrder(context.Background(), ordertypes.ConfirmOrderInput{BuyerID: buyerID, Contact: validContact()})
	require.ErrorIs(t, err, application.ErrNoPendingOrder)
}

func TestConfirmOrder_SupplierUnavailableIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.offerA, 1)
	item := f.add(t, f.offerY, 1)
	_, err := f.svc.FinalizeCart(ctx, buyerID)
	require.NoError(t, err)

	_, err = f.svc.SetSupplierAccepting(ctx, ordertypes.SetAcceptingInput{SupplierID: supplierY, Accepting: false})
	require.NoError(t, err)

	_, err = f.svc.ConfirmOrder(ctx, ordertypes.ConfirmOrderInput{BuyerID: buyerID, Contact: validContact()})
	require.ErrorIs(t, err, application.ErrSupplierUnavailable)
	var unavailable *application.SupplierUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, item.ID, unavailable.ItemID)
	assert.Equal(t, f.shopY.ID, unavailable.ShopID)

	orders, err := f.svc.ListBuyerOrders(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusNew, orders[0].Status)
	assert.Nil(t, orders[0].ContactID)
	for _, it := range orders[0].Items {
		assert.Equal(t, domain.StatusCart, it.Status)
	}
	contacts, err := f.svc.ListContacts(ctx, buyerID)
	require.NoError(t, err)
	assert.Empty(t, contacts)
	assert.Empty(t, f.dispatcher.sent)
}

func TestConfirmOrder_PicksLatestNewOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.offerA, 1)
	older, err := f.svc.FinalizeCart(ctx, buyerID)
	require.NoError(t, err)
	f.add(t, f.offerB, 1)
	newer, err := f.svc.FinalizeCart(ctx, buyerID)
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmOrder(ctx, ordertypes.ConfirmOrderInput{BuyerID: buyerID, Contact: validContact()})
	require.NoError(t, err)
	assert.Equal(t, newer.ID, confirmed.ID)

	stillNew, err := f.svc.GetBuyerOrder(ctx, ordertypes.BuyerOrderInput{BuyerID: buyerID, OrderID: older.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, stillNew.Status)
}

func TestConfirmOrder_KeepsItemsSupplierAlreadyCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.offerA, 1)
	f.add(t, f.offerY, 1)
	pending, err := f.svc.FinalizeCart(ctx, buyerID)
	require.NoError(t, err)

	result, err := f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierX, OrderID: pending.ID, Status: "done"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, result.OrderStatus)

	order, err := f.svc.ConfirmOrder(ctx, ordertypes.ConfirmOrderInput{BuyerID: buyerID, Contact: validContact()})
	require.NoError(t, err)
	assert.Equal(t, pending.ID, order.ID)
	assert.Equal(t, domain.StatusConfirmed, order.Status)

	stored, err := f.svc.GetBuyerOrder(ctx, ordertypes.BuyerOrderInput{BuyerID: buyerID, OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, stored.ItemsForShop(f.shopX.ID)[0].Status)
	assert.Equal(t, domain.StatusConfirmed, stored.ItemsForShop(f.shopY.ID)[0].Status)

	result, err = f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierY, OrderID: order.ID, Status: "done"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, result.OrderStatus)
}

func TestConfirmOrder_DispatcherFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.err = errors.New("broker down")

	order := f.confirmed(t)
	assert.Equal(t, domain.StatusConfirmed, order.Status)
	assert.Len(t, f.dispatcher.sent, 2)
}

func TestGetBuyerOrder_HidesCartsAndForeignOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)

	_, err = f.svc.GetBuyerOrder(ctx, ordertypes.BuyerOrderInput{BuyerID: buyerID, OrderID: cart.ID})
	require.ErrorIs(t, err, application.ErrNotFound)

	order := f.confirmed(t)
	_, err = f.svc.GetBuyerOrder(ctx, ordertypes.BuyerOrderInput{BuyerID: otherBuyer, OrderID: order.ID})
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestSupplierFulfillmentScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.confirmed(t)

	result, err := f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierX, OrderID: order.ID, Status: "done"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, domain.StatusDone, result.Status)
	assert.Equal(t, domain.StatusConfirmed, result.OrderStatus)

	status, err := f.svc.SupplierOrderStatus(ctx, ordertypes.SupplierOrderInput{SupplierID: supplierY, OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, status.Status)

	result, err = f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierY, OrderID: order.ID, Status: "done"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, result.OrderStatus)

	stored, err := f.svc.GetBuyerOrder(ctx, ordertypes.BuyerOrderInput{BuyerID: buyerID, OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, stored.Status)

	_, err = f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierX, OrderID: order.ID, Status: "confirmed"})
	require.ErrorIs(t, err, application.ErrValidation)
}

func TestSupplierFulfillment_ConcurrentLastItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.confirmed(t)

	var wg sync.WaitGroup
	for _, supplier := range []int64{supplierX, supplierY} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: id, OrderID: order.ID, Status: "done"})
			assert.NoError(t, err)
		}(supplier)
	}
	wg.Wait()

	stored, err := f.store.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, stored.Status)
}

func TestSupplierFulfillment_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.confirmed(t)

	_, err := f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierX, OrderID: order.ID, Status: "new"})
	require.ErrorIs(t, err, application.ErrValidation)

	_, err = f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierX, OrderID: order.ID, Status: "done"})
	require.NoError(t, err)
	_, err = f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierX, OrderID: order.ID, Status: "confirmed"})
	require.ErrorIs(t, err, application.ErrValidation)
	require.ErrorIs(t, err, domain.ErrStatusRegression)
	stored, err := f.svc.GetBuyerOrder(ctx, ordertypes.BuyerOrderInput{BuyerID: buyerID, OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	assert.Equal(t, domain.StatusDone, stored.ItemsForShop(f.shopX.ID)[0].Status)
	assert.Equal(t, domain.StatusConfirmed, stored.ItemsForShop(f.shopY.ID)[0].Status)

	_, err = f.svc.SupplierOrderStatus(ctx, ordertypes.SupplierOrderInput{SupplierID: notSupplier, OrderID: order.ID})
	require.ErrorIs(t, err, application.ErrNotSupplier)
	require.ErrorIs(t, err, application.ErrNotFound)

	cart, err := f.svc.GetCart(ctx, buyerID)
	require.NoError(t, err)
	f.add(t, f.offerA, 1)
	_, err = f.svc.SupplierOrderStatus(ctx, ordertypes.SupplierOrderInput{SupplierID: supplierX, OrderID: cart.ID})
	require.ErrorIs(t, err, application.ErrNotFound)
	_, err = f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierX, OrderID: cart.ID, Status: "done"})
	require.ErrorIs(t, err, application.ErrNotFound)

	_, err = f.svc.SetSupplierOrderStatus(ctx, ordertypes.SetSupplierStatusInput{SupplierID: supplierX, OrderID: 9999, Status: "done"})
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestListSupplierOrders_ScopesToShop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.confirmed(t)

	views, err := f.svc.ListSupplierOrders(ctx, supplierY)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Items, 1)
	assert.Equal(t, f.offerY.OfferID, views[0].Items[0].Offer.OfferID)
	assert.Equal(t, domain.Money(300), views[0].Total)
	assert.Equal(t, domain.StatusConfirmed, views[0].Status)
}

func TestSetSupplierAccepting_AffectsCartAdds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shop, err := f.svc.SetSupplierAccepting(ctx, ordertypes.SetAcceptingInput{SupplierID: supplierX, Accepting: false})
	require.NoError(t, err)
	assert.False(t, shop.AcceptingOrders)

	_, err = f.svc.AddCartItem(ctx, ordertypes.AddCartItemInput{BuyerID: buyerID, OfferID: f.offerA.OfferID, Quantity: 1})
	require.ErrorIs(t, err, application.ErrSupplierUnavailable)

	_, err = f.svc.SetSupplierAccepting(ctx, ordertypes.SetAcceptingInput{SupplierID: supplierX, Accepting: true})
	require.NoError(t, err)
	f.add(t, f.offerA, 1)

	_, err = f.svc.SetSupplierAccepting(ctx, ordertypes.SetAcceptingInput{SupplierID: notSupplier, Accepting: true})
	require.ErrorIs(t, err, application.ErrNotSupplier)
}

func TestContactCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateContact(ctx, ordertypes.CreateContactInput{OwnerID: buyerID, Fields: *validContact()})
	require.NoError(t, err)

	updatedFields := *validContact()
	updatedFields.City = "Hamburg"
	updated, err := f.svc.UpdateContact(ctx, ordertypes.UpdateContactInput{OwnerID: buyerID, ContactID: created.ID, Fields: updatedFields})
	require.NoError(t, err)
	assert.Equal(t, "Hamburg", updated.City)

	_, err = f.svc.UpdateContact(ctx, ordertypes.UpdateContactInput{OwnerID: otherBuyer, ContactID: created.ID, Fields: updatedFields})
	require.ErrorIs(t, err, application.ErrNotFound)

	_, err = f.svc.CreateContact(ctx, ordertypes.CreateContactInput{OwnerID: buyerID})
	require.ErrorIs(t, err, application.ErrValidation)

	require.NoError(t, f.svc.DeleteContact(ctx, ordertypes.ContactIdentifier{OwnerID: buyerID, ContactID: created.ID}))
	err = f.svc.DeleteContact(ctx, ordertypes.ContactIdentifier{OwnerID: buyerID, ContactID: created.ID})
	require.ErrorIs(t, err, application.ErrNotFound)
}
