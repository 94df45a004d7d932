// Package orderhttp exposes the order lifecycle over gin under /api/v1.
package orderhttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	catalogdomain "github.com/Apurer/marketplace-api/internal/domains/catalog/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/marketplace-api/internal/domains/orders/application/types"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
	apierrors "github.com/Apurer/marketplace-api/internal/shared/errors"
)

const (
	maxImportBytes = 8 << 20
	// IdempotencyHeader lets clients retry a confirmation safely.
	IdempotencyHeader = "Idempotency-Key"
)

// CatalogImporter applies a supplier price list read from r.
type CatalogImporter interface {
	Import(ctx context.Context, ownerID int64, r io.Reader) (*catalogdomain.ImportResult, error)
}

// API wires HTTP transport with the orders service.
type API struct {
	service   ports.Service
	importer  CatalogImporter
	limiter   *RateLimiter
	logger    *slog.Logger
	responder *apierrors.Responder
}

type Option func(*API)

// WithImporter enables POST /supplier/import.
func WithImporter(importer CatalogImporter) Option {
	return func(api *API) {
		api.importer = importer
	}
}

// WithRateLimiter throttles authenticated requests per account.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(api *API) {
		api.limiter = limiter
	}
}

// WithLogger sets the logger that records unmapped errors.
func WithLogger(logger *slog.Logger) Option {
	return func(api *API) {
		api.logger = logger
	}
}

// NewAPI creates an API backed by the provided service.
func NewAPI(service ports.Service, opts ...Option) *API {
	api := &API{service: service}
	for _, opt := range opts {
		opt(api)
	}
	api.responder = NewResponder(api.logger)
	return api
}

// Register mounts the buyer and supplier routes under /api/v1.
func (api *API) Register(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	v1.Use(Identity(api.responder))
	if api.limiter != nil {
		v1.Use(api.limiter.Middleware(api.responder))
	}

	v1.GET("/cart", api.GetCart)
	v1.POST("/cart/items", api.AddCartItem)
	v1.DELETE("/cart/items/:itemId", api.RemoveCartItem)

	v1.POST("/orders", api.FinalizeCart)
	v1.POST("/orders/confirm", api.ConfirmOrder)
	v1.GET("/orders", api.ListOrders)
	v1.GET("/orders/:orderId", api.GetOrder)

	v1.GET("/contacts", api.ListContacts)
	v1.POST("/contacts", api.CreateContact)
	v1.PATCH("/contacts/:contactId", api.UpdateContact)
	v1.DELETE("/contacts/:contactId", api.DeleteContact)

	v1.GET("/supplier/orders", api.ListSupplierOrders)
	v1.GET("/supplier/orders/:orderId/status", api.GetSupplierOrderStatus)
	v1.POST("/supplier/orders/:orderId/status", api.SetSupplierOrderStatus)
	v1.POST("/supplier/accepting", api.SetSupplierAccepting)
	v1.POST("/supplier/import", api.ImportPriceList)
}

// Get /api/v1/cart
// Returns the buyer's cart, creating an empty one when absent
func (api *API) GetCart(c *gin.Context) {
	cart, err := api.service.GetCart(c.Request.Context(), AccountID(c))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromOrder(cart))
}

// Post /api/v1/cart/items
// Adds an offer to the cart or increases the quantity of the existing line
func (api *API) AddCartItem(c *gin.Context) {
	var payload mapper.CartItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	item, err := api.service.AddCartItem(c.Request.Context(), ordertypes.AddCartItemInput{
		BuyerID:  AccountID(c),
		OfferID:  payload.OfferID,
		Quantity: payload.Quantity,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromItem(item))
}

// Delete /api/v1/cart/items/:itemId
func (api *API) RemoveCartItem(c *gin.Context) {
	itemID, ok := api.pathID(c, "itemId")
	if !ok {
		return
	}
	err := api.service.RemoveCartItem(c.Request.Context(), ordertypes.RemoveCartItemInput{BuyerID: AccountID(c), ItemID: itemID})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /api/v1/orders
// Turns the cart into a new order awaiting confirmation
func (api *API) FinalizeCart(c *gin.Context) {
	order, err := api.service.FinalizeCart(c.Request.Context(), AccountID(c))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromOrder(order))
}

// Post /api/v1/orders/confirm
// Confirms the latest pending order with an existing or inline contact.
// Repeating the call with the same Idempotency-Key returns the first result.
func (api *API) ConfirmOrder(c *gin.Context) {
	var payload mapper.ConfirmRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	input := mapper.ToConfirmInput(AccountID(c), payload)
	input.IdempotencyKey = c.GetHeader(IdempotencyHeader)
	order, err := api.service.ConfirmOrder(c.Request.Context(), input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromOrder(order))
}

// Get /api/v1/orders
func (api *API) ListOrders(c *gin.Context) {
	orders, err := api.service.ListBuyerOrders(c.Request.Context(), AccountID(c))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromOrders(orders))
}

// Get /api/v1/orders/:orderId
func (api *API) GetOrder(c *gin.Context) {
	orderID, ok := api.pathID(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetBuyerOrder(c.Request.Context(), ordertypes.BuyerOrderInput{BuyerID: AccountID(c), OrderID: orderID})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromOrder(order))
}

// Get /api/v1/contacts
func (api *API) ListContacts(c *gin.Context) {
	contacts, err := api.service.ListContacts(c.Request.Context(), AccountID(c))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromContacts(contacts))
}

// Post /api/v1/contacts
func (api *API) CreateContact(c *gin.Context) {
	var payload mapper.ContactRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	contact, err := api.service.CreateContact(c.Request.Context(), ordertypes.CreateContactInput{
		OwnerID: AccountID(c),
		Fields:  mapper.ToContactFields(payload),
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromContact(contact))
}

// Patch /api/v1/contacts/:contactId
func (api *API) UpdateContact(c *gin.Context) {
	contactID, ok := api.pathID(c, "contactId")
	if !ok {
		return
	}
	var payload mapper.ContactRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	contact, err := api.service.UpdateContact(c.Request.Context(), ordertypes.UpdateContactInput{
		OwnerID:   AccountID(c),
		ContactID: contactID,
		Fields:    mapper.ToContactFields(payload),
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromContact(contact))
}

// Delete /api/v1/contacts/:contactId
func (api *API) DeleteContact(c *gin.Context) {
	contactID, ok := api.pathID(c, "contactId")
	if !ok {
		return
	}
	err := api.service.DeleteContact(c.Request.Context(), ordertypes.ContactIdentifier{OwnerID: AccountID(c), ContactID: contactID})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /api/v1/supplier/orders
// Lists orders containing the supplier's items, restricted to those items
func (api *API) ListSupplierOrders(c *gin.Context) {
	views, err := api.service.ListSupplierOrders(c.Request.Context(), AccountID(c))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromSupplierOrders(views))
}

// Get /api/v1/supplier/orders/:orderId/status
func (api *API) GetSupplierOrderStatus(c *gin.Context) {
	orderID, ok := api.pathID(c, "orderId")
	if !ok {
		return
	}
	result, err := api.service.SupplierOrderStatus(c.Request.Context(), ordertypes.SupplierOrderInput{SupplierID: AccountID(c), OrderID: orderID})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromStatusResult(result, false))
}

// Post /api/v1/supplier/orders/:orderId/status
// Moves every item of the supplier in the order to confirmed or done
func (api *API) SetSupplierOrderStatus(c *gin.Context) {
	orderID, ok := api.pathID(c, "orderId")
	if !ok {
		return
	}
	var payload mapper.StatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	result, err := api.service.SetSupplierOrderStatus(c.Request.Context(), ordertypes.SetSupplierStatusInput{
		SupplierID: AccountID(c),
		OrderID:    orderID,
		Status:     payload.Status,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromStatusResult(result, true))
}

// Post /api/v1/supplier/accepting
func (api *API) SetSupplierAccepting(c *gin.Context) {
	var payload mapper.AcceptingRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	shop, err := api.service.SetSupplierAccepting(c.Request.Context(), ordertypes.SetAcceptingInput{
		SupplierID: AccountID(c),
		Accepting:  *payload.Accepting,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromShop(shop))
}

// Post /api/v1/supplier/import
// Accepts a YAML price list and upserts the caller's shop and offers
func (api *API) ImportPriceList(c *gin.Context) {
	if api.importer == nil {
		api.responder.Respond(c, apierrors.ErrNotFound.WithDetail("catalog import is not enabled"))
		return
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	result, err := api.importer.Import(c.Request.Context(), AccountID(c), body)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromImportResult(result))
}

func (api *API) pathID(c *gin.Context, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Required:      true,
	})
	if err != nil {
		api.responder.BadRequest(c, err.Error())
		return 0, false
	}
	if id <= 0 {
		api.responder.BadRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
