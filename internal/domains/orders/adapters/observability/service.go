package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/marketplace-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/marketplace-api/internal/domains/orders/application/types"
	"github.com/Apurer/marketplace-api/internal/domains/orders/domain"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) GetCart(ctx context.Context, buyerID int64) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.GetCart", attribute.Int64("buyer.id", buyerID))
	defer span.End()

	result, err := s.inner.GetCart(ctx, buyerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load cart", slog.Int64("buyer.id", buyerID))
	}
	span.SetAttributes(attribute.Int64("order.id", result.ID), attribute.Int("order.items", len(result.Items)))
	return result, nil
}

// AddCartItem adds an offer to the buyer's cart with instrumentation.
func (s *Service) AddCartItem(ctx context.Context, input ordertypes.AddCartItemInput) (*domain.OrderItem, error) {
	ctx, span := s.startSpan(ctx, "Service.AddCartItem",
		attribute.Int64("buyer.id", input.BuyerID),
		attribute.Int64("offer.id", input.OfferID),
		attribute.Int("quantity", input.Quantity),
	)
	defer span.End()

	s.logInfo(ctx, "adding cart item", slog.Int64("buyer.id", input.BuyerID), slog.Int64("offer.id", input.OfferID), slog.Int("quantity", input.Quantity))
	result, err := s.inner.AddCartItem(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add cart item", slog.Int64("buyer.id", input.BuyerID), slog.Int64("offer.id", input.OfferID))
	}
	s.metrics.recordCartAdd(ctx)
	s.logInfo(ctx, "cart item added", slog.Int64("item.id", result.ID), slog.Int("quantity", result.Quantity))
	return result, nil
}

func (s *Service) RemoveCartItem(ctx context.Context, input ordertypes.RemoveCartItemInput) error {
	ctx, span := s.startSpan(ctx, "Service.RemoveCartItem", attribute.Int64("buyer.id", input.BuyerID), attribute.Int64("item.id", input.ItemID))
	defer span.End()

	if err := s.inner.RemoveCartItem(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to remove cart item", slog.Int64("buyer.id", input.BuyerID), slog.Int64("item.id", input.ItemID))
	}
	s.logInfo(ctx, "cart item removed", slog.Int64("buyer.id", input.BuyerID), slog.Int64("item.id", input.ItemID))
	return nil
}

// FinalizeCart turns the cart into a new order.
func (s *Service) FinalizeCart(ctx context.Context, buyerID int64) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.FinalizeCart", attribute.Int64("buyer.id", buyerID))
	defer span.End()

	s.logInfo(ctx, "finalizing cart", slog.Int64("buyer.id", buyerID))
	result, err := s.inner.FinalizeCart(ctx, buyerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to finalize cart", slog.Int64("buyer.id", buyerID))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "cart finalized", slog.Int64("order.id", result.ID), slog.String("total", result.Total().String()))
	return result, nil
}

// ConfirmOrder confirms the pending order with instrumentation.
func (s *Service) ConfirmOrder(ctx context.Context, input ordertypes.ConfirmOrderInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ConfirmOrder",
		attribute.Int64("buyer.id", input.BuyerID),
		attribute.Bool("contact.inline", input.Contact != nil),
		attribute.Bool("idempotency.key", input.IdempotencyKey != ""),
	)
	defer span.End()

	s.logInfo(ctx, "confirming order", slog.Int64("buyer.id", input.BuyerID))
	result, err := s.inner.ConfirmOrder(ctx, input)
	if err != nil {
		var unavailable *application.SupplierUnavailableError
		if errors.As(err, &unavailable) {
			s.metrics.recordSupplierRejection(ctx, unavailable.ShopID)
		}
		return nil, s.handleError(ctx, span, err, "failed to confirm order", slog.Int64("buyer.id", input.BuyerID))
	}
	s.metrics.recordTransition(ctx, result.Status)
	span.SetAttributes(attribute.Int64("order.id", result.ID))
	s.logInfo(ctx, "order confirmed", slog.Int64("order.id", result.ID), slog.Int("items", len(result.Items)))
	return result, nil
}

func (s *Service) ListBuyerOrders(ctx context.Context, buyerID int64) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ListBuyerOrders", attribute.Int64("buyer.id", buyerID))
	defer span.End()

	result, err := s.inner.ListBuyerOrders(ctx, buyerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list buyer orders", slog.Int64("buyer.id", buyerID))
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

func (s *Service) GetBuyerOrder(ctx context.Context, input ordertypes.BuyerOrderInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.GetBuyerOrder", attribute.Int64("buyer.id", input.BuyerID), attribute.Int64("order.id", input.OrderID))
	defer span.End()

	result, err := s.inner.GetBuyerOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load buyer order", slog.Int64("order.id", input.OrderID))
	}
	return result, nil
}

func (s *Service) ListSupplierOrders(ctx context.Context, supplierID int64) ([]*domain.SupplierOrder, error) {
	ctx, span := s.startSpan(ctx, "Service.ListSupplierOrders", attribute.Int64("supplier.id", supplierID))
	defer span.End()

	result, err := s.inner.ListSupplierOrders(ctx, supplierID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list supplier orders", slog.Int64("supplier.id", supplierID))
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

func (s *Service) SupplierOrderStatus(ctx context.Context, input ordertypes.SupplierOrderInput) (*ordertypes.SupplierStatusResult, error) {
	ctx, span := s.startSpan(ctx, "Service.SupplierOrderStatus", attribute.Int64("supplier.id", input.SupplierID), attribute.Int64("order.id", input.OrderID))
	defer span.End()

	result, err := s.inner.SupplierOrderStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load supplier order status", slog.Int64("order.id", input.OrderID))
	}
	return result, nil
}

// SetSupplierOrderStatus moves a supplier's items with instrumentation.
func (s *Service) SetSupplierOrderStatus(ctx context.Context, input ordertypes.SetSupplierStatusInput) (*ordertypes.SupplierStatusResult, error) {
	ctx, span := s.startSpan(ctx, "Service.SetSupplierOrderStatus",
		attribute.Int64("supplier.id", input.SupplierID),
		attribute.Int64("order.id", input.OrderID),
		attribute.String("status.requested", input.Status),
	)
	defer span.End()

	s.logInfo(ctx, "updating supplier items", slog.Int64("supplier.id", input.SupplierID), slog.Int64("order.id", input.OrderID), slog.String("status", input.Status))
	result, err := s.inner.SetSupplierOrderStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update supplier items", slog.Int64("order.id", input.OrderID))
	}
	if result.OrderStatus == domain.StatusDone {
		s.metrics.recordTransition(ctx, result.OrderStatus)
	}
	s.logInfo(ctx, "supplier items updated", slog.Int64("order.id", result.OrderID), slog.Int("updated", result.Updated), slog.String("order.status", string(result.OrderStatus)))
	return result, nil
}

func (s *Service) SetSupplierAccepting(ctx context.Context, input ordertypes.SetAcceptingInput) (*domain.Shop, error) {
	ctx, span := s.startSpan(ctx, "Service.SetSupplierAccepting", attribute.Int64("supplier.id", input.SupplierID), attribute.Bool("accepting", input.Accepting))
	defer span.End()

	result, err := s.inner.SetSupplierAccepting(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to toggle supplier acceptance", slog.Int64("supplier.id", input.SupplierID))
	}
	s.logInfo(ctx, "supplier acceptance changed", slog.Int64("shop.id", result.ID), slog.Bool("accepting", result.AcceptingOrders))
	return result, nil
}

func (s *Service) ListContacts(ctx context.Context, ownerID int64) ([]*domain.Contact, error) {
	ctx, span := s.startSpan(ctx, "Service.ListContacts", attribute.Int64("owner.id", ownerID))
	defer span.End()

	result, err := s.inner.ListContacts(ctx, ownerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list contacts", slog.Int64("owner.id", ownerID))
	}
	return result, nil
}

func (s *Service) CreateContact(ctx context.Context, input ordertypes.CreateContactInput) (*domain.Contact, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateContact", attribute.Int64("owner.id", input.OwnerID))
	defer span.End()

	result, err := s.inner.CreateContact(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create contact", slog.Int64("owner.id", input.OwnerID))
	}
	s.logInfo(ctx, "contact created", slog.Int64("contact.id", result.ID))
	return result, nil
}

func (s *Service) UpdateContact(ctx context.Context, input ordertypes.UpdateContactInput) (*domain.Contact, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateContact", attribute.Int64("owner.id", input.OwnerID), attribute.Int64("contact.id", input.ContactID))
	defer span.End()

	result, err := s.inner.UpdateContact(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update contact", slog.Int64("contact.id", input.ContactID))
	}
	return result, nil
}

func (s *Service) DeleteContact(ctx context.Context, input ordertypes.ContactIdentifier) error {
	ctx, span := s.startSpan(ctx, "Service.DeleteContact", attribute.Int64("owner.id", input.OwnerID), attribute.Int64("contact.id", input.ContactID))
	defer span.End()

	if err := s.inner.DeleteContact(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to delete contact", slog.Int64("contact.id", input.ContactID))
	}
	s.logInfo(ctx, "contact deleted", slog.Int64("contact.id", input.ContactID))
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, clientLevel(err), msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

// clientLevel keeps caller mistakes out of the error stream.
func clientLevel(err error) slog.Level {
	switch {
	case errors.Is(err, application.ErrValidation),
		errors.Is(err, application.ErrNotFound),
		errors.Is(err, application.ErrEmptyCart),
		errors.Is(err, application.ErrNoPendingOrder),
		errors.Is(err, application.ErrSupplierUnavailable),
		errors.Is(err, application.ErrContactInUse):
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	cartAdds             metric.Int64Counter
	transitions          metric.Int64Counter
	supplierUnavailables metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	cartAdds, _ := m.Int64Counter("orders.service.cart_adds", metric.WithDescription("Number of cart item additions"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of order status transitions"))
	unavailable, _ := m.Int64Counter("orders.service.supplier_unavailable", metric.WithDescription("Confirmations rejected by an unavailable supplier"))
	return serviceMetrics{
		cartAdds:             cartAdds,
		transitions:          transitions,
		supplierUnavailables: unavailable,
	}
}

func (m serviceMetrics) recordCartAdd(ctx context.Context) {
	addCounter(ctx, m.cartAdds, 1)
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.transitions, 1, attribute.String("order.status", string(status)))
}

func (m serviceMetrics) recordSupplierRejection(ctx context.Context, shopID int64) {
	addCounter(ctx, m.supplierUnavailables, 1, attribute.Int64("shop.id", shopID))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
