package notifications

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	ordernotifications "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/notifications"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

const (
	// RenderNotificationActivityName loads the order and renders the message.
	RenderNotificationActivityName = "orders.activities.RenderNotification"
	// SendNotificationActivityName hands a rendered message to the notifier.
	SendNotificationActivityName = "orders.activities.SendNotification"
)

// Activities groups the notification delivery steps.
type Activities struct {
	renderer *ordernotifications.Renderer
	notifier ordernotifications.Notifier
}

func NewActivities(renderer *ordernotifications.Renderer, notifier ordernotifications.Notifier) *Activities {
	return &Activities{renderer: renderer, notifier: notifier}
}

// RenderNotification fails without retry when the order or the kind is unknown.
func (a *Activities) RenderNotification(ctx context.Context, n ports.Notification) (*ordernotifications.Message, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.renderer == nil {
		logger.Error("render activity not initialized", "orderId", n.OrderID)
		return nil, errors.New("render activity not initialized")
	}
	msg, err := a.renderer.Render(ctx, n)
	if err != nil {
		logger.Error("RenderNotification failed", "orderId", n.OrderID, "kind", n.Kind, "error", err)
		if errors.Is(err, ports.ErrNotFound) || errors.Is(err, ordernotifications.ErrUnknownKind) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidNotification", err)
		}
		return nil, err
	}
	logger.Info("RenderNotification completed", "orderId", n.OrderID, "kind", n.Kind)
	return &msg, nil
}

// SendNotification records a heartbeat after delivery so a retried attempt does not resend.
func (a *Activities) SendNotification(ctx context.Context, msg ordernotifications.Message) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.notifier == nil {
		logger.Error("send activity not initialized", "orderId", msg.OrderID)
		return errors.New("send activity not initialized")
	}
	var hb sendHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Sent {
		logger.Info("SendNotification already delivered in prior attempt; skipping", "orderId", msg.OrderID)
		return nil
	}
	if err := a.notifier.Notify(ctx, msg); err != nil {
		logger.Error("SendNotification failed", "orderId", msg.OrderID, "kind", msg.Kind, "error", err)
		return err
	}
	activity.RecordHeartbeat(ctx, sendHeartbeat{Sent: true})
	logger.Info("SendNotification completed", "orderId", msg.OrderID, "kind", msg.Kind)
	return nil
}

type sendHeartbeat struct {
	Sent bool
}
