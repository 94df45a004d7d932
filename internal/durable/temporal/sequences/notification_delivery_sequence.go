package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordernotifications "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/notifications"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
	notificationactivities "github.com/Apurer/marketplace-api/internal/durable/temporal/activities/notifications"
)

// RunNotificationDeliverySequence renders the notification and sends it, each step with its own retry policy.
func RunNotificationDeliverySequence(ctx workflow.Context, n ports.Notification) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("notification delivery sequence started", "orderId", n.OrderID, "kind", n.Kind)
	renderOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	sendOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		HeartbeatTimeout:    10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}

	var msg ordernotifications.Message
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, renderOptions), notificationactivities.RenderNotificationActivityName, n).Get(ctx, &msg)
	if err != nil {
		logger.Error("notification delivery sequence render failed", "orderId", n.OrderID, "error", err)
		return err
	}
	if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, sendOptions), notificationactivities.SendNotificationActivityName, msg).Get(ctx, nil); err != nil {
		logger.Error("notification delivery sequence send failed", "orderId", n.OrderID, "error", err)
		return err
	}
	logger.Info("notification delivery sequence completed", "orderId", n.OrderID, "kind", n.Kind)
	return nil
}
