package notifications

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
	"github.com/Apurer/marketplace-api/internal/durable/temporal/sequences"
)

const (
	// NotificationWorkflowName is the public identifier for registering the workflow.
	NotificationWorkflowName = "orders.workflows.Notification"
	// NotificationTaskQueue is the queue consumed by the worker delivering notifications.
	NotificationTaskQueue = "ORDER_NOTIFICATIONS"
)

// NotificationWorkflowInput names the notification to deliver.
type NotificationWorkflowInput struct {
	Notification ports.Notification
	TraceID      string
}

// NotificationWorkflow delivers one order notification durably.
func NotificationWorkflow(ctx workflow.Context, input NotificationWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	n := input.Notification
	logger.Info("NotificationWorkflow started", withTraceID(input.TraceID, "orderId", n.OrderID, "kind", n.Kind)...)
	if err := sequences.RunNotificationDeliverySequence(ctx, n); err != nil {
		logger.Error("NotificationWorkflow failed", withTraceID(input.TraceID, "orderId", n.OrderID, "error", err)...)
		return err
	}
	logger.Info("NotificationWorkflow completed", withTraceID(input.TraceID, "orderId", n.OrderID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
