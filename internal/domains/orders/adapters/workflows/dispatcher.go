package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
	notificationworkflows "github.com/Apurer/marketplace-api/internal/durable/temporal/workflows/notifications"
)

var _ ports.NotificationDispatcher = (*TemporalDispatcher)(nil)

const startTimeout = 10 * time.Second

// TemporalDispatcher starts one notification workflow per order and kind. Starting
// happens in the background so the confirming request never waits on Temporal.
type TemporalDispatcher struct {
	client    client.Client
	taskQueue string
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewTemporalDispatcher wires a Temporal client into the dispatcher.
func NewTemporalDispatcher(c client.Client, logger *slog.Logger) *TemporalDispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TemporalDispatcher{client: c, taskQueue: notificationworkflows.NotificationTaskQueue, logger: logger}
}

func (d *TemporalDispatcher) Enqueue(ctx context.Context, n ports.Notification) error {
	if d == nil || d.client == nil {
		return errors.New("temporal notification dispatcher not configured")
	}
	input := notificationworkflows.NotificationWorkflowInput{Notification: n, TraceID: workflowTraceID(ctx)}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.start(ctx, input); err != nil {
			d.logger.ErrorContext(ctx, "failed to start notification workflow",
				slog.String("notification.kind", string(n.Kind)),
				slog.Int64("order.id", n.OrderID),
				slog.String("error", err.Error()),
			)
		}
	}()
	return nil
}

// Wait blocks until every background start has finished.
func (d *TemporalDispatcher) Wait() {
	d.wg.Wait()
}

func (d *TemporalDispatcher) start(ctx context.Context, input notificationworkflows.NotificationWorkflowInput) error {
	ctx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	options := client.StartWorkflowOptions{
		ID:                    NotificationWorkflowID(input.Notification),
		TaskQueue:             d.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err := d.client.ExecuteWorkflow(ctx, options, notificationworkflows.NotificationWorkflowName, input)
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

// NotificationWorkflowID is deterministic so a notification is delivered at most once per order.
func NotificationWorkflowID(n ports.Notification) string {
	return fmt.Sprintf("order-notification-%d-%s", n.OrderID, n.Kind)
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
