package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/marketplace-api/internal/app/api"
	"github.com/Apurer/marketplace-api/internal/app/stores"
	ordernotifications "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/notifications"
	notificationactivities "github.com/Apurer/marketplace-api/internal/durable/temporal/activities/notifications"
	notificationworkflows "github.com/Apurer/marketplace-api/internal/durable/temporal/workflows/notifications"
	platformobservability "github.com/Apurer/marketplace-api/internal/platform/observability"
)

func main() {
	ctx := context.Background()
	const serviceName = "marketplace-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	backends, cleanupStores, err := stores.Build(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		logger.Error("failed to configure order stores", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanupStores()
	if backends.Backend == stores.BackendMemory {
		logger.Warn("worker reads orders from an empty in-memory store; set POSTGRES_DSN to share the API database")
	}

	notifier, closeNotifier := api.BuildNotifier(cfg, logger)
	defer closeNotifier()
	activities := notificationactivities.NewActivities(ordernotifications.NewRenderer(backends.Orders, cfg.AdminEmail), notifier)

	cfg.TemporalDisabled = false
	temporalClient, err := api.ConnectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, notificationworkflows.NotificationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(notificationworkflows.NotificationWorkflow, workflow.RegisterOptions{Name: notificationworkflows.NotificationWorkflowName})
	w.RegisterActivityWithOptions(activities.RenderNotification, activity.RegisterOptions{Name: notificationactivities.RenderNotificationActivityName})
	w.RegisterActivityWithOptions(activities.SendNotification, activity.RegisterOptions{Name: notificationactivities.SendNotificationActivityName})

	logger.Info("worker listening", slog.String("taskQueue", notificationworkflows.NotificationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
