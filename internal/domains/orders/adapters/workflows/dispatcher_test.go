package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
	notificationworkflows "github.com/Apurer/marketplace-api/internal/durable/temporal/workflows/notifications"
)

func TestTemporalDispatcher_StartsWorkflow(t *testing.T) {
	temporalClient := &mocks.Client{}
	notification := ports.Notification{Kind: ports.NotificationAdminInvoice, OrderID: 12}
	temporalClient.On("ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(opts client.StartWorkflowOptions) bool {
			return opts.ID == "order-notification-12-admin_invoice" &&
				opts.TaskQueue == notificationworkflows.NotificationTaskQueue &&
				opts.WorkflowIDReusePolicy == enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE
		}),
		notificationworkflows.NotificationWorkflowName,
		mock.MatchedBy(func(input notificationworkflows.NotificationWorkflowInput) bool {
			return input.Notification == notification
		}),
	).Return(&mocks.WorkflowRun{}, nil).Once()

	dispatcher := NewTemporalDispatcher(temporalClient, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, dispatcher.Enqueue(ctx, notification))
	cancel()
	dispatcher.Wait()

	temporalClient.AssertExpectations(t)
}

func TestTemporalDispatcher_DuplicateIsNotAnError(t *testing.T) {
	temporalClient := &mocks.Client{}
	temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("exists", "", "run-1")).Once()

	dispatcher := NewTemporalDispatcher(temporalClient, nil)
	err := dispatcher.start(context.Background(), notificationworkflows.NotificationWorkflowInput{
		Notification: ports.Notification{Kind: ports.NotificationBuyerConfirmation, OrderID: 3},
	})
	assert.NoError(t, err)
}

func TestTemporalDispatcher_StartErrorIsReturned(t *testing.T) {
	temporalClient := &mocks.Client{}
	temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("unavailable")).Once()

	dispatcher := NewTemporalDispatcher(temporalClient, nil)
	err := dispatcher.start(context.Background(), notificationworkflows.NotificationWorkflowInput{})
	assert.EqualError(t, err, "unavailable")
}

func TestTemporalDispatcher_RequiresClient(t *testing.T) {
	var dispatcher *TemporalDispatcher
	assert.Error(t, dispatcher.Enqueue(context.Background(), ports.Notification{}))
}
