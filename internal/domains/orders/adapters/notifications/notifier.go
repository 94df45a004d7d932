package notifications

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	platformkafka "github.com/Apurer/marketplace-api/internal/platform/kafka"
)

// EventNotificationEmitted is the event type published for every delivered message.
const EventNotificationEmitted = "notification.emitted"

// Notifier delivers a rendered message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the structured log. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "notification delivered",
		slog.String("notification.kind", string(msg.Kind)),
		slog.Int64("order.id", msg.OrderID),
		slog.String("recipient", msg.Recipient),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// Event is the envelope published to Kafka.
type Event struct {
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
	Type      string    `json:"type"`
	Payload   Message   `json:"payload"`
}

// KafkaNotifier publishes messages as notification.emitted events keyed by order id.
type KafkaNotifier struct {
	writer platformkafka.MessageWriter
	now    func() time.Time
}

func NewKafkaNotifier(writer platformkafka.MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, now: time.Now}
}

func (n *KafkaNotifier) Notify(ctx context.Context, msg Message) error {
	orderID := strconv.FormatInt(msg.OrderID, 10)
	event := Event{
		EventID:   uuid.NewString(),
		OrderID:   orderID,
		CreatedAt: n.now().UTC(),
		Type:      EventNotificationEmitted,
		Payload:   msg,
	}
	return platformkafka.PublishJSON(ctx, n.writer, "order-"+orderID, event)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
