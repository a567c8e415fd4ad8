package kafka

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/application"
	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/observability"
)

// Notifier is the application entry point for live notifications.
type Notifier interface {
	Notify(ctx context.Context, cmd application.NotifyCommand) (bool, error)
}

// Record is the value of a notification record on the favourite and payment
// topics. Kind may be omitted when the topic implies it.
type Record struct {
	UserID  string          `json:"user_id"`
	Kind    string          `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NotificationHandler turns favourite and payment records into live events.
// Bad records are logged and skipped; there is nothing to retry.
type NotificationHandler struct {
	notifier Notifier
}

func NewNotificationHandler(n Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: n}
}

func (h *NotificationHandler) Handle(ctx context.Context, topic string, value []byte) {
	log := observability.GetLogger(ctx).With(zap.String("topic", topic))

	var rec Record
	if err := json.Unmarshal(value, &rec); err != nil {
		observability.KafkaRecordsTotal.WithLabelValues(topic, "malformed").Inc()
		log.Warn("kafka: malformed notification record", zap.Error(err))
		return
	}

	kind := domain.EventKind(rec.Kind)
	if kind == "" {
		kind = kindForTopic(topic)
	}

	delivered, err := h.notifier.Notify(ctx, application.NotifyCommand{
		UserID:  rec.UserID,
		Kind:    kind,
		Payload: rec.Payload,
	})
	if err != nil {
		observability.KafkaRecordsTotal.WithLabelValues(topic, "rejected").Inc()
		log.Warn("kafka: notification rejected", zap.String("user_id", rec.UserID), zap.Error(err))
		return
	}

	result := "offline"
	if delivered {
		result = "delivered"
	}
	observability.KafkaRecordsTotal.WithLabelValues(topic, result).Inc()
}

// kindForTopic infers the event kind for producers that omit it.
func kindForTopic(topic string) domain.EventKind {
	switch {
	case strings.HasPrefix(topic, "favourite"):
		return domain.EventNewFavourite
	case strings.HasPrefix(topic, "payment"):
		return domain.EventNewPayment
	default:
		return ""
	}
}
