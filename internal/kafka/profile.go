package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/observability"
)

// ProfileInvalidator drops cached presentation info for a user.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// ProfileRecord is published by the account service when a user changes
// their display name or avatar.
type ProfileRecord struct {
	UserID string `json:"user_id"`
}

type ProfileHandler struct {
	cache ProfileInvalidator
}

func NewProfileHandler(c ProfileInvalidator) *ProfileHandler {
	return &ProfileHandler{cache: c}
}

func (h *ProfileHandler) Handle(ctx context.Context, topic string, value []byte) {
	log := observability.GetLogger(ctx).With(zap.String("topic", topic))

	var rec ProfileRecord
	if err := json.Unmarshal(value, &rec); err != nil || domain.NormalizeUserID(rec.UserID) == "" {
		observability.KafkaRecordsTotal.WithLabelValues(topic, "malformed").Inc()
		log.Warn("kafka: malformed profile record", zap.Error(err))
		return
	}

	userID := domain.NormalizeUserID(rec.UserID)
	if err := h.cache.Invalidate(ctx, userID); err != nil {
		observability.KafkaRecordsTotal.WithLabelValues(topic, "error").Inc()
		log.Error("kafka: profile invalidation failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	observability.KafkaRecordsTotal.WithLabelValues(topic, "invalidated").Inc()
}
