package dispatcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/observability"
	"github.com/rentspace/messaging/internal/presence"
)

// Lookup is the read side of the presence registry.
type Lookup interface {
	Lookup(userID string) (presence.Handle, bool)
}

// Dispatcher pushes events to users that currently hold a live connection.
// Delivery is best effort and at most once; absent users are skipped.
type Dispatcher struct {
	registry Lookup
	now      func() time.Time
}

func New(registry Lookup) *Dispatcher {
	return &Dispatcher{registry: registry, now: time.Now}
}

// Notify reports whether the event was handed to a live connection. It never
// fails: an offline user or a refusing connection is a normal outcome.
func (d *Dispatcher) Notify(ctx context.Context, userID string, kind domain.EventKind, payload any) bool {
	log := observability.GetLogger(ctx)

	h, ok := d.registry.Lookup(domain.NormalizeUserID(userID))
	if !ok {
		observability.EventsDispatchedTotal.WithLabelValues(string(kind), "offline").Inc()
		log.Debug("dispatcher: recipient offline, dropping event",
			zap.String("user_id", userID), zap.String("kind", string(kind)))
		return false
	}

	raw, err := domain.Event{
		Type:       kind,
		Payload:    payload,
		OccurredAt: d.now().UTC(),
	}.Encode()
	if err != nil {
		observability.EventsDispatchedTotal.WithLabelValues(string(kind), "encode_error").Inc()
		log.Error("dispatcher: error encoding event", zap.String("kind", string(kind)), zap.Error(err))
		return false
	}

	if !h.Push(raw) {
		observability.EventsDispatchedTotal.WithLabelValues(string(kind), "refused").Inc()
		log.Warn("dispatcher: connection refused event",
			zap.String("user_id", userID), zap.String("kind", string(kind)), zap.String("session_id", h.ID()))
		return false
	}

	observability.EventsDispatchedTotal.WithLabelValues(string(kind), "delivered").Inc()
	log.Debug("dispatcher: local delivery success",
		zap.String("user_id", userID), zap.String("kind", string(kind)))
	return true
}
