package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rentspace/messaging/internal/domain"
)

type NotifyCommand struct {
	UserID  string
	Kind    domain.EventKind
	Payload json.RawMessage
}

// Notify forwards an event from another service (favourites, payments) to a
// connected user. Only the argument check can fail; delivery never does.
func (s *Service) Notify(ctx context.Context, cmd NotifyCommand) (bool, error) {
	userID := domain.NormalizeUserID(cmd.UserID)
	if userID == "" {
		return false, fmt.Errorf("%w: user_id is required", domain.ErrInvalidArgument)
	}
	if !cmd.Kind.Valid() {
		return false, fmt.Errorf("%w: unknown event kind %q", domain.ErrInvalidArgument, cmd.Kind)
	}
	if len(cmd.Payload) > 0 && !json.Valid(cmd.Payload) {
		return false, fmt.Errorf("%w: payload is not valid JSON", domain.ErrInvalidArgument)
	}

	var payload any
	if len(cmd.Payload) > 0 {
		payload = cmd.Payload
	}
	return s.notifier.Notify(ctx, userID, cmd.Kind, payload), nil
}
