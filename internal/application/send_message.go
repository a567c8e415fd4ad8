package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/observability"
)

type SendMessageCommand struct {
	SenderID   string
	ReceiverID string
	Body       string
}

// SendMessage persists a direct message and pushes it to the receiver when
// they are connected. A push that cannot be delivered does not fail the send.
func (s *Service) SendMessage(ctx context.Context, cmd SendMessageCommand) (*domain.Message, error) {
	msg, err := domain.NewMessage(s.newID(), cmd.SenderID, cmd.ReceiverID, cmd.Body, s.now())
	if err != nil {
		return nil, err
	}

	first, err := s.store.InsertMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	observability.MessagesSentTotal.Inc()

	s.log.Debug("message stored",
		zap.String("message_id", msg.ID),
		zap.String("sender_id", msg.SenderID),
		zap.String("receiver_id", msg.ReceiverID),
		zap.Bool("first_exchange", first),
	)

	payload := domain.NewMessagePayload{Message: msg}
	if s.presence != nil && s.presence.IsOnline(msg.ReceiverID) {
		summary, err := s.conversationFor(ctx, msg.ReceiverID, msg.SenderID)
		if err != nil {
			s.log.Warn("failed to summarize conversation for push",
				zap.String("receiver_id", msg.ReceiverID), zap.Error(err))
		}
		payload.Conversation = summary
	}

	s.notifier.Notify(ctx, msg.ReceiverID, domain.EventNewMessage, payload)
	if first {
		s.notifier.Notify(ctx, msg.ReceiverID, domain.EventNewUserMessage, payload)
	}

	return msg, nil
}
