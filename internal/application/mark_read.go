package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/observability"
)

// MarkRead flips one message to read on behalf of its receiver. Missing,
// already read, and foreign messages all report domain.ErrNotFound.
func (s *Service) MarkRead(ctx context.Context, messageID, readerID string) (*domain.Message, error) {
	readerID = domain.NormalizeUserID(readerID)
	if messageID == "" || readerID == "" {
		return nil, fmt.Errorf("%w: message id and reader are required", domain.ErrInvalidArgument)
	}

	msg, err := s.store.MarkOneRead(ctx, messageID, readerID)
	if err != nil {
		return nil, err
	}
	observability.MessagesReadTotal.WithLabelValues("single").Inc()
	return msg, nil
}

// MarkAllRead flips every unread message senderID sent to readerID and
// tells the sender how many were read.
func (s *Service) MarkAllRead(ctx context.Context, senderID, readerID string) (int64, error) {
	senderID = domain.NormalizeUserID(senderID)
	readerID = domain.NormalizeUserID(readerID)
	if senderID == "" || readerID == "" {
		return 0, fmt.Errorf("%w: sender and reader are required", domain.ErrInvalidArgument)
	}

	n, err := s.store.MarkAllRead(ctx, senderID, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	observability.MessagesReadTotal.WithLabelValues("bulk").Add(float64(n))
	s.log.Debug("messages read",
		zap.String("sender_id", senderID), zap.String("reader_id", readerID), zap.Int64("count", n))

	s.notifier.Notify(ctx, senderID, domain.EventMessagesRead, domain.MessagesReadPayload{
		ReaderID: readerID,
		Count:    n,
	})
	return n, nil
}
