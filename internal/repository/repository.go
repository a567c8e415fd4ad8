package repository

import (
	"context"

	"github.com/rentspace/messaging/internal/domain"
)

// MessageStore is the source of truth for direct messages and their read flag.
type MessageStore interface {
	// InsertMessage persists msg and reports whether it is the first message
	// ever exchanged by its sender and receiver, in either direction.
	InsertMessage(ctx context.Context, msg *domain.Message) (first bool, err error)

	// ListBetween returns every message exchanged by a and b, oldest first.
	ListBetween(ctx context.Context, a, b string) ([]*domain.Message, error)

	// ListInvolving returns every message sent or received by userID.
	ListInvolving(ctx context.Context, userID string) ([]*domain.Message, error)

	// MarkOneRead flips a single unread message addressed to readerID.
	// Any other case yields domain.ErrNotFound.
	MarkOneRead(ctx context.Context, messageID, readerID string) (*domain.Message, error)

	// MarkAllRead flips every unread message from senderID to receiverID and
	// returns how many changed.
	MarkAllRead(ctx context.Context, senderID, receiverID string) (int64, error)

	Ping(ctx context.Context) error
}
