package application

import (
	"context"
	"fmt"

	"github.com/rentspace/messaging/internal/domain"
)

// GetMessages returns the chat history between viewer and peer, oldest first.
func (s *Service) GetMessages(ctx context.Context, viewerID, peerID string) ([]*domain.Message, error) {
	viewerID = domain.NormalizeUserID(viewerID)
	peerID = domain.NormalizeUserID(peerID)
	if viewerID == "" || peerID == "" {
		return nil, fmt.Errorf("%w: viewer and peer are required", domain.ErrInvalidArgument)
	}
	return s.store.ListBetween(ctx, viewerID, peerID)
}
