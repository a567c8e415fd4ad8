package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/presence"
	"github.com/rentspace/messaging/internal/profile"
)

// ListConversations summarizes every peer viewerID has exchanged messages
// with, most recently active first. Summaries are rebuilt from the store on
// every call.
func (s *Service) ListConversations(ctx context.Context, viewerID string) ([]domain.ConversationSummary, error) {
	viewerID = domain.NormalizeUserID(viewerID)
	if viewerID == "" {
		return nil, fmt.Errorf("%w: viewer is required", domain.ErrInvalidArgument)
	}

	msgs, err := s.store.ListInvolving(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	summaries := Aggregate(viewerID, msgs)
	s.decorate(ctx, summaries)
	return summaries, nil
}

// conversationFor builds the single summary viewer sees for peer.
func (s *Service) conversationFor(ctx context.Context, viewerID, peerID string) (*domain.ConversationSummary, error) {
	msgs, err := s.store.ListBetween(ctx, viewerID, peerID)
	if err != nil {
		return nil, err
	}
	summaries := Aggregate(viewerID, msgs)
	if len(summaries) == 0 {
		return nil, nil
	}
	s.decorate(ctx, summaries)
	return &summaries[0], nil
}

// Aggregate groups msgs by the normalized other party of viewerID and returns
// one summary per peer ordered by last activity, newest first. Ties on
// timestamp fall back to peer id.
func Aggregate(viewerID string, msgs []*domain.Message) []domain.ConversationSummary {
	viewerID = domain.NormalizeUserID(viewerID)

	involved := lo.Filter(msgs, func(m *domain.Message, _ int) bool {
		return m != nil && (domain.NormalizeUserID(m.SenderID) == viewerID || domain.NormalizeUserID(m.ReceiverID) == viewerID)
	})

	byPeer := lo.GroupBy(involved, func(m *domain.Message) string {
		if domain.NormalizeUserID(m.SenderID) == viewerID {
			return domain.NormalizeUserID(m.ReceiverID)
		}
		return domain.NormalizeUserID(m.SenderID)
	})

	out := make([]domain.ConversationSummary, 0, len(byPeer))
	for peerID, group := range byPeer {
		if len(group) == 0 {
			continue
		}

		last := lo.MaxBy(group, func(a, b *domain.Message) bool {
			return b.Before(a)
		})

		unread := lo.CountBy(group, func(m *domain.Message) bool {
			return !m.IsRead &&
				domain.NormalizeUserID(m.ReceiverID) == viewerID &&
				domain.NormalizeUserID(m.SenderID) == peerID
		})

		out = append(out, domain.ConversationSummary{
			Peer:        domain.Peer{UserID: peerID},
			LastMessage: last,
			UnreadCount: unread,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastMessage, out[j].LastMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return out[i].Peer.UserID < out[j].Peer.UserID
	})
	return out
}

// decorate fills in display name, avatar and live status. Profile lookup
// failures degrade to the bare user id.
func (s *Service) decorate(ctx context.Context, summaries []domain.ConversationSummary) {
	if len(summaries) == 0 {
		return
	}

	ids := lo.Map(summaries, func(c domain.ConversationSummary, _ int) string {
		return c.Peer.UserID
	})

	profiles, err := s.profiles.Lookup(ctx, ids)
	if err != nil {
		s.log.Warn("profile lookup failed", zap.Error(err))
		profiles = nil
	}

	for i := range summaries {
		peer := &summaries[i].Peer
		p, ok := profiles[peer.UserID]
		if !ok || p.DisplayName == "" {
			fb := profile.Fallback(peer.UserID)
			p.DisplayName = fb.DisplayName
		}
		peer.DisplayName = p.DisplayName
		peer.AvatarURL = p.AvatarURL
		peer.Online, peer.Status = s.peerStatus(ctx, peer.UserID)
	}
}

func (s *Service) peerStatus(ctx context.Context, userID string) (bool, string) {
	if s.status != nil {
		return s.status.Status(ctx, userID)
	}
	online := s.presence != nil && s.presence.IsOnline(userID)
	return online, presence.Label(online, time.Time{}, false, time.Time{})
}
