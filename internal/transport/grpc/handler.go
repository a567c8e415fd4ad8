package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rentspace/messaging/internal/application"
	"github.com/rentspace/messaging/internal/auth"
	"github.com/rentspace/messaging/internal/domain"
)

func caller(ctx context.Context) (string, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return "", status.Error(codes.Unauthenticated, "caller identity is missing")
	}
	return userID, nil
}

func (s *Server) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := s.app.SendMessage(ctx, application.SendMessageCommand{
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
	})
	if err != nil {
		return nil, MapError(err)
	}
	return &SendMessageResponse{Message: msg}, nil
}

func (s *Server) GetMessages(ctx context.Context, req *GetMessagesRequest) (*GetMessagesResponse, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	msgs, err := s.app.GetMessages(ctx, userID, req.PeerID)
	if err != nil {
		return nil, MapError(err)
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return &GetMessagesResponse{Messages: msgs}, nil
}

func (s *Server) ListConversations(ctx context.Context, _ *ListConversationsRequest) (*ListConversationsResponse, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	convs, err := s.app.ListConversations(ctx, userID)
	if err != nil {
		return nil, MapError(err)
	}
	return &ListConversationsResponse{Conversations: convs}, nil
}

func (s *Server) MarkRead(ctx context.Context, req *MarkReadRequest) (*MarkReadResponse, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := s.app.MarkRead(ctx, req.MessageID, userID)
	if err != nil {
		return nil, MapError(err)
	}
	return &MarkReadResponse{Message: msg}, nil
}

func (s *Server) MarkAllRead(ctx context.Context, req *MarkAllReadRequest) (*MarkAllReadResponse, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.app.MarkAllRead(ctx, req.SenderID, userID)
	if err != nil {
		return nil, MapError(err)
	}
	return &MarkAllReadResponse{Count: n}, nil
}

func (s *Server) Notify(ctx context.Context, req *NotifyRequest) (*NotifyResponse, error) {
	delivered, err := s.app.Notify(ctx, application.NotifyCommand{
		UserID:  req.UserID,
		Kind:    domain.EventKind(req.Kind),
		Payload: req.Payload,
	})
	if err != nil {
		return nil, MapError(err)
	}
	return &NotifyResponse{Delivered: delivered}, nil
}
