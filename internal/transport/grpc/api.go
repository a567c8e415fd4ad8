package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/rentspace/messaging/internal/domain"
)

const ServiceName = "messaging.v1.MessagingApi"

const (
	MethodSendMessage       = "/" + ServiceName + "/SendMessage"
	MethodGetMessages       = "/" + ServiceName + "/GetMessages"
	MethodListConversations = "/" + ServiceName + "/ListConversations"
	MethodMarkRead          = "/" + ServiceName + "/MarkRead"
	MethodMarkAllRead       = "/" + ServiceName + "/MarkAllRead"
	MethodNotify            = "/" + ServiceName + "/Notify"
)

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Body       string `json:"body"`
}

type SendMessageResponse struct {
	Message *domain.Message `json:"message"`
}

type GetMessagesRequest struct {
	PeerID string `json:"peer_id"`
}

type GetMessagesResponse struct {
	Messages []*domain.Message `json:"messages"`
}

type ListConversationsRequest struct{}

type ListConversationsResponse struct {
	Conversations []domain.ConversationSummary `json:"conversations"`
}

type MarkReadRequest struct {
	MessageID string `json:"message_id"`
}

type MarkReadResponse struct {
	Message *domain.Message `json:"message"`
}

type MarkAllReadRequest struct {
	SenderID string `json:"sender_id"`
}

type MarkAllReadResponse struct {
	Count int64 `json:"count"`
}

type NotifyRequest struct {
	UserID  string          `json:"user_id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type NotifyResponse struct {
	Delivered bool `json:"delivered"`
}

type MessagingApiServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	GetMessages(context.Context, *GetMessagesRequest) (*GetMessagesResponse, error)
	ListConversations(context.Context, *ListConversationsRequest) (*ListConversationsResponse, error)
	MarkRead(context.Context, *MarkReadRequest) (*MarkReadResponse, error)
	MarkAllRead(context.Context, *MarkAllReadRequest) (*MarkAllReadResponse, error)
	Notify(context.Context, *NotifyRequest) (*NotifyResponse, error)
}

func RegisterMessagingApiServer(s grpc.ServiceRegistrar, srv MessagingApiServer) {
	s.RegisterService(&MessagingApiServiceDesc, srv)
}

// unary adapts a typed method to grpc.MethodDesc's handler shape.
func unary[Req any, Resp any](
	fullMethod string,
	call func(MessagingApiServer, context.Context, *Req) (*Resp, error),
) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MessagingApiServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(MessagingApiServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var MessagingApiServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MessagingApiServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: unary(MethodSendMessage, MessagingApiServer.SendMessage)},
		{MethodName: "GetMessages", Handler: unary(MethodGetMessages, MessagingApiServer.GetMessages)},
		{MethodName: "ListConversations", Handler: unary(MethodListConversations, MessagingApiServer.ListConversations)},
		{MethodName: "MarkRead", Handler: unary(MethodMarkRead, MessagingApiServer.MarkRead)},
		{MethodName: "MarkAllRead", Handler: unary(MethodMarkAllRead, MessagingApiServer.MarkAllRead)},
		{MethodName: "Notify", Handler: unary(MethodNotify, MessagingApiServer.Notify)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "messaging/v1/messaging.json",
}

// Client is a thin caller for other services and tests.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, MethodSendMessage, in, opts...)
}

func (c *Client) GetMessages(ctx context.Context, in *GetMessagesRequest, opts ...grpc.CallOption) (*GetMessagesResponse, error) {
	return invoke[GetMessagesResponse](ctx, c.cc, MethodGetMessages, in, opts...)
}

func (c *Client) ListConversations(ctx context.Context, in *ListConversationsRequest, opts ...grpc.CallOption) (*ListConversationsResponse, error) {
	return invoke[ListConversationsResponse](ctx, c.cc, MethodListConversations, in, opts...)
}

func (c *Client) MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error) {
	return invoke[MarkReadResponse](ctx, c.cc, MethodMarkRead, in, opts...)
}

func (c *Client) MarkAllRead(ctx context.Context, in *MarkAllReadRequest, opts ...grpc.CallOption) (*MarkAllReadResponse, error) {
	return invoke[MarkAllReadResponse](ctx, c.cc, MethodMarkAllRead, in, opts...)
}

func (c *Client) Notify(ctx context.Context, in *NotifyRequest, opts ...grpc.CallOption) (*NotifyResponse, error) {
	return invoke[NotifyResponse](ctx, c.cc, MethodNotify, in, opts...)
}
