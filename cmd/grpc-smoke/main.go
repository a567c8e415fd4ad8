// Command grpc-smoke sends a direct message over the gRPC API and prints the
// receiver's conversation list.
package main

import (
	"context"
	"log"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/rentspace/messaging/internal/auth"
	grpctransport "github.com/rentspace/messaging/internal/transport/grpc"
)

type config struct {
	Addr     string `env:"SMOKE_GRPC_ADDR,default=localhost:50052"`
	Sender   string `env:"SMOKE_SENDER,required=true"`
	Receiver string `env:"SMOKE_RECEIVER,required=true"`
	Body     string `env:"SMOKE_BODY,default=Is the flat still available?"`
}

func as(ctx context.Context, userID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, auth.HeaderUserID, userID)
}

func main() {
	_ = godotenv.Load()
	var cfg config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatalf("config error: %v", err)
	}

	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	defer conn.Close()
	c := grpctransport.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sent, err := c.SendMessage(as(ctx, cfg.Sender), &grpctransport.SendMessageRequest{
		ReceiverID: cfg.Receiver,
		Body:       cfg.Body,
	})
	if err != nil {
		log.Fatalf("could not send message: %v", err)
	}
	log.Printf("sent message %s at %s", sent.Message.ID, sent.Message.CreatedAt.Format(time.RFC3339))

	convs, err := c.ListConversations(as(ctx, cfg.Receiver), &grpctransport.ListConversationsRequest{})
	if err != nil {
		log.Fatalf("could not list conversations: %v", err)
	}
	for _, conv := range convs.Conversations {
		log.Printf("peer=%s unread=%d status=%q last=%q",
			conv.Peer.UserID, conv.UnreadCount, conv.Peer.Status, conv.LastMessage.Body)
	}
}
