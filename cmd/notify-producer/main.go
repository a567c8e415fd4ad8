// Command notify-producer publishes one favourite or payment notification
// record, the way marketplace services do, to check the live push path end to
// end.
package main

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/rentspace/messaging/internal/kafka"
)

type config struct {
	Brokers string `env:"KAFKA_BROKERS,required=true"`
	Topic   string `env:"NOTIFY_TOPIC,default=favourite-events"`
	UserID  string `env:"NOTIFY_USER_ID,required=true"`
	Kind    string `env:"NOTIFY_KIND"`
	Payload string `env:"NOTIFY_PAYLOAD"`
}

func main() {
	_ = godotenv.Load()
	var cfg config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatalf("config error: %v", err)
	}

	rec := kafka.Record{UserID: cfg.UserID, Kind: cfg.Kind}
	if cfg.Payload != "" {
		if !json.Valid([]byte(cfg.Payload)) {
			log.Fatalf("NOTIFY_PAYLOAD is not valid JSON")
		}
		rec.Payload = json.RawMessage(cfg.Payload)
	}

	p := kafka.NewProducer(strings.Split(cfg.Brokers, ","))
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.Publish(ctx, cfg.Topic, rec); err != nil {
		log.Fatalf("publish failed: %v", err)
	}
	log.Printf("published to %s for user %s", cfg.Topic, cfg.UserID)
}
