package domain

import (
	"encoding/json"
	"time"
)

type EventKind string

const (
	EventNewMessage     EventKind = "new-message"
	EventNewUserMessage EventKind = "new-user-message"
	EventMessagesRead   EventKind = "messages-read"
	EventNewFavourite   EventKind = "new-favourite"
	EventNewPayment     EventKind = "new-payment"
)

var knownKinds = map[EventKind]struct{}{
	EventNewMessage:     {},
	EventNewUserMessage: {},
	EventMessagesRead:   {},
	EventNewFavourite:   {},
	EventNewPayment:     {},
}

func (k EventKind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// Event is the envelope pushed to a live connection.
type Event struct {
	Type       EventKind `json:"type"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type NewMessagePayload struct {
	Message      *Message             `json:"message"`
	Conversation *ConversationSummary `json:"conversation,omitempty"`
}

type MessagesReadPayload struct {
	ReaderID string `json:"reader_id"`
	Count    int64  `json:"count"`
}
