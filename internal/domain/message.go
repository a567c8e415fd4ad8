package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const MaxBodyLength = 5000

// Message Invariants:
// 1. SenderID and ReceiverID are never empty.
// 2. CreatedAt is immutable.
// 3. IsRead only moves false -> true.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewMessage(id, senderID, receiverID, body string, now time.Time) (*Message, error) {
	senderID = NormalizeUserID(senderID)
	receiverID = NormalizeUserID(receiverID)

	if id == "" {
		return nil, fmt.Errorf("%w: message id is required", ErrInvalidArgument)
	}
	if senderID == "" || receiverID == "" {
		return nil, fmt.Errorf("%w: sender and receiver are required", ErrInvalidArgument)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return nil, fmt.Errorf("%w: body exceeds %d characters", ErrInvalidArgument, MaxBodyLength)
	}

	return &Message{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  now.UTC(),
	}, nil
}

// MarkReadBy applies the UNREAD -> READ transition for readerID.
func (m *Message) MarkReadBy(readerID string) error {
	if m.ReceiverID != NormalizeUserID(readerID) || m.IsRead {
		return ErrNotFound
	}
	m.IsRead = true
	return nil
}

// Between reports whether the message was exchanged by a and b, in either direction.
func (m *Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// PeerOf returns the other party of the message as seen by viewer.
func (m *Message) PeerOf(viewer string) string {
	if m.SenderID == viewer {
		return m.ReceiverID
	}
	return m.SenderID
}

// Before orders messages chronologically, breaking ties by id.
func (m *Message) Before(o *Message) bool {
	if !m.CreatedAt.Equal(o.CreatedAt) {
		return m.CreatedAt.Before(o.CreatedAt)
	}
	return m.ID < o.ID
}
