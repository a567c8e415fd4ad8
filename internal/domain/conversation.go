package domain

// Peer is the presentation info of the other party of a conversation.
type Peer struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Status      string `json:"status"`
	Online      bool   `json:"online"`
}

// ConversationSummary is derived per (viewer, peer) from the message store
// and is never persisted.
type ConversationSummary struct {
	Peer        Peer     `json:"peer"`
	LastMessage *Message `json:"last_message"`
	UnreadCount int      `json:"unread_count"`
}
