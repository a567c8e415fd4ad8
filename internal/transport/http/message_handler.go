package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentspace/messaging/internal/application"
	"github.com/rentspace/messaging/internal/auth"
	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/transport"
)

type MessageHandler struct {
	app *application.Service
}

func NewMessageHandler(app *application.Service) *MessageHandler {
	return &MessageHandler{app: app}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Body       string `json:"body" validate:"required,max=5000"`
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req sendMessageRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := h.app.SendMessage(r.Context(), application.SendMessageCommand{
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	peerID := r.URL.Query().Get("peer_id")
	if domain.NormalizeUserID(peerID) == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing_peer_id", "peer_id is required")
		return
	}

	msgs, err := h.app.GetMessages(r.Context(), userID, peerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}

	transport.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	convs, err := h.app.ListConversations(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	msg, err := h.app.MarkRead(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, msg)
}

type markAllReadRequest struct {
	SenderID string `json:"sender_id" validate:"required"`
}

func (h *MessageHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req markAllReadRequest
	if !decode(w, r, &req) {
		return
	}

	n, err := h.app.MarkAllRead(r.Context(), req.SenderID, userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]int64{"count": n})
}
