package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/rentspace/messaging/internal/application"
	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/transport"
)

// NotifyHandler lets other marketplace services (favourites, payments) push a
// live event to a user.
type NotifyHandler struct {
	app *application.Service
}

func NewNotifyHandler(app *application.Service) *NotifyHandler {
	return &NotifyHandler{app: app}
}

type notifyRequest struct {
	UserID  string          `json:"user_id" validate:"required"`
	Kind    string          `json:"kind" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if !decode(w, r, &req) {
		return
	}

	delivered, err := h.app.Notify(r.Context(), application.NotifyCommand{
		UserID:  req.UserID,
		Kind:    domain.EventKind(req.Kind),
		Payload: req.Payload,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusAccepted, map[string]bool{"delivered": delivered})
}
