package httptransport

import (
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/rentspace/messaging/internal/application"
	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/transport"
)

const maxPresenceIDs = 100

type PresenceHandler struct {
	status application.StatusReader
}

func NewPresenceHandler(status application.StatusReader) *PresenceHandler {
	return &PresenceHandler{status: status}
}

type presenceEntry struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
	Status string `json:"status"`
}

func (h *PresenceHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	ids := lo.Uniq(lo.Compact(lo.Map(
		strings.Split(r.URL.Query().Get("user_ids"), ","),
		func(id string, _ int) string { return domain.NormalizeUserID(id) },
	)))
	if len(ids) == 0 {
		transport.WriteError(w, http.StatusBadRequest, "missing_user_ids", "user_ids is required")
		return
	}
	if len(ids) > maxPresenceIDs {
		transport.WriteError(w, http.StatusBadRequest, "invalid_argument", "too many user_ids")
		return
	}

	out := make([]presenceEntry, 0, len(ids))
	for _, id := range ids {
		online, label := h.status.Status(r.Context(), id)
		out = append(out, presenceEntry{UserID: id, Online: online, Status: label})
	}

	transport.WriteJSON(w, http.StatusOK, map[string]any{"presence": out})
}
