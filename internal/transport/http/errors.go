package httptransport

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/observability"
	"github.com/rentspace/messaging/internal/transport"
)

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		transport.WriteError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		transport.WriteError(w, http.StatusNotFound, "not_found", domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		transport.WriteError(w, http.StatusUnauthorized, "unauthenticated", "authentication failed")
	case errors.Is(err, context.DeadlineExceeded):
		transport.WriteError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		observability.GetLogger(r.Context()).Error("internal_error", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
