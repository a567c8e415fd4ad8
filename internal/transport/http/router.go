package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rentspace/messaging/internal/auth"
	"github.com/rentspace/messaging/internal/observability"
)

type RouterConfig struct {
	ServiceName       string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	InternalToken     string
}

func NewRouter(
	cfg RouterConfig,
	msgH *MessageHandler,
	presenceH *PresenceHandler,
	notifyH *NotifyHandler,
	ws http.Handler,
	verifier *auth.Verifier,
	checks map[string]observability.Checker,
) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(observability.MetricsMiddleware(cfg.ServiceName))
	r.Use(Recovery())

	r.Get("/health/live", observability.HealthLiveHandler)
	r.Get("/health/ready", observability.HealthReadyHandler(checks))

	if ws != nil {
		r.Handle("/ws", ws)
	}

	r.Group(func(p chi.Router) {
		if cfg.RateLimitRequests > 0 {
			p.Use(httprate.LimitByIP(cfg.RateLimitRequests, window(cfg.RateLimitWindow)))
		}
		if cfg.RequestTimeout > 0 {
			p.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		p.Group(func(api chi.Router) {
			api.Use(verifier.Middleware)

			api.Post("/api/messages", msgH.SendMessage)
			api.Get("/api/messages", msgH.GetMessages)
			api.Post("/api/messages/read-all", msgH.MarkAllRead)
			api.Post("/api/messages/{id}/read", msgH.MarkRead)
			api.Get("/api/conversations", msgH.ListConversations)
			api.Get("/api/presence", presenceH.GetPresence)
		})

		p.Group(func(internal chi.Router) {
			internal.Use(InternalToken(cfg.InternalToken))
			internal.Post("/internal/notify", notifyH.Notify)
		})
	})

	return otelhttp.NewHandler(r, cfg.ServiceName)
}

func window(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	return d
}
