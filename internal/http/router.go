package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"monsurface-assistant/internal/handlers"
	"monsurface-assistant/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Assistant service.Assistant
	Catalog   handlers.CatalogStatter
	// Messenger is nil when no chat channel is configured; /callback is
	// then not registered.
	Messenger handlers.Messenger
	// AskToken is the bearer token /api/ask requires. When empty the route
	// is not registered.
	AskToken string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if deps.Messenger != nil {
		r.Method(http.MethodPost, "/callback", handlers.NewWebhookHandler(deps.Messenger, deps.Assistant))
	}

	r.Route("/api", func(r chi.Router) {
		if deps.AskToken != "" {
			r.With(BearerAuth(deps.AskToken)).Method(http.MethodPost, "/ask", handlers.NewAskHandler(deps.Assistant))
		}
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Catalog))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Platform liveness probe
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
