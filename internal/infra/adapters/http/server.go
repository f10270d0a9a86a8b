// Package http provides the HTTP server wiring for the wedlock API.
package http

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	handler "github.com/wedlockhq/wedlock/internal/infra/adapters/http/handler"
	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

// NewHTTPServer builds the API handler: routes bound to the domain handlers,
// the middleware chain around them, and the whole mux wrapped in otelhttp so
// every request carries a span.
func NewHTTPServer(
	eventHandler *handler.EventHandler,
	rsvpHandler *handler.RSVPHandler,
	log *logger.Logger,
	metrics APIMetrics,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/events", eventHandler.Create)
	mux.HandleFunc("GET /api/v1/events", eventHandler.List)
	mux.HandleFunc("GET /api/v1/events/{eventID}", eventHandler.Get)
	mux.HandleFunc("POST /api/v1/events/{eventID}/archive", eventHandler.Archive)
	mux.HandleFunc("DELETE /api/v1/events/{eventID}", eventHandler.Delete)

	mux.HandleFunc("POST /api/v1/events/{eventID}/rsvp", rsvpHandler.Submit)
	mux.HandleFunc("GET /api/v1/events/{eventID}/guests/statistics", rsvpHandler.Statistics)

	h := wrap(mux,
		MetricsMiddleware(metrics),
		LoggerMiddleware(log),
		PanicsMiddleware(log),
	)

	return otelhttp.NewHandler(h, "wedlock-api")
}
