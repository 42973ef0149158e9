package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the payments API routes. The whole router is wrapped in an
// otelhttp handler so every request gets a server span; the coordinator
// records the resulting trace id on the transaction.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.Health)
	r.Post("/payments", handler.ProcessPayment)
	r.Get("/payments/{transactionId}/status", handler.GetPaymentStatus)

	return otelhttp.NewHandler(r, "payments-service")
}
