package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(apiHandler *APIHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.RequestID)    // Tag requests for log correlation
	r.Use(RequestLogger(logger))   // Structured request logging
	r.Use(CORS)                    // Allow the static frontend from anywhere
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// No request timeout middleware: answering can involve several model
	// round trips and indexing on first use.

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", apiHandler.ChatHandler)
		r.Get("/logs", apiHandler.LogsHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
