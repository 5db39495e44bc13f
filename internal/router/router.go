package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"guardian-backend/internal/handlers"
	"guardian-backend/internal/middleware"
	"guardian-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	alertHandler *handlers.AlertHandler,
	ingestHandler *handlers.IngestHandler,
	sessionHandler *handlers.SessionHandler,
	reportHandler *handlers.ReportHandler,
	emailHandler *handlers.EmailHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	allowedOrigin string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(allowedOrigin))

	// Ingest rate limiter (10 req/s per device, bursts of 30)
	ingestLimiter := middleware.NewRateLimiter(10, 30)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Ingest Routes ────
		r.Route("/ingest", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			if ingestLimiter != nil {
				r.Use(ingestLimiter.Middleware)
			}
			r.Post("/metadata", ingestHandler.Metadata)
			r.Post("/frames", ingestHandler.Frames)
		})

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", sessionHandler.Start)
			r.Post("/{sessionID}/end", sessionHandler.End)
			r.Get("/{sessionID}/status", sessionHandler.Status)
		})

		// ──── Alert Config Routes ────
		r.Route("/alerts", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/config", alertHandler.SetConfig)
			r.Get("/config/{childID}", alertHandler.GetConfig)
			r.Get("/status/{sessionID}", alertHandler.Status)
		})

		// ──── Report Routes ────
		r.Route("/reports", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/daily/{childID}", reportHandler.Daily)
			r.Get("/weekly/{childID}", reportHandler.Weekly)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.Get)
		})

		// ──── Email Routes ────
		r.Route("/email", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/test", emailHandler.Test)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
