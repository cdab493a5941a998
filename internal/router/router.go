package router

import (
	"net/http"

	"gm-ticket-service/internal/handler"
	"gm-ticket-service/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler       *handler.Handler
	TicketHandler *handler.TicketHandler
	GMHandler     *handler.GMHandler
	GMMiddleware  func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
		}

		// Player ticket endpoints (the world server proxies client opcodes
		// here; per-player authorization happens before the proxy call)
		if cfg.TicketHandler != nil {
			r.Get("/tickets/status", cfg.TicketHandler.SystemStatus)
			r.Route("/tickets/{player_id}", func(r chi.Router) {
				r.Post("/", cfg.TicketHandler.CreateTicket)
				r.Get("/", cfg.TicketHandler.GetTicket)
				r.Put("/text", cfg.TicketHandler.UpdateTicketText)
				r.Delete("/", cfg.TicketHandler.DeleteTicket)
				r.Post("/survey", cfg.TicketHandler.SubmitSurvey)
			})
		}

		// GM endpoints (shared-key gated)
		if cfg.GMHandler != nil {
			r.Group(func(r chi.Router) {
				if cfg.GMMiddleware != nil {
					r.Use(cfg.GMMiddleware)
				}

				r.Route("/gm", func(r chi.Router) {
					r.Get("/tickets", cfg.GMHandler.ListTickets)
					r.Delete("/tickets", cfg.GMHandler.DeleteAllTickets)
					r.Get("/tickets/{pos:[0-9]+}", cfg.GMHandler.GetTicketByPosition)
					r.Route("/tickets/player/{player_id}", func(r chi.Router) {
						r.Post("/", cfg.GMHandler.CreateTicket)
						r.Post("/respond", cfg.GMHandler.RespondToTicket)
						r.Post("/close", cfg.GMHandler.CloseTicket)
						r.Delete("/", cfg.GMHandler.DeleteTicket)
					})
					r.Put("/system", cfg.GMHandler.SetSystemStatus)
				})
			})
		}
	})

	return r
}
