package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/auth"
	"github.com/Mur0dDev/Classification-Bot/internal/handler"
	mw "github.com/Mur0dDev/Classification-Bot/internal/middleware"
)

// WebhookPath receives Telegram updates in webhook mode.
const WebhookPath = "/telegram/webhook"

// New builds the admin API. webhook may be nil when the bot polls.
func New(
	jwtSecret string,
	log *zap.Logger,
	authH *handler.AuthHandler,
	dashH *handler.DashboardHandler,
	eventsH *handler.EventsHandler,
	webhook http.Handler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery(log))
	r.Use(mw.Logger(log))
	r.Use(mw.CORS)

	r.Get("/healthz", handler.Health)
	if webhook != nil {
		r.Method(http.MethodPost, WebhookPath, webhook)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", authH.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			r.Get("/auth/me", authH.Me)
			r.Get("/dashboard", dashH.Dashboard)
			r.Get("/sessions", dashH.Sessions)
			r.Get("/flows", dashH.Flows)
			r.Get("/events", eventsH.Stream)
		})
	})

	return r
}
