package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/kcexn/collaborate-core/internal/application/account"
	"github.com/kcexn/collaborate-core/internal/application/auth"
	"github.com/kcexn/collaborate-core/internal/application/document"
	"github.com/kcexn/collaborate-core/internal/config"
	jwtinfra "github.com/kcexn/collaborate-core/internal/infrastructure/jwt"
	"github.com/kcexn/collaborate-core/internal/transport/http/handler"
	appmiddleware "github.com/kcexn/collaborate-core/internal/transport/http/middleware"
)

// Deps holds the services the router exposes.
type Deps struct {
	Accounts    account.Service
	Auth        auth.Service
	Documents   document.Service
	JWTProvider *jwtinfra.Provider
	WSHandler   http.Handler
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(deps.Accounts, deps.Auth)
	sessionH := handler.NewSessionHandler(deps.Auth)
	docH := handler.NewDocumentHandler(deps.Documents)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/{id}", userH.Get)
			r.Patch("/users/{id}", userH.UpdateProfile)
			r.Delete("/users/{id}", userH.Delete)
			r.Post("/users/{id}/password", userH.ChangePassword)

			r.Post("/documents", docH.Create)
			r.Get("/documents/{id}", docH.Get)
			r.Get("/documents/{id}/content", docH.GetContent)
			r.Put("/documents/{id}/content", docH.UpdateContent)
		})
	})

	if deps.WSHandler != nil {
		r.Handle("/ws", deps.WSHandler)
	}

	return r
}
