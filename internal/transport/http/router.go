package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-user-directory/internal/application/auth"
	"github.com/go-user-directory/internal/application/user"
	"github.com/go-user-directory/internal/config"
	jwtinfra "github.com/go-user-directory/internal/infrastructure/jwt"
	"github.com/go-user-directory/internal/transport/http/handler"
	appmiddleware "github.com/go-user-directory/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router. Login is public but
// rate-limited; every user-directory route requires a valid Bearer token.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — login is the only credential oracle.
	loginRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(deps.UserRepo, deps.JWTProvider)
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:   deps.UserRepo,
		BcryptCost: cfg.BcryptCost,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/ping", healthH.Ping)
		r.With(loginRL.Limit).Post("/login", authH.Login)

		// ── Token-gated routes ───────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/users", userH.List)
			r.Get("/users/export", userH.Export)
			r.Get("/users/by-email", userH.GetByEmail)
			r.Get("/users/{id}", userH.Get)
			r.Post("/users", userH.Create)
			r.Put("/users/{id}", userH.Update)
			r.Delete("/users/{id}", userH.Delete)
		})
	})

	return r
}
