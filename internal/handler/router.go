package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/projectcancer/internal/middleware"
)

type RouterOptions struct {
	CORSAllowedOrigins []string
	// RefreshRequiresAccessToken ставит /v1/auth/refresh за BearerAuth.
	RefreshRequiresAccessToken bool
	InternalSecret             string
	// RateLimitPerMinute: запросов к /v1/auth/* с одного IP; 0 отключает.
	RateLimitPerMinute int
	// TrustProxyHeaders: адрес клиента из X-Real-Ip/X-Forwarded-For (chi RealIP).
	// Без него используется RemoteAddr соединения.
	TrustProxyHeaders bool
	// AccessLog включает chi middleware.Logger.
	AccessLog bool
}

// NewRouter собирает маршруты auth-сервиса.
func NewRouter(h *AuthHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	if opts.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.RequestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	bearer := middleware.BearerAuth(h.sessions)

	r.Get("/health", Health)
	r.With(middleware.InternalOnly(opts.InternalSecret)).Post("/internal/validate", h.ValidateInternal)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/", Info)
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(opts.RateLimitPerMinute, time.Minute))
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
			if opts.RefreshRequiresAccessToken {
				r.With(bearer).Post("/refresh", h.Refresh)
			} else {
				r.Post("/refresh", h.Refresh)
			}
			r.Delete("/logout", h.Logout)
			r.With(bearer).Get("/me", h.Me)
		})
	})
	return r
}
