package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/isdelr/socialquest-be/internal/api/handlers"
	"github.com/isdelr/socialquest-be/internal/auth"
	"github.com/isdelr/socialquest-be/internal/config"
	"github.com/isdelr/socialquest-be/internal/services"
	"github.com/isdelr/socialquest-be/internal/websocket"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Services bundles the providers the HTTP layer depends on.
type Services struct {
	Auth       services.AuthServiceProvider
	Users      services.UserServiceProvider
	Posts      services.PostServiceProvider
	Challenges services.ChallengeServiceProvider
	Events     services.EventServiceProvider
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, verifier auth.Verifier, hub *websocket.Hub, svc Services) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	authHandler := handlers.NewAuthHandler(svc.Auth)
	userHandler := handlers.NewUserHandler(svc.Users)
	eventHandler := handlers.NewEventHandler(svc.Events)
	postHandler := handlers.NewPostHandler(svc.Posts)
	challengeHandler := handlers.NewChallengeHandler(svc.Challenges)
	wsHandler := handlers.NewWebSocketHandler(hub, cfg.CORSOrigins)

	requireAuth := auth.JWTMiddleware(verifier)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.AuthRateLimit, cfg.AuthRateWindow))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(requireAuth).Post("/logout", authHandler.Logout)
	})

	r.With(auth.WebSocketMiddleware(verifier)).Get("/ws", wsHandler.Serve)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", userHandler.GetMe)
			r.Get("/events", eventHandler.GetRecent)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.List)
			r.Post("/", postHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.Get)
				r.Post("/like", postHandler.Like)
				r.Post("/comments", postHandler.Comment)
			})
		})

		r.Get("/challenges", challengeHandler.GetAll)
		r.Post("/level-up", userHandler.LevelUp)
	})

	return r
}
