package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/go-storefront/internal/admin"
	"github.com/hugh/go-storefront/internal/api/handlers"
	"github.com/hugh/go-storefront/internal/api/middleware"
	"github.com/hugh/go-storefront/internal/auth"
	"github.com/hugh/go-storefront/internal/database/models"
	"github.com/hugh/go-storefront/internal/products"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BasePath prefixes every API route.
const BasePath = "/api/ecommerce/v1"

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    auth.Authenticator
	ProductService products.Catalog
	AdminService   admin.Inviter
	AllowedOrigins []string // CORS allowed origins
	SecureCookies  bool
	Limiter        middleware.Limiter // applied to every request; nil disables
	AuthLimiter    middleware.Limiter // credential endpoints; nil disables
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Limiter != nil {
		r.Use(middleware.RateLimit(cfg.Limiter, cfg.Logger))
	}

	sessionTTL := 24 * time.Hour
	if cfg.JWTService != nil {
		sessionTTL = cfg.JWTService.Expiry()
	}

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Logger, sessionTTL, cfg.SecureCookies)
	productHandler := handlers.NewProductHandler(cfg.ProductService, cfg.Logger)
	adminHandler := handlers.NewAdminHandler(cfg.AdminService, cfg.Logger)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route(BasePath, func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWTService))
				r.Use(middleware.Require(models.Role.CanManageCatalog))

				r.Post("/", productHandler.Create)
				r.Delete("/{id}", productHandler.Delete)
				r.Patch("/{id}", productHandler.Update)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthLimiter != nil {
				r.Use(middleware.RateLimit(cfg.AuthLimiter, cfg.Logger))
			}

			r.Post("/register", authHandler.Register)
			r.Get("/activate", authHandler.Activate)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Patch("/password", authHandler.UpdatePassword)
			r.Post("/password/forgot", authHandler.ForgotPassword)
			r.Post("/password/reset", authHandler.ResetPassword)
			r.Post("/register/employee", authHandler.RegisterEmployee)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", authHandler.Me)

			r.With(middleware.RequireRole(models.RoleAdmin)).
				Post("/admin/employee-registration-tokens", adminHandler.CreateEmployeeRegistrationToken)
		})
	})

	return &Router{r}
}
