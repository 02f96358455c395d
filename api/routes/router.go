package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/addonhub-backend/api/controllers"
	"github.com/angelmondragon/addonhub-backend/api/middleware"
	"github.com/angelmondragon/addonhub-backend/internal/addons"
	"github.com/angelmondragon/addonhub-backend/internal/auth"
	"github.com/angelmondragon/addonhub-backend/internal/users"
	"github.com/angelmondragon/addonhub-backend/pkg/auth/session"
	"github.com/angelmondragon/addonhub-backend/pkg/config"
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	"github.com/angelmondragon/addonhub-backend/pkg/logger"
	"github.com/angelmondragon/addonhub-backend/pkg/metrics"
)

// RateLimitStore is the fixed window counter behind login and register throttling.
type RateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies are the collaborators the HTTP surface is built from. Nil
// services answer with 500; nil infrastructure disables the feature using it.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker
	// RateLimiter nil disables auth rate limiting.
	RateLimiter RateLimitStore
	// Readiness is pinged by /health/ready, keyed by dependency name.
	Readiness map[string]controllers.Pinger

	Addons addons.Service
	Users  users.Service
	Auth   auth.Service

	HTTPMetrics *metrics.HTTPMetrics
	// Gatherer nil leaves /metrics unmounted.
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			login := r.With()
			register := r.With()
			if deps.RateLimiter != nil {
				login = r.With(middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg))
				register = r.With(middleware.AuthRateLimit(middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg))
			}
			register.Post("/register", controllers.AuthRegister(deps.Auth, logg))
			login.Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
				r.Get("/me", controllers.AuthMe(deps.Auth, logg))
			})
		})

		r.Route("/addons", func(r chi.Router) {
			r.With(optionalAuth).Get("/", controllers.ListAddons(deps.Addons, logg))
			r.With(optionalAuth).Get("/{id}", controllers.GetAddon(deps.Addons, logg))
			r.Patch("/{id}/views", controllers.IncrementAddonViews(deps.Addons, logg))
			r.Patch("/{id}/downloads", controllers.IncrementAddonDownloads(deps.Addons, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", controllers.CreateAddon(deps.Addons, logg))
				r.Put("/{id}", controllers.UpdateAddon(deps.Addons, logg))
				r.Delete("/{id}", controllers.DeleteAddon(deps.Addons, logg))
			})
		})

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", controllers.GetUserProfile(deps.Users, logg))
			r.Get("/addons", controllers.ListUserAddons(deps.Addons, logg))
			r.With(requireAuth).Put("/", controllers.UpdateUserProfile(deps.Users, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Patch("/addons/{id}/featured", controllers.AdminSetAddonFeatured(deps.Addons, logg))
		})
	})

	return r
}
