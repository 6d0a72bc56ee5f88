package http

import (
	"net/http"

	"github.com/brokerage-api/internal/application/activity"
	"github.com/brokerage-api/internal/application/commission"
	"github.com/brokerage-api/internal/application/export"
	"github.com/brokerage-api/internal/application/listing"
	"github.com/brokerage-api/internal/application/session"
	"github.com/brokerage-api/internal/application/settings"
	"github.com/brokerage-api/internal/application/user"
	"github.com/brokerage-api/internal/config"
	"github.com/brokerage-api/internal/domain"
	"github.com/brokerage-api/internal/transport/http/handler"
	appmiddleware "github.com/brokerage-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
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

	sessionDeps := session.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		ActivityRepo:    deps.ActivityRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}
	if deps.GoogleVerifier != nil {
		sessionDeps.GoogleVerifier = deps.GoogleVerifier
	}
	sessionSvc := session.NewService(sessionDeps)
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	listingSvc := listing.NewService(listing.ServiceDeps{
		ListingRepo:  deps.ListingRepo,
		ImageRepo:    deps.ImageRepo,
		ObjectStore:  deps.S3Store,
		ActivityRepo: deps.ActivityRepo,
		Geocoder:     deps.Geocoder,
	})
	settingsSvc := settings.NewService(deps.SettingsRepo)
	commissionSvc := commission.NewService(commission.ServiceDeps{
		CommissionRepo: deps.CommissionRepo,
		ListingRepo:    deps.ListingRepo,
		UserRepo:       deps.UserRepo,
		ActivityRepo:   deps.ActivityRepo,
		Notifier: &commission.AgentNotifier{
			Mailer:       deps.Mailer,
			SMSSender:    deps.SMSSender,
			SettingsRepo: deps.SettingsRepo,
		},
	})
	activitySvc := activity.NewService(deps.ActivityRepo)
	exportSvc := export.NewService(export.ServiceDeps{
		UserRepo:     deps.UserRepo,
		ListingRepo:  deps.ListingRepo,
		ActivityRepo: deps.ActivityRepo,
		Settings:     settingsSvc,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	listingH := handler.NewListingHandler(listingSvc)
	commissionH := handler.NewCommissionHandler(commissionSvc)
	settingsH := handler.NewSettingsHandler(settingsSvc)
	activityH := handler.NewActivityHandler(activitySvc)
	exportH := handler.NewExportHandler(exportSvc)

	// Page-route guard: one ordered route table, fixed redirects applied first.
	r.Use(appmiddleware.Guard(appmiddleware.DefaultRouteTable, cfg.RedirectRules, sessionSvc))

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/login/google", sessionH.LoginWithGoogle)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.Get("/listings", listingH.Browse)
		r.Get("/listings/{id}", listingH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)

			r.Post("/listings", listingH.Create)
			r.Get("/listings/mine", listingH.ListMine)
			r.Put("/listings/{id}", listingH.Update)
			r.Delete("/listings/{id}", listingH.Delete)
			r.Post("/listings/{id}/images", listingH.UploadImage)
			r.Put("/listings/{id}/images/order", listingH.ReorderImages)
			r.Delete("/listings/images/{imageID}", listingH.DeleteImage)

			r.Post("/commissions", commissionH.Create)
			r.Post("/commissions/{id}/verify", commissionH.Verify)
			r.Get("/listings/{listingID}/commission", commissionH.GetForListing)

			r.Get("/settings", settingsH.Get)
			r.Put("/settings", settingsH.Update)

			r.Get("/activity", activityH.ListMine)
			r.Get("/export", exportH.Export)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
			})
		})
	})

	return r
}
