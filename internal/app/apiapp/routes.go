package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
	filessvc "github.com/ivankudzin/orgreviews/internal/services/files"
	orgsvc "github.com/ivankudzin/orgreviews/internal/services/organizations"
	tgprovider "github.com/ivankudzin/orgreviews/internal/services/providers/telegram"
	"github.com/ivankudzin/orgreviews/internal/services/rate"
	reviewssvc "github.com/ivankudzin/orgreviews/internal/services/reviews"
	userssvc "github.com/ivankudzin/orgreviews/internal/services/users"
	"github.com/ivankudzin/orgreviews/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService         *authsvc.Service
	Cookies             *authsvc.CookieCodec
	TelegramProvider    *tgprovider.Service
	UserService         *userssvc.Service
	OrganizationService *orgsvc.Service
	ReviewService       *reviewssvc.Service
	FileService         *filessvc.Service
	LoginLimiter        *rate.Limiter
	Metrics             *Metrics
	HealthChecks        map[string]handlers.Pinger
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.TelegramProvider, deps.AuthService, deps.Cookies, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	usersHandler := handlers.NewUsersHandler(deps.UserService, deps.Logger)
	organizationsHandler := handlers.NewOrganizationsHandler(deps.OrganizationService, deps.Logger)
	reviewsHandler := handlers.NewReviewsHandler(deps.ReviewService, deps.Logger)
	filesHandler := handlers.NewFilesHandler(deps.FileService, deps.Logger)

	authn := NewAuthenticator(deps.AuthService, deps.Cookies, deps.Logger)
	loginRateMW := RateLimit(deps.LoginLimiter, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	if deps.Metrics != nil {
		r.Method("GET", "/metrics", deps.Metrics.Handler())
	}

	r.Route("/providers/telegram", func(r chi.Router) {
		r.Use(loginRateMW)
		r.Post("/login", authHandler.TelegramLogin)
		r.With(authn.Optional).Post("/connect", authHandler.TelegramConnect)
	})

	r.Route("/users", func(r chi.Router) {
		r.With(authn.Optional).Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authn.Require)
			r.Get("/me", usersHandler.Me)
			r.Get("/me/reviews", usersHandler.MyReviews)
			r.Put("/me/set-documents", usersHandler.SetDocuments)
			r.Put("/me/request-approvement/{organization_id}", usersHandler.RequestApprovement)

			r.Group(func(r chi.Router) {
				r.Use(RequireModerator)
				r.Get("/with-pending-approvement", usersHandler.PendingApprovement)
				r.Get("/with-pending-approvement/export", usersHandler.ExportPendingApprovement)
				r.Get("/by-id/{user_id}", usersHandler.ByID)
				r.Post("/by-id/{user_id}/approve", usersHandler.Approve)
			})
		})
	})

	r.Route("/organizations", func(r chi.Router) {
		r.Use(authn.Require)
		r.Get("/", organizationsHandler.List)
		r.Get("/{organization_id}", organizationsHandler.Get)
		r.Get("/{organization_id}/reviews", reviewsHandler.List)
		r.Post("/{organization_id}/reviews", reviewsHandler.Create)

		r.Group(func(r chi.Router) {
			r.Use(RequireModerator)
			r.Post("/", organizationsHandler.Create)
			r.Put("/{organization_id}", organizationsHandler.Update)
			r.Delete("/{organization_id}", organizationsHandler.Delete)
		})
	})

	r.Route("/files", func(r chi.Router) {
		r.Use(authn.Require)
		r.Post("/upload", filesHandler.Upload)
		r.Get("/{file_id}", filesHandler.Download)
	})
}
