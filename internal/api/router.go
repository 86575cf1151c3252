// Package api exposes the reference backend over HTTP.
package api

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/mantis-client/internal/api/handlers"
	"github.com/isdelr/mantis-client/internal/auth"
	"github.com/isdelr/mantis-client/internal/tracker"
)

// Deps are the services the router serves.
type Deps struct {
	Users       tracker.UserServiceProvider
	Issues      tracker.IssueServiceProvider
	Labels      tracker.LabelServiceProvider
	Milestones  tracker.MilestoneServiceProvider
	Issuer      *auth.Issuer
	Revocations auth.RevocationStore

	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Credentials are required for the session cookie.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	userHandler := handlers.NewUserHandler(d.Users, d.Issuer, d.Revocations, d.SecureCookies)
	issueHandler := handlers.NewIssueHandler(d.Issues)
	labelHandler := handlers.NewLabelHandler(d.Labels)
	milestoneHandler := handlers.NewMilestoneHandler(d.Milestones)

	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)
	r.Post("/logout", userHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(d.Issuer, d.Revocations))

		r.Get("/profile", userHandler.Profile)

		r.Route("/issues", func(r chi.Router) {
			r.Get("/", issueHandler.GetAll)
			r.Post("/", issueHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", issueHandler.Get)
				r.Patch("/", issueHandler.Update)
				r.Delete("/", issueHandler.Delete)
				r.Get("/comments", issueHandler.GetComments)
				r.Post("/comments", issueHandler.AddComment)
			})
		})

		r.Route("/comments/{id}", func(r chi.Router) {
			r.Patch("/", issueHandler.UpdateComment)
			r.Delete("/", issueHandler.DeleteComment)
		})

		r.Route("/labels", func(r chi.Router) {
			r.Get("/", labelHandler.GetAll)
			r.Post("/", labelHandler.Create)
			r.Patch("/{id}", labelHandler.Update)
			r.Delete("/{id}", labelHandler.Delete)
		})

		r.Route("/milestones", func(r chi.Router) {
			r.Get("/", milestoneHandler.GetAll)
			r.Post("/", milestoneHandler.Create)
			r.Get("/{id}", milestoneHandler.Get)
			r.Patch("/{id}", milestoneHandler.Update)
			r.Delete("/{id}", milestoneHandler.Delete)
		})
	})

	return r
}

// NewDeps wires the tracker services on db.
func NewDeps(db *sql.DB, issuer *auth.Issuer, revocations auth.RevocationStore) Deps {
	return Deps{
		Users:       tracker.NewUserService(db),
		Issues:      tracker.NewIssueService(db),
		Labels:      tracker.NewLabelService(db),
		Milestones:  tracker.NewMilestoneService(db),
		Issuer:      issuer,
		Revocations: revocations,
	}
}
