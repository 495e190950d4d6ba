// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/unclebandit/coldemail-backend/internal/controller"
	"github.com/unclebandit/coldemail-backend/internal/handler"
	"github.com/unclebandit/coldemail-backend/internal/metrics"
	"github.com/unclebandit/coldemail-backend/internal/middleware"
)

type Deps struct {
	Auth      *controller.AuthController
	Prospects *controller.ProspectController
	Research  *controller.ResearchController
	Analytics *controller.AnalyticsController
	Tracking  *handler.TrackingHandler

	Tokens middleware.TokenParser
	Users  middleware.UserLookup

	AllowedOrigins []string
	AuthRateLimit  int // requests per minute per IP on /auth, 0 disables
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)
	r.Handle("/metrics", metrics.Handler())

	requireUser := middleware.JWTAuth(d.Tokens, d.Users)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if d.AuthRateLimit > 0 {
					r.Use(httprate.LimitByIP(d.AuthRateLimit, time.Minute))
				}
				r.Post("/signup", d.Auth.Signup)
				r.Post("/login", d.Auth.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Get("/settings/smtp", d.Auth.GetSMTPSettings)
				r.Put("/settings/smtp", d.Auth.UpdateSMTPSettings)
			})
		})

		r.Route("/prospects", func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/", d.Prospects.CreateProspect)
			r.Get("/", d.Prospects.ListProspects)
			r.Get("/{id}", d.Prospects.GetProspect)
			r.Delete("/{id}", d.Prospects.DeleteProspect)
		})

		r.Route("/research", func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/{prospect_id}/generate", d.Research.GenerateEmailLine)
			r.Get("/{prospect_id}/drafts", d.Research.GetLatestDraft)
			r.Post("/send/{email_log_id}", d.Research.SendDraft)
			r.Post("/send-batch", d.Research.SendBatch)
			r.Post("/emails/{email_log_id}/replied", d.Research.MarkReplied)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/summary", d.Analytics.Summary)
		})

		r.Get("/track/open/{token}", d.Tracking.OpenPixel)
	})

	return r
}
