package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notevault/internal/alerts"
	"notevault/internal/audit"
	"notevault/internal/auth"
	"notevault/internal/notes"
	"notevault/internal/web"
)

type RouterDeps struct {
	Logger       *slog.Logger
	AuthService  *auth.Service
	AuthHandler  *auth.Handler
	NoteHandler  *notes.Handler
	NoteFinder   auth.ResourceFinder
	AuditHandler *audit.QueryHandler
	AlertHandler *alerts.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(d.Logger))
	r.Use(auth.SessionMiddleware(d.AuthService))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		web.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
			r.Post("/logout", d.AuthHandler.Logout)
			r.Get("/whoami", d.AuthHandler.Whoami)
			r.With(auth.RequireAuth).Post("/token", d.AuthHandler.Token)
			r.With(auth.RequireAdmin).Get("/users", d.AuthHandler.ListUsers)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Post("/", d.NoteHandler.Create)
			r.Get("/", d.NoteHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.NoteHandler.Get)
				// Mutations require ownership (or admin).
				r.Group(func(r chi.Router) {
					r.Use(auth.CheckOwnership(d.NoteFinder))
					r.Put("/", d.NoteHandler.Update)
					r.Delete("/", d.NoteHandler.Delete)
				})
			})
		})

		r.Route("/audit", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Method(http.MethodGet, "/events", d.AuditHandler)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/", d.AlertHandler.List)
			r.Get("/{id}", d.AlertHandler.Get)
			r.Patch("/{id}", d.AlertHandler.UpdateStatus)
		})
	})

	return r
}
