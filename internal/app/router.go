package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fureverhealth/fureverhealth/internal/appointments"
	"github.com/fureverhealth/fureverhealth/internal/auth"
	"github.com/fureverhealth/fureverhealth/internal/dashboard"
	"github.com/fureverhealth/fureverhealth/internal/observability"
	"github.com/fureverhealth/fureverhealth/internal/pets"
	"github.com/fureverhealth/fureverhealth/internal/rbac"
	"github.com/fureverhealth/fureverhealth/internal/roles"
	"github.com/fureverhealth/fureverhealth/internal/schedules"
	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/internal/staff"
	"github.com/fureverhealth/fureverhealth/internal/users"
	"github.com/fureverhealth/fureverhealth/internal/view"
	"github.com/fureverhealth/fureverhealth/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler         *auth.Handler
	DashboardHandler    *dashboard.Handler
	UsersHandler        *users.Handler
	RolesHandler        *roles.Handler
	PermissionsHandler  *rbac.PermissionsHandler
	PetsHandler         *pets.Handler
	StaffHandler        *staff.Handler
	SchedulesHandler    *schedules.Handler
	AppointmentsHandler *appointments.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with clinic defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(params.RBACMiddleware.LoadAuth)
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for unauthenticated visitors.
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     "FureverHealth",
			CSRFToken: csrfToken,
			Flash:     flash,
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	params.AuthHandler.MountRoutes(r)
	if params.DashboardHandler != nil {
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.PetsHandler != nil {
		r.Route("/pets", params.PetsHandler.MountRoutes)
	}
	if params.StaffHandler != nil {
		r.Route("/staff", params.StaffHandler.MountRoutes)
	}
	if params.SchedulesHandler != nil {
		r.Route("/schedules", params.SchedulesHandler.MountRoutes)
	}
	if params.AppointmentsHandler != nil {
		r.Route("/appointments", params.AppointmentsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
