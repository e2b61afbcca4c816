package view

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates. Auth is the
// per-request payload computed by the RBAC middleware; templates gate nav
// links and action buttons through Auth.Can, which mirrors the server-side
// evaluator but is advisory only; the middleware remains authoritative.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Auth        *shared.AuthPayload
	Data        any
}

// NavItem is a sidebar entry shown when the capability is granted.
type NavItem struct {
	Title      string
	Href       string
	Capability shared.Capability
}

// navItems is the single nav table; the sidebar filters it against the auth
// payload instead of recomputing anything from raw role names.
var navItems = []NavItem{
	{Title: "Dashboard", Href: "/dashboard", Capability: shared.CapDashboardView},
	{Title: "Users", Href: "/users", Capability: shared.CapUserView},
	{Title: "Roles", Href: "/roles", Capability: shared.CapRolesView},
	{Title: "Permissions", Href: "/permissions", Capability: shared.CapPermissionsView},
	{Title: "Pets", Href: "/pets", Capability: shared.CapPetsView},
	{Title: "Staff", Href: "/staff", Capability: shared.CapStaffView},
	{Title: "Schedules", Href: "/schedules", Capability: shared.CapSchedulesView},
	{Title: "Appointments", Href: "/appointments", Capability: shared.CapAppointmentsView},
}

// Nav returns the nav items the current user may see.
func (d TemplateData) Nav() []NavItem {
	if d.Auth == nil {
		return nil
	}
	visible := make([]NavItem, 0, len(navItems))
	for _, item := range navItems {
		if d.Auth.Can(item.Capability.String()) {
			visible = append(visible, item)
		}
	}
	return visible
}

// AuthJSON serializes the auth payload for the client-side script island.
// Bypass mirrors the server-side super role check so the script never needs
// to know which role is the super role.
func (d TemplateData) AuthJSON() template.JS {
	if d.Auth == nil {
		return "null"
	}
	data, err := json.Marshal(struct {
		*shared.AuthPayload
		Bypass bool `json:"bypass"`
	}{d.Auth, d.Auth.IsSuper()})
	if err != nil {
		return "null"
	}
	return template.JS(data)
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatDay": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"isoDay": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"isoMinute": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02T15:04")
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates,
		"templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html", "templates/pages/*/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
