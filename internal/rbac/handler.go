package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/internal/view"
)

// PermissionsHandler manages the permission admin screens.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      Middleware
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, templates: templates, csrf: csrf, sessions: sessions, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapPermissionsView))
		r.Get("/", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapPermissionsCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createPermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapPermissionsEdit))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.updatePermission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapPermissionsDelete))
		r.Post("/{id}/delete", h.deletePermission)
	})
}

type formErrors map[string]string

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		h.render(w, r, "pages/permissions/list.html", map[string]any{"Errors": formErrors{"general": "Failed to load permissions"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/permissions/list.html", map[string]any{"Permissions": perms}, http.StatusOK)
}

func (h *PermissionsHandler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/permissions/form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *PermissionsHandler) createPermission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	description := r.PostFormValue("description")

	if _, err := h.service.CreatePermission(r.Context(), name, description); err != nil {
		h.renderFormError(w, r, "pages/permissions/form.html", map[string]any{"Name": name, "Description": description}, err)
		return
	}
	h.redirectWithFlash(w, r, "/permissions", "success", "Permission created")
}

func (h *PermissionsHandler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	perm, err := h.service.GetPermission(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get permission failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/permissions/form.html", map[string]any{
		"ID":          perm.ID,
		"Name":        perm.Name,
		"Description": perm.Description,
		"Errors":      formErrors{},
	}, http.StatusOK)
}

func (h *PermissionsHandler) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))

	if _, err := h.service.RenamePermission(r.Context(), id, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderFormError(w, r, "pages/permissions/form.html", map[string]any{"ID": id, "Name": name}, err)
		return
	}
	h.redirectWithFlash(w, r, "/permissions", "success", "Permission updated")
}

func (h *PermissionsHandler) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePermission(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("delete permission failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/permissions", "error", "Failed to delete permission")
		return
	}
	h.redirectWithFlash(w, r, "/permissions", "success", "Permission deleted")
}

func (h *PermissionsHandler) urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *PermissionsHandler) renderFormError(w http.ResponseWriter, r *http.Request, template string, data map[string]any, err error) {
	errs := formErrors{}
	switch {
	case errors.Is(err, ErrDuplicateName):
		errs["name"] = "A permission with this name already exists"
	case errors.Is(err, ErrEmptyName):
		errs["name"] = "Name is required"
	default:
		h.logger.Error("permission form failed", slog.Any("error", err))
		errs["general"] = "Something went wrong"
	}
	data["Errors"] = errs
	h.render(w, r, template, data, http.StatusUnprocessableEntity)
}

func (h *PermissionsHandler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Permissions",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Auth:        shared.AuthFromContext(r.Context()),
		Data:        data,
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *PermissionsHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
