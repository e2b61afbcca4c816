package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fureverhealth/fureverhealth/internal/rbac"
	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/internal/view"
)

// Handler manages the role admin screens.
type Handler struct {
	logger    *slog.Logger
	service   *rbac.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *rbac.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		rbac:      rbacMW,
		validator: validator.New(),
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapRolesView))
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.showRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapRolesCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapRolesEdit))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.updateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapRolesDelete))
		r.Post("/{id}/delete", h.deleteRole)
	})
}

type formErrors map[string]string

// roleForm is the create/edit submission. The business rule that a role
// carries at least one permission lives here, not in the store.
type roleForm struct {
	Name        string   `validate:"required,max=255"`
	Description string   `validate:"max=255"`
	Permissions []string `validate:"required,min=1"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context(), true)
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		h.render(w, r, "pages/roles/list.html", map[string]any{"Errors": formErrors{"general": "Failed to load roles"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/list.html", map[string]any{"Roles": roles}, http.StatusOK)
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get role failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/show.html", map[string]any{"Role": role}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{
		"AllPermissions": perms,
		"Selected":       map[string]bool{},
		"Errors":         formErrors{},
	}, http.StatusOK)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if errs := h.validateForm(form); len(errs) > 0 {
		h.redisplayForm(w, r, 0, form, errs)
		return
	}

	if _, err := h.service.CreateRole(r.Context(), form.Name, form.Description, form.Permissions); err != nil {
		h.redisplayForm(w, r, 0, form, h.mapServiceError(err))
		return
	}
	h.redirectWithFlash(w, r, "/roles", "success", "Role created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get role failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	selected := make(map[string]bool, len(role.Permissions))
	for _, name := range role.Permissions {
		selected[name] = true
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{
		"ID":             role.ID,
		"Name":           role.Name,
		"Description":    role.Description,
		"AllPermissions": perms,
		"Selected":       selected,
		"Errors":         formErrors{},
	}, http.StatusOK)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	form, okForm := h.parseForm(w, r)
	if !okForm {
		return
	}
	if errs := h.validateForm(form); len(errs) > 0 {
		h.redisplayForm(w, r, id, form, errs)
		return
	}

	if err := h.service.UpdateRole(r.Context(), id, form.Name, form.Description, form.Permissions); err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.redisplayForm(w, r, id, form, h.mapServiceError(err))
		return
	}
	h.redirectWithFlash(w, r, "/roles", "success", "Role updated")
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("delete role failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/roles", "error", "Failed to delete role")
		return
	}
	h.redirectWithFlash(w, r, "/roles", "success", "Role deleted")
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (roleForm, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return roleForm{}, false
	}
	return roleForm{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Permissions: r.PostForm["permissions"],
	}, true
}

func (h *Handler) validateForm(form roleForm) formErrors {
	errs := formErrors{}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			switch fieldErr.Field() {
			case "Name":
				errs["name"] = "Name is required"
			case "Permissions":
				errs["permissions"] = "Select at least one permission"
			}
		}
	}
	return errs
}

func (h *Handler) mapServiceError(err error) formErrors {
	errs := formErrors{}
	var unknown *rbac.UnknownPermissionsError
	switch {
	case errors.Is(err, rbac.ErrDuplicateName):
		errs["name"] = "A role with this name already exists"
	case errors.As(err, &unknown):
		errs["permissions"] = "Unknown permissions selected"
	default:
		h.logger.Error("role form failed", slog.Any("error", err))
		errs["general"] = "Something went wrong"
	}
	return errs
}

func (h *Handler) redisplayForm(w http.ResponseWriter, r *http.Request, id int64, form roleForm, errs formErrors) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	selected := make(map[string]bool, len(form.Permissions))
	for _, name := range form.Permissions {
		selected[name] = true
	}
	data := map[string]any{
		"Name":           form.Name,
		"Description":    form.Description,
		"AllPermissions": perms,
		"Selected":       selected,
		"Errors":         errs,
	}
	if id > 0 {
		data["ID"] = id
	}
	h.render(w, r, "pages/roles/form.html", data, http.StatusUnprocessableEntity)
}

func (h *Handler) urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Roles",
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

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
