package users

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

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbacSvc   *rbac.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacSvc *rbac.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rbacSvc:   rbacSvc,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		rbac:      rbacMW,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapUserView))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.showUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapUserCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapUserEdit))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.updateUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapUserDelete))
		r.Post("/{id}/delete", h.deleteUser)
	})
}

type formErrors map[string]string

type userForm struct {
	FirstName string   `validate:"required,max=255"`
	LastName  string   `validate:"required,max=255"`
	Email     string   `validate:"required,email"`
	Phone     string   `validate:"max=20"`
	Address   string   `validate:"max=255"`
	Password  string   `validate:"omitempty,min=8"`
	Roles     []string `validate:"required,min=1"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, "pages/users/list.html", map[string]any{"Errors": formErrors{"general": "Failed to load users"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{"Users": users}, http.StatusOK)
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get user failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/show.html", map[string]any{"User": user}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, 0, userForm{}, formErrors{}, http.StatusOK)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	errs := h.validateForm(form)
	if form.Password == "" {
		errs["password"] = "Password is required"
	}
	if len(errs) > 0 {
		h.renderForm(w, r, 0, form, errs, http.StatusUnprocessableEntity)
		return
	}

	user := User{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Address:   form.Address,
	}
	if _, err := h.service.CreateUser(r.Context(), user, form.Password, form.Roles); err != nil {
		h.renderForm(w, r, 0, form, h.mapServiceError(err), http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "User created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get user failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	form := userForm{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		Address:   user.Address,
		Roles:     user.Roles,
	}
	h.renderForm(w, r, id, form, formErrors{}, http.StatusOK)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	form, okForm := h.parseForm(w, r)
	if !okForm {
		return
	}
	if errs := h.validateForm(form); len(errs) > 0 {
		h.renderForm(w, r, id, form, errs, http.StatusUnprocessableEntity)
		return
	}

	user := User{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Address:   form.Address,
	}
	if err := h.service.UpdateUser(r.Context(), id, user, form.Password, form.Roles); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderForm(w, r, id, form, h.mapServiceError(err), http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "User updated")
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("delete user failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/users", "error", "Failed to delete user")
		return
	}
	h.redirectWithFlash(w, r, "/users", "success", "User deleted")
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (userForm, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return userForm{}, false
	}
	return userForm{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
		Phone:     r.PostFormValue("phone"),
		Address:   r.PostFormValue("address"),
		Password:  r.PostFormValue("password"),
		Roles:     r.PostForm["roles"],
	}, true
}

func (h *Handler) validateForm(form userForm) formErrors {
	errs := formErrors{}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			switch fieldErr.Field() {
			case "FirstName":
				errs["first_name"] = "First name is required"
			case "LastName":
				errs["last_name"] = "Last name is required"
			case "Email":
				errs["email"] = "A valid email is required"
			case "Password":
				errs["password"] = "Password must be at least 8 characters"
			case "Roles":
				errs["roles"] = "Select at least one role"
			}
		}
	}
	return errs
}

func (h *Handler) mapServiceError(err error) formErrors {
	errs := formErrors{}
	var unknown *rbac.UnknownRolesError
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		errs["email"] = "This email is already registered"
	case errors.As(err, &unknown):
		errs["roles"] = "Unknown roles selected"
	default:
		h.logger.Error("user form failed", slog.Any("error", err))
		errs["general"] = "Something went wrong"
	}
	return errs
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, id int64, form userForm, errs formErrors, status int) {
	roles, err := h.rbacSvc.ListRoles(r.Context(), false)
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	selected := make(map[string]bool, len(form.Roles))
	for _, name := range form.Roles {
		selected[name] = true
	}
	data := map[string]any{
		"Form":     form,
		"AllRoles": roles,
		"Selected": selected,
		"Errors":   errs,
	}
	if id > 0 {
		data["ID"] = id
	}
	h.render(w, r, "pages/users/form.html", data, status)
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
		Title:       "Users",
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
