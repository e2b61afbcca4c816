package staff

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fureverhealth/fureverhealth/internal/rbac"
	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/internal/view"
)

// Handler manages staff administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, sessions: sessions, rbac: rbacMW}
}

// MountRoutes registers staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapStaffView))
		r.Get("/", h.listMembers)
		r.Get("/{id}", h.showMember)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapStaffCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createMember)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapStaffEdit))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.updateMember)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapStaffDelete))
		r.Post("/{id}/delete", h.deleteMember)
	})
}

type formErrors map[string]string

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		h.logger.Error("list staff failed", slog.Any("error", err))
		h.render(w, r, "pages/staff/list.html", map[string]any{"Errors": formErrors{"general": "Failed to load staff"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/staff/list.html", map[string]any{"Members": members}, http.StatusOK)
}

func (h *Handler) showMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get staff member failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/staff/show.html", map[string]any{"Member": member}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/staff/form.html", map[string]any{"Member": Member{}, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request) {
	member, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.CreateMember(r.Context(), member); err != nil {
		h.render(w, r, "pages/staff/form.html", map[string]any{"Member": member, "Errors": h.formError(err)}, http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/staff", "success", "Staff member added")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get staff member failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/staff/form.html", map[string]any{"ID": member.ID, "Member": member, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) updateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	member, okForm := h.parseForm(w, r)
	if !okForm {
		return
	}
	if err := h.service.UpdateMember(r.Context(), id, member); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.render(w, r, "pages/staff/form.html", map[string]any{"ID": id, "Member": member, "Errors": h.formError(err)}, http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/staff", "success", "Staff member updated")
}

func (h *Handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteMember(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("delete staff member failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/staff", "error", "Failed to delete staff member")
		return
	}
	h.redirectWithFlash(w, r, "/staff", "success", "Staff member removed")
}

func (h *Handler) formError(err error) formErrors {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		return formErrors{"email": "Email is already in use"}
	case errors.Is(err, ErrInvalidMember):
		return formErrors{"general": "First name, last name and email are required"}
	default:
		return formErrors{"general": "Check the staff details"}
	}
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (Member, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Member{}, false
	}
	salary, _ := strconv.ParseFloat(r.PostFormValue("salary"), 64)
	dateHired, _ := time.Parse("2006-01-02", r.PostFormValue("date_hired"))
	return Member{
		FirstName:        r.PostFormValue("first_name"),
		LastName:         r.PostFormValue("last_name"),
		Email:            r.PostFormValue("email"),
		Phone:            r.PostFormValue("phone"),
		Address:          r.PostFormValue("address"),
		Position:         r.PostFormValue("position"),
		DateHired:        dateHired,
		Salary:           salary,
		EmploymentStatus: r.PostFormValue("employment_status"),
	}, true
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
		Title:       "Staff",
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
