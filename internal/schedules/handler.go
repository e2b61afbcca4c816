package schedules

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fureverhealth/fureverhealth/internal/rbac"
	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/internal/staff"
	"github.com/fureverhealth/fureverhealth/internal/view"
)

// Handler manages schedule endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	staff     *staff.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, staffSvc *staff.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, staff: staffSvc, templates: templates, csrf: csrf, sessions: sessions, rbac: rbacMW}
}

// MountRoutes registers schedule routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapSchedulesView))
		r.Get("/", h.listShifts)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapSchedulesCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createShift)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapSchedulesEdit))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.updateShift)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapSchedulesDelete))
		r.Post("/{id}/delete", h.deleteShift)
	})
}

type formErrors map[string]string

func (h *Handler) listShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.service.ListShifts(r.Context())
	if err != nil {
		h.logger.Error("list shifts failed", slog.Any("error", err))
		h.render(w, r, "pages/schedules/list.html", map[string]any{"Errors": formErrors{"general": "Failed to load schedules"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/schedules/list.html", map[string]any{"Shifts": shifts}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, 0, Shift{Status: StatusScheduled}, formErrors{}, http.StatusOK)
}

func (h *Handler) createShift(w http.ResponseWriter, r *http.Request) {
	shift, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.CreateShift(r.Context(), shift); err != nil {
		h.renderForm(w, r, 0, shift, h.formError(err), http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/schedules", "success", "Shift scheduled")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	shift, err := h.service.GetShift(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get shift failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.renderForm(w, r, id, shift, formErrors{}, http.StatusOK)
}

func (h *Handler) updateShift(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	shift, okForm := h.parseForm(w, r)
	if !okForm {
		return
	}
	if err := h.service.UpdateShift(r.Context(), id, shift); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderForm(w, r, id, shift, h.formError(err), http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/schedules", "success", "Shift updated")
}

func (h *Handler) deleteShift(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteShift(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("delete shift failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/schedules", "error", "Failed to delete shift")
		return
	}
	h.redirectWithFlash(w, r, "/schedules", "success", "Shift removed")
}

func (h *Handler) formError(err error) formErrors {
	switch {
	case errors.Is(err, ErrMissingStaff):
		return formErrors{"staff_id": "Select a staff member"}
	case errors.Is(err, ErrInvalidWindow):
		return formErrors{"end_time": "End time must be after start time"}
	case errors.Is(err, ErrUnknownStatus):
		return formErrors{"status": "Unknown status"}
	default:
		return formErrors{"general": "Check the shift details"}
	}
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (Shift, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Shift{}, false
	}
	staffID, _ := strconv.ParseInt(r.PostFormValue("staff_id"), 10, 64)
	scheduleDate, _ := time.Parse("2006-01-02", r.PostFormValue("schedule_date"))
	return Shift{
		StaffID:      staffID,
		ScheduleDate: scheduleDate,
		StartTime:    r.PostFormValue("start_time"),
		EndTime:      r.PostFormValue("end_time"),
		Status:       r.PostFormValue("status"),
		Remarks:      r.PostFormValue("remarks"),
	}, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, id int64, shift Shift, errs formErrors, status int) {
	members, err := h.staff.ListMembers(r.Context())
	if err != nil {
		h.logger.Error("list staff for form failed", slog.Any("error", err))
	}
	h.render(w, r, "pages/schedules/form.html", map[string]any{
		"ID":      id,
		"Shift":   shift,
		"Members": members,
		"Errors":  errs,
	}, status)
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
		Title:       "Schedules",
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
