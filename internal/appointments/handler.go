package appointments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fureverhealth/fureverhealth/internal/pets"
	"github.com/fureverhealth/fureverhealth/internal/rbac"
	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/internal/staff"
	"github.com/fureverhealth/fureverhealth/internal/view"
)

// Handler manages appointment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pets      *pets.Service
	staff     *staff.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, petsSvc *pets.Service, staffSvc *staff.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, pets: petsSvc, staff: staffSvc, templates: templates, csrf: csrf, sessions: sessions, rbac: rbacMW}
}

// MountRoutes registers appointment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapAppointmentsView))
		r.Get("/", h.listAppointments)
		r.Get("/{id}", h.showAppointment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapAppointmentsCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createAppointment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapAppointmentsEdit))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.updateAppointment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapAppointmentsDelete))
		r.Post("/{id}/delete", h.deleteAppointment)
	})
}

type formErrors map[string]string

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := h.service.ListAppointments(r.Context())
	if err != nil {
		h.logger.Error("list appointments failed", slog.Any("error", err))
		h.render(w, r, "pages/appointments/list.html", map[string]any{"Errors": formErrors{"general": "Failed to load appointments"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/appointments/list.html", map[string]any{"Appointments": appts}, http.StatusOK)
}

func (h *Handler) showAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	appt, err := h.service.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get appointment failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/appointments/show.html", map[string]any{"Appointment": appt}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, 0, Appointment{Status: StatusPending}, formErrors{}, http.StatusOK)
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.CreateAppointment(r.Context(), appt); err != nil {
		h.renderForm(w, r, 0, appt, h.formError(err), http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/appointments", "success", "Appointment booked")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	appt, err := h.service.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get appointment failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.renderForm(w, r, id, appt, formErrors{}, http.StatusOK)
}

func (h *Handler) updateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	appt, okForm := h.parseForm(w, r)
	if !okForm {
		return
	}
	if err := h.service.UpdateAppointment(r.Context(), id, appt); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderForm(w, r, id, appt, h.formError(err), http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/appointments", "success", "Appointment updated")
}

func (h *Handler) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteAppointment(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("delete appointment failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/appointments", "error", "Failed to delete appointment")
		return
	}
	h.redirectWithFlash(w, r, "/appointments", "success", "Appointment cancelled")
}

func (h *Handler) formError(err error) formErrors {
	switch {
	case errors.Is(err, ErrMissingPet):
		return formErrors{"pet_id": "Select a pet"}
	case errors.Is(err, ErrMissingStaff):
		return formErrors{"staff_id": "Select a staff member"}
	case errors.Is(err, ErrMissingService):
		return formErrors{"service_type": "Service type is required"}
	case errors.Is(err, ErrUnknownStatus):
		return formErrors{"status": "Unknown status"}
	default:
		return formErrors{"general": "Check the appointment details"}
	}
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (Appointment, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Appointment{}, false
	}
	petID, _ := strconv.ParseInt(r.PostFormValue("pet_id"), 10, 64)
	staffID, _ := strconv.ParseInt(r.PostFormValue("staff_id"), 10, 64)
	when, _ := time.Parse("2006-01-02T15:04", r.PostFormValue("appointment_date"))
	return Appointment{
		PetID:           petID,
		StaffID:         staffID,
		AppointmentDate: when,
		ServiceType:     r.PostFormValue("service_type"),
		Status:          r.PostFormValue("status"),
		Remarks:         r.PostFormValue("remarks"),
	}, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, id int64, appt Appointment, errs formErrors, status int) {
	petList, err := h.pets.ListPets(r.Context())
	if err != nil {
		h.logger.Error("list pets for form failed", slog.Any("error", err))
	}
	members, err := h.staff.ListMembers(r.Context())
	if err != nil {
		h.logger.Error("list staff for form failed", slog.Any("error", err))
	}
	h.render(w, r, "pages/appointments/form.html", map[string]any{
		"ID":          id,
		"Appointment": appt,
		"Pets":        petList,
		"Members":     members,
		"Errors":      errs,
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
		Title:       "Appointments",
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
