package pets

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fureverhealth/fureverhealth/internal/rbac"
	"github.com/fureverhealth/fureverhealth/internal/shared"
	"github.com/fureverhealth/fureverhealth/internal/view"
)

// Handler manages pet record endpoints.
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

// MountRoutes registers pet routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapPetsView))
		r.Get("/", h.listPets)
		r.Get("/{id}", h.showPet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapPetsCreate))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createPet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapPetsEdit))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.updatePet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.CapPetsDelete))
		r.Post("/{id}/delete", h.deletePet)
	})
}

type formErrors map[string]string

func (h *Handler) listPets(w http.ResponseWriter, r *http.Request) {
	pets, err := h.service.ListPets(r.Context())
	if err != nil {
		h.logger.Error("list pets failed", slog.Any("error", err))
		h.render(w, r, "pages/pets/list.html", map[string]any{"Errors": formErrors{"general": "Failed to load pets"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/pets/list.html", map[string]any{"Pets": pets}, http.StatusOK)
}

func (h *Handler) showPet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	pet, err := h.service.GetPet(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get pet failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/pets/show.html", map[string]any{"Pet": pet}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/pets/form.html", map[string]any{"Pet": Pet{}, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) createPet(w http.ResponseWriter, r *http.Request) {
	pet, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.CreatePet(r.Context(), pet); err != nil {
		h.render(w, r, "pages/pets/form.html", map[string]any{"Pet": pet, "Errors": formErrors{"general": "Check the pet details"}}, http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/pets", "success", "Pet registered")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	pet, err := h.service.GetPet(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get pet failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/pets/form.html", map[string]any{"ID": pet.ID, "Pet": pet, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) updatePet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	pet, okForm := h.parseForm(w, r)
	if !okForm {
		return
	}
	if err := h.service.UpdatePet(r.Context(), id, pet); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.render(w, r, "pages/pets/form.html", map[string]any{"ID": id, "Pet": pet, "Errors": formErrors{"general": "Check the pet details"}}, http.StatusUnprocessableEntity)
		return
	}
	h.redirectWithFlash(w, r, "/pets", "success", "Pet updated")
}

func (h *Handler) deletePet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePet(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("delete pet failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/pets", "error", "Failed to delete pet")
		return
	}
	h.redirectWithFlash(w, r, "/pets", "success", "Pet deleted")
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (Pet, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Pet{}, false
	}
	ownerID, _ := strconv.ParseInt(r.PostFormValue("owner_id"), 10, 64)
	age, _ := strconv.Atoi(r.PostFormValue("age"))
	weight, _ := strconv.ParseFloat(r.PostFormValue("weight_kg"), 64)
	return Pet{
		OwnerID:        ownerID,
		Name:           r.PostFormValue("name"),
		Species:        r.PostFormValue("species"),
		Breed:          r.PostFormValue("breed"),
		Gender:         r.PostFormValue("gender"),
		Age:            age,
		WeightKg:       weight,
		Color:          r.PostFormValue("color"),
		MedicalHistory: r.PostFormValue("medical_history"),
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
		Title:       "Pets",
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
