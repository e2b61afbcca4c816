package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/fureverhealth/fureverhealth/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers. Denials are
// decided before the wrapped handler runs and before any resource lookup, so
// a 403 never reveals whether the target exists.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger

	// Denied, when set, observes every rejected capability check.
	Denied func(capability string)
}

// LoadAuth computes the auth payload once per request for signed-in users
// and attaches it to the context. Require and the view layer both read this
// single payload.
func (m Middleware) LoadAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.currentUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		payload, err := m.Service.AuthPayload(r.Context(), userID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("rbac load auth", slog.Any("error", err))
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithAuth(r.Context(), payload)))
	})
}

// Require ensures the current user holds at least one of the capabilities.
// Unauthenticated requests are denied outright.
func (m Middleware) Require(caps ...shared.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			if payload := shared.AuthFromContext(r.Context()); payload != nil {
				if payload.CanAny(caps...) {
					next.ServeHTTP(w, r)
					return
				}
				m.forbid(w, caps...)
				return
			}
			userID, ok := m.currentUserID(r)
			if !ok {
				m.forbid(w, caps...)
				return
			}
			for _, cap := range caps {
				allowed, err := m.Service.Authorize(r.Context(), userID, cap)
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("rbac require", slog.Any("error", err))
					}
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				if allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.forbid(w, caps...)
		})
	}
}

// RequireAll ensures the current user holds every listed capability.
func (m Middleware) RequireAll(caps ...shared.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			payload := shared.AuthFromContext(r.Context())
			if payload == nil {
				userID, ok := m.currentUserID(r)
				if !ok {
					m.forbid(w, caps...)
					return
				}
				loaded, err := m.Service.AuthPayload(r.Context(), userID)
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("rbac require all", slog.Any("error", err))
					}
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				payload = loaded
			}
			for _, cap := range caps {
				if !payload.Can(cap.String()) {
					m.forbid(w, cap)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) forbid(w http.ResponseWriter, caps ...shared.Capability) {
	if m.Denied != nil && len(caps) > 0 {
		m.Denied(caps[0].String())
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
