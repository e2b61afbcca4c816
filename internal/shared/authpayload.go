package shared

import (
	"context"
	"slices"
)

// AuthPayload carries the authenticated user's effective roles and
// permissions for the lifetime of one request. It is computed once, attached
// to the request context, and consumed by both the server-side gate and the
// rendered page, so the two can never disagree.
type AuthPayload struct {
	UserID      int64    `json:"user_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	SuperRole   string   `json:"-"`
}

// HasRole reports whether the payload includes the named role.
func (p *AuthPayload) HasRole(name string) bool {
	return p != nil && slices.Contains(p.Roles, name)
}

// Can reports whether the payload grants the named permission. A user
// holding the super role passes every check.
func (p *AuthPayload) Can(permission string) bool {
	if p == nil {
		return false
	}
	if p.SuperRole != "" && slices.Contains(p.Roles, p.SuperRole) {
		return true
	}
	return slices.Contains(p.Permissions, permission)
}

// IsSuper reports whether the payload holds the configured super role.
func (p *AuthPayload) IsSuper() bool {
	return p != nil && p.SuperRole != "" && slices.Contains(p.Roles, p.SuperRole)
}

// CanAny reports whether at least one of the capabilities is granted.
func (p *AuthPayload) CanAny(caps ...Capability) bool {
	for _, c := range caps {
		if p.Can(c.String()) {
			return true
		}
	}
	return false
}

type authContextKey struct{}

// ContextWithAuth stores the auth payload in context.
func ContextWithAuth(ctx context.Context, payload *AuthPayload) context.Context {
	return context.WithValue(ctx, authContextKey{}, payload)
}

// AuthFromContext extracts the auth payload from context, or nil when the
// request is unauthenticated.
func AuthFromContext(ctx context.Context) *AuthPayload {
	payload, _ := ctx.Value(authContextKey{}).(*AuthPayload)
	return payload
}
