package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fureverhealth/fureverhealth/internal/shared"
)

func authedRequest(t *testing.T, svc *Service, userID int64) *http.Request {
	t.Helper()
	payload, err := svc.AuthPayload(context.Background(), userID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	return req.WithContext(shared.ContextWithAuth(req.Context(), payload))
}

func TestRequireDeniesBeforeHandlerRuns(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")
	_, err := svc.CreateRole(ctx, "reception", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoles(ctx, 3, []string{"reception"}))

	mw := Middleware{Service: svc}
	handlerRan := false
	gate := mw.Require(shared.CapPetsView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, authedRequest(t, svc, 3))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, handlerRan, "a denied request must never reach the handler")
}

func TestRequireAllowsGrantedCapability(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")
	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoles(ctx, 3, []string{"vet"}))

	mw := Middleware{Service: svc}
	handlerRan := false
	gate := mw.Require(shared.CapPetsView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, authedRequest(t, svc, 3))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, handlerRan)
}

func TestRequireDeniesUnauthenticated(t *testing.T) {
	svc, _ := newTestService(t)
	mw := Middleware{Service: svc}
	gate := mw.Require(shared.CapPetsView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached without any session")
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyOfSeveralCapabilities(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "pets.edit")
	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.edit"})
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoles(ctx, 3, []string{"vet"}))

	mw := Middleware{Service: svc}
	gate := mw.Require(shared.CapPetsView, shared.CapPetsEdit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, authedRequest(t, svc, 3))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAllNeedsEveryCapability(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view", "pets.edit")
	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoles(ctx, 3, []string{"vet"}))

	mw := Middleware{Service: svc}
	gate := mw.RequireAll(shared.CapPetsView, shared.CapPetsEdit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached with only one of two required capabilities")
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, authedRequest(t, svc, 3))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireSuperRolePassesWithoutLinks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateRole(ctx, "admin", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoles(ctx, 1, []string{"admin"}))

	mw := Middleware{Service: svc}
	gate := mw.Require(shared.CapRolesDelete)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, authedRequest(t, svc, 1))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeniedCallbackObservesRejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")
	_, err := svc.CreateRole(ctx, "reception", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoles(ctx, 3, []string{"reception"}))

	var denied []string
	mw := Middleware{Service: svc, Denied: func(capability string) {
		denied = append(denied, capability)
	}}

	gate := mw.Require(shared.CapPetsView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, authedRequest(t, svc, 3))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, []string{"pets.view"}, denied)

	// Allowed requests leave the counter untouched.
	require.NoError(t, svc.UpdateRole(ctx, 2, "reception", "", []string{"pets.view"}))
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, authedRequest(t, svc, 3))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, denied, 1)
}

func TestLoadAuthAttachesPayloadForSignedInUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedPermissions(t, svc, "pets.view")
	_, err := svc.CreateRole(ctx, "vet", "", []string{"pets.view"})
	require.NoError(t, err)
	require.NoError(t, svc.AssignRoles(ctx, 5, []string{"vet"}))

	sess := &shared.Session{}
	sess.SetUser("5")

	mw := Middleware{Service: svc}
	var got *shared.AuthPayload
	chain := mw.LoadAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.AuthFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	chain.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	require.Equal(t, int64(5), got.UserID)
	require.Equal(t, []string{"vet"}, got.Roles)
	require.Equal(t, []string{"pets.view"}, got.Permissions)
}

func TestLoadAuthSkipsAnonymousRequests(t *testing.T) {
	svc, _ := newTestService(t)
	mw := Middleware{Service: svc}

	var got *shared.AuthPayload = &shared.AuthPayload{}
	chain := mw.LoadAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.AuthFromContext(r.Context())
	}))

	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Nil(t, got)
}
