package users_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-iam/internal/permissions"
	"github.com/odyssey-erp/odyssey-iam/internal/platform/memstore"
	"github.com/odyssey-erp/odyssey-iam/internal/roles"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
	"github.com/odyssey-erp/odyssey-iam/internal/users"
	_ "github.com/odyssey-erp/odyssey-iam/testing"
)

type recordingAudit struct {
	events []shared.AuditEvent
}

func (r *recordingAudit) Publish(_ context.Context, event shared.AuditEvent) {
	r.events = append(r.events, event)
}

type fixture struct {
	router http.Handler
	store  *memstore.Store
	audit  *recordingAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	audit := &recordingAudit{}
	roleService := roles.NewService(store.Roles(), nil)
	permissionService := permissions.NewService(store.Permissions(), nil)
	service := users.NewService(store.Users(), roleService, permissionService, audit)
	handler := users.NewHandler(nil, service, shared.DefaultPagination())

	ctx := context.Background()
	for _, name := range []string{"admin", "editor", "viewer"} {
		_, err := roleService.Create(ctx, roles.CreateInput{Name: name})
		require.NoError(t, err)
	}
	for _, name := range []string{"users.read", "users.write"} {
		_, err := permissionService.Create(ctx, permissions.CreateInput{Name: name})
		require.NoError(t, err)
	}

	r := chi.NewRouter()
	r.Route("/users", handler.MountRoutes)
	return &fixture{router: r, store: store, audit: audit}
}

func (f *fixture) do(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return rr.Code, out
}

func ids(t *testing.T, v any) []int64 {
	t.Helper()
	list, ok := v.([]any)
	require.True(t, ok, "expected list, got %T", v)
	out := make([]int64, 0, len(list))
	for _, item := range list {
		out = append(out, int64(item.(float64)))
	}
	return out
}

func TestCreateUserWithRelations(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/users/", `{"username":"ann","email":"ann@example.com","roles":[3,1,3],"permissions":[2]}`)
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "ann", body["username"])
	assert.Equal(t, "ann@example.com", body["email"])
	assert.Equal(t, true, body["is_active"])
	assert.Equal(t, []int64{1, 3}, ids(t, body["roles"]))
	assert.Equal(t, []int64{2}, ids(t, body["permissions"]))

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "user.created", f.audit.events[0].Action)
}

func TestCreateUserDefaults(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/users/", `{"username":"bob","email":"bob@example.com","is_active":false}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, false, body["is_active"])
	assert.Equal(t, []any{}, body["roles"])
	assert.Equal(t, []any{}, body["permissions"])
}

func TestCreateUserValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"empty", `{}`, "username and email are required."},
		{"missing email", `{"username":"ann"}`, "username and email are required."},
		{"blank username", `{"username":"","email":"a@b.c"}`, "username and email are required."},
		{"unknown role", `{"username":"ann","email":"a@b.c","roles":[999]}`, "Invalid roles IDs."},
		{"unknown permission", `{"username":"ann","email":"a@b.c","permissions":[1,77]}`, "Invalid permissions IDs."},
		{"roles not list", `{"username":"ann","email":"a@b.c","roles":"1"}`, "roles must be a list of integer IDs."},
		{"roles with strings", `{"username":"ann","email":"a@b.c","roles":["1"]}`, "roles must be a list of integer IDs."},
		{"roles with floats", `{"username":"ann","email":"a@b.c","roles":[1.5]}`, "roles must be a list of integer IDs."},
		{"is_active wrong type", `{"username":"ann","email":"a@b.c","is_active":"yes"}`, "is_active must be a boolean."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			code, body := f.do(t, http.MethodPost, "/users/", tc.body)
			require.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tc.msg, body["error"])

			_, list := f.do(t, http.MethodGet, "/users/", "")
			assert.Equal(t, float64(0), list["count"], "no user may be created")
			assert.Empty(t, f.audit.events)
		})
	}
}

func TestUpdateUserRelations(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/users/", `{"username":"ann","email":"ann@example.com","roles":[1,2],"permissions":[1]}`)
	require.Equal(t, http.StatusCreated, code)

	// omitted relations are kept
	code, body := f.do(t, http.MethodPut, "/users/1", `{"email":"ann@corp.example"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ann", body["username"])
	assert.Equal(t, "ann@corp.example", body["email"])
	assert.Equal(t, []int64{1, 2}, ids(t, body["roles"]))
	assert.Equal(t, []int64{1}, ids(t, body["permissions"]))

	// replacement, not merge
	code, body = f.do(t, http.MethodPut, "/users/1", `{"roles":[3]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int64{3}, ids(t, body["roles"]))

	// empty list clears
	code, body = f.do(t, http.MethodPut, "/users/1", `{"roles":[],"permissions":null}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["roles"])
	assert.Equal(t, []int64{1}, ids(t, body["permissions"]))
}

func TestUpdateUserFailsFastOnInvalidRelation(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/users/", `{"username":"ann","email":"ann@example.com","roles":[1]}`)
	require.Equal(t, http.StatusCreated, code)

	code, body := f.do(t, http.MethodPut, "/users/1", `{"username":"changed","roles":[1,999]}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid roles IDs.", body["error"])

	code, body = f.do(t, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ann", body["username"])
	assert.Equal(t, []int64{1}, ids(t, body["roles"]))
}

func TestUpdateUserRejectsBlankRequiredFields(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/users/", `{"username":"ann","email":"ann@example.com"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body := f.do(t, http.MethodPut, "/users/1", `{"username":""}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "username is required.", body["error"])

	code, body = f.do(t, http.MethodPut, "/users/1", `{"email":null}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email is required.", body["error"])
}

func TestDeleteUserTwice(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/users/", `{"username":"ann","email":"ann@example.com"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body := f.do(t, http.MethodDelete, "/users/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "deleted", body["status"])

	code, body = f.do(t, http.MethodDelete, "/users/1", "")
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found.", body["error"])
}

func TestDeletedRoleDisappearsFromUsers(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/users/", `{"username":"ann","email":"ann@example.com","roles":[1,2]}`)
	require.Equal(t, http.StatusCreated, code)

	require.NoError(t, f.store.Roles().Delete(context.Background(), 1))

	code, body := f.do(t, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int64{2}, ids(t, body["roles"]))
}

func TestListUsersEagerlyLoadsRelations(t *testing.T) {
	f := newFixture(t)
	for i, payload := range []string{
		`{"username":"a","email":"a@x","roles":[1]}`,
		`{"username":"b","email":"b@x","permissions":[2]}`,
		`{"username":"c","email":"c@x"}`,
	} {
		code, _ := f.do(t, http.MethodPost, "/users/", payload)
		require.Equal(t, http.StatusCreated, code, "user %d", i)
	}

	code, body := f.do(t, http.MethodGet, "/users/?limit=2", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["count"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	second := results[1].(map[string]any)
	assert.Equal(t, []int64{1}, ids(t, first["roles"]))
	assert.Equal(t, []int64{2}, ids(t, second["permissions"]))
}

func TestUserNotFoundForMalformedID(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/users/x1", "")
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found.", body["error"])
}
