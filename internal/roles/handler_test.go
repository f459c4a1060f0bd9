package roles_test

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

	"github.com/odyssey-erp/odyssey-iam/internal/platform/memstore"
	"github.com/odyssey-erp/odyssey-iam/internal/roles"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
	_ "github.com/odyssey-erp/odyssey-iam/testing"
)

type recordingAudit struct {
	events []shared.AuditEvent
}

func (r *recordingAudit) Publish(_ context.Context, event shared.AuditEvent) {
	r.events = append(r.events, event)
}

func newRoleRouter(t *testing.T) (http.Handler, *recordingAudit) {
	t.Helper()
	audit := &recordingAudit{}
	service := roles.NewService(memstore.New().Roles(), audit)
	handler := roles.NewHandler(nil, service, shared.DefaultPagination())
	r := chi.NewRouter()
	r.Route("/roles", handler.MountRoutes)
	return r, audit
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestCreateRoleDefaultsDescription(t *testing.T) {
	h, audit := newRoleRouter(t)

	rr := do(t, h, http.MethodPost, "/roles/", `{"name":"admin"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "admin", body["name"])
	assert.Equal(t, "", body["description"])
	assert.NotNil(t, body["created_at"])
	assert.NotNil(t, body["updated_at"])

	require.Len(t, audit.events, 1)
	assert.Equal(t, "role.created", audit.events[0].Action)
	assert.Equal(t, "1", audit.events[0].EntityID)
}

func TestCreateRoleValidation(t *testing.T) {
	h, audit := newRoleRouter(t)

	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"empty object", `{}`, "name is required."},
		{"empty body", ``, "name is required."},
		{"blank name", `{"name":""}`, "name is required."},
		{"null name", `{"name":null}`, "name is required."},
		{"wrong type", `{"name":5}`, "name must be a string."},
		{"not json", `{"name":`, "Invalid JSON body."},
		{"array body", `["admin"]`, "Invalid JSON body."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/roles/", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, map[string]any{"error": tc.msg}, decode(t, rr))
		})
	}
	assert.Empty(t, audit.events)
}

func TestListRolesPagination(t *testing.T) {
	h, _ := newRoleRouter(t)
	for _, name := range []string{"a", "b", "c"} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/roles/", `{"name":"`+name+`"}`).Code)
	}

	body := decode(t, do(t, h, http.MethodGet, "/roles/?limit=2&offset=1", ""))
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, float64(2), body["limit"])
	assert.Equal(t, float64(1), body["offset"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].(map[string]any)["name"])

	body = decode(t, do(t, h, http.MethodGet, "/roles/?limit=1000", ""))
	assert.Equal(t, float64(100), body["limit"])

	body = decode(t, do(t, h, http.MethodGet, "/roles/?offset=10", ""))
	assert.Equal(t, []any{}, body["results"])

	rr := do(t, h, http.MethodGet, "/roles/?limit=abc", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "limit must be an integer.", decode(t, rr)["error"])

	rr = do(t, h, http.MethodGet, "/roles/?limit=0", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "limit must be positive.", decode(t, rr)["error"])

	rr = do(t, h, http.MethodGet, "/roles/?offset=-1", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "offset must be >= 0.", decode(t, rr)["error"])
}

func TestRoleDetailLifecycle(t *testing.T) {
	h, audit := newRoleRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/roles/", `{"name":"ops","description":"operators"}`).Code)

	rr := do(t, h, http.MethodPut, "/roles/1", `{"description":"on-call"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "ops", body["name"])
	assert.Equal(t, "on-call", body["description"])

	rr = do(t, h, http.MethodPut, "/roles/1", `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "name is required.", decode(t, rr)["error"])

	rr = do(t, h, http.MethodGet, "/roles/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "on-call", decode(t, rr)["description"])

	rr = do(t, h, http.MethodDelete, "/roles/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"status": "deleted"}, decode(t, rr))

	rr = do(t, h, http.MethodDelete, "/roles/1", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Role not found.", decode(t, rr)["error"])

	actions := make([]string, 0, len(audit.events))
	for _, e := range audit.events {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"role.created", "role.updated", "role.deleted"}, actions)
}

func TestRoleDetailNotFound(t *testing.T) {
	h, _ := newRoleRouter(t)
	for _, target := range []string{"/roles/42", "/roles/abc"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			rr := do(t, h, method, target, `{"name":"x"}`)
			require.Equal(t, http.StatusNotFound, rr.Code, "%s %s", method, target)
			assert.Equal(t, "Role not found.", decode(t, rr)["error"])
		}
	}
}
