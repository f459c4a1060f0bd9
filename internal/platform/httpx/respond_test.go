package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

func TestRespondErrorMapsTaxonomy(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{shared.InvalidBody("Invalid JSON body."), http.StatusBadRequest, "Invalid JSON body."},
		{shared.MissingField("name", "name is required."), http.StatusBadRequest, "name is required."},
		{shared.InvalidParameter("limit", "limit must be positive."), http.StatusBadRequest, "limit must be positive."},
		{shared.InvalidRelation("roles", "Invalid roles IDs."), http.StatusBadRequest, "Invalid roles IDs."},
		{fmt.Errorf("get role: %w", shared.NotFound("Role")), http.StatusNotFound, "Role not found."},
		{shared.ErrIdempotencyInFlight, http.StatusConflict, "A request with this idempotency key is already in progress."},
		{errors.New("connection reset"), http.StatusInternalServerError, "Internal server error."},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		RespondError(rr, nil, tt.err)
		assert.Equal(t, tt.status, rr.Code, tt.message)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		var body ErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tt.message, body.Error)
	}
}

func TestDecodeObject(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/roles/", strings.NewReader(`{"name":"admin"}`))
	payload, err := DecodeObject(req)
	require.NoError(t, err)
	assert.True(t, payload.Has("name"))

	req = httptest.NewRequest(http.MethodPost, "/roles/", nil)
	payload, err = DecodeObject(req)
	require.NoError(t, err)
	assert.Empty(t, payload)

	req = httptest.NewRequest(http.MethodPost, "/roles/", strings.NewReader(`not json`))
	_, err = DecodeObject(req)
	assert.True(t, errors.Is(err, shared.ErrInvalidBody))

	big := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/roles/", strings.NewReader(big))
	_, err = DecodeObject(req)
	require.Error(t, err)
	assert.Equal(t, "Request body too large.", err.Error())
}

func TestDeleted(t *testing.T) {
	rr := httptest.NewRecorder()
	Deleted(rr)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rr.Body.String())
}
