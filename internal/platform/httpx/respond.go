// Package httpx provides HTTP response utilities.
package httpx

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// MaxBodyBytes bounds request payloads read by DecodeObject.
const MaxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends {"error": message} with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Deleted acknowledges a successful delete.
func Deleted(w http.ResponseWriter) {
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// DecodeObject reads the request body as a JSON object. An empty body decodes
// to an empty payload.
func DecodeObject(r *http.Request) (shared.Payload, error) {
	if r.Body == nil {
		return shared.Payload{}, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, shared.InvalidBody("Invalid JSON body.")
	}
	if len(body) > MaxBodyBytes {
		return nil, shared.InvalidBody("Request body too large.")
	}
	return shared.ParsePayload(body)
}
