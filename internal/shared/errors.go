package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBody indicates the request payload could not be parsed.
	ErrInvalidBody = errors.New("invalid body")
	// ErrMissingField indicates a required field is absent or empty.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidParameter indicates a malformed or out of range query parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidRelation indicates association ids that are malformed or unknown.
	ErrInvalidRelation = errors.New("invalid relation")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrIdempotencyInFlight indicates a request with the same idempotency key is still running.
	ErrIdempotencyInFlight = errors.New("idempotent request in flight")
)

// RequestError carries a client facing message for one of the sentinel kinds.
type RequestError struct {
	Kind    error
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Kind
}

// InvalidBody reports a malformed payload.
func InvalidBody(message string) error {
	return &RequestError{Kind: ErrInvalidBody, Message: message}
}

// InvalidField reports a payload field holding the wrong JSON type.
func InvalidField(field, expected string) error {
	return &RequestError{Kind: ErrInvalidBody, Field: field, Message: fmt.Sprintf("%s must be %s.", field, expected)}
}

// MissingField reports a required field that was absent or empty.
func MissingField(field, message string) error {
	return &RequestError{Kind: ErrMissingField, Field: field, Message: message}
}

// InvalidParameter reports a bad query parameter.
func InvalidParameter(field, message string) error {
	return &RequestError{Kind: ErrInvalidParameter, Field: field, Message: message}
}

// InvalidRelation reports association ids that cannot be used.
func InvalidRelation(field, message string) error {
	return &RequestError{Kind: ErrInvalidRelation, Field: field, Message: message}
}

// NotFound reports a missing entity, e.g. NotFound("Role") => "Role not found.".
func NotFound(entity string) error {
	return &RequestError{Kind: ErrNotFound, Message: entity + " not found."}
}

// UserSafeMessage returns the client facing message for err, hiding internal failures.
func UserSafeMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	if errors.Is(err, ErrIdempotencyInFlight) {
		return "A request with this idempotency key is already in progress."
	}
	return "Internal server error."
}
