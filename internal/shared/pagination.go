package shared

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is used when the limit query parameter is absent.
	DefaultLimit = 20
	// MaxLimit caps the limit query parameter.
	MaxLimit = 100
)

// PaginationConfig holds the limit bounds applied by ParseWindow.
type PaginationConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultPagination returns the stock limit bounds.
func DefaultPagination() PaginationConfig {
	return PaginationConfig{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit}
}

// Window is the effective limit/offset for a list query.
type Window struct {
	Limit  int
	Offset int
}

// ParseWindow derives the pagination window from limit/offset query parameters.
// A limit above the configured maximum is clamped rather than rejected.
func ParseWindow(query url.Values, cfg PaginationConfig) (Window, error) {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = MaxLimit
	}

	limit := cfg.DefaultLimit
	if query.Has("limit") {
		n, ok := parseInt(lastValue(query, "limit"))
		if !ok {
			return Window{}, InvalidParameter("limit", "limit must be an integer.")
		}
		limit = n
	}

	offset := 0
	if query.Has("offset") {
		n, ok := parseInt(lastValue(query, "offset"))
		if !ok {
			return Window{}, InvalidParameter("offset", "offset must be an integer.")
		}
		offset = n
	}

	if limit <= 0 {
		return Window{}, InvalidParameter("limit", "limit must be positive.")
	}
	if offset < 0 {
		return Window{}, InvalidParameter("offset", "offset must be >= 0.")
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	return Window{Limit: limit, Offset: offset}, nil
}

// lastValue returns the final occurrence of a repeated query parameter.
func lastValue(query url.Values, key string) string {
	values := query[key]
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

// parseInt accepts any well-formed integer; values outside the int range
// saturate so that huge limits clamp and huge offsets yield empty pages.
func parseInt(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err == nil {
		return n, true
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		return n, true
	}
	return 0, false
}

// Page is the JSON envelope for paginated listings.
type Page[T any] struct {
	Count   int `json:"count"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Results []T `json:"results"`
}

// NewPage builds the listing envelope, never emitting a null results array.
func NewPage[T any](total int, window Window, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Count: total, Limit: window.Limit, Offset: window.Offset, Results: results}
}
