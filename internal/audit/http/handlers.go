package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-iam/internal/audit"
	"github.com/odyssey-erp/odyssey-iam/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters, window shared.Window) ([]audit.Entry, int, error)
}

// Handler serves the audit timeline.
type Handler struct {
	logger     *slog.Logger
	service    TimelineService
	pagination shared.PaginationConfig
}

// NewHandler builds the audit handler.
func NewHandler(logger *slog.Logger, service TimelineService, pagination shared.PaginationConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pagination: pagination}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	window, err := shared.ParseWindow(query, h.pagination)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	filters, err := parseFilters(query)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	entries, total, err := h.service.Timeline(r.Context(), filters, window)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(total, window, audit.ToResponses(entries)))
}

func parseFilters(query url.Values) (audit.TimelineFilters, error) {
	filters := audit.TimelineFilters{
		Entity:   strings.TrimSpace(query.Get("entity")),
		EntityID: strings.TrimSpace(query.Get("entity_id")),
		Action:   strings.TrimSpace(query.Get("action")),
	}
	var err error
	if filters.From, err = parseTime(query, "from"); err != nil {
		return audit.TimelineFilters{}, err
	}
	if filters.To, err = parseTime(query, "to"); err != nil {
		return audit.TimelineFilters{}, err
	}
	return filters, nil
}

func parseTime(query url.Values, key string) (time.Time, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, shared.InvalidParameter(key, key+" must be an RFC 3339 timestamp.")
	}
	return t.UTC(), nil
}
