package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-iam/internal/audit"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
)

type stubTimelineService struct {
	entries     []audit.Entry
	lastFilters audit.TimelineFilters
	lastWindow  shared.Window
}

func (s *stubTimelineService) Timeline(_ context.Context, filters audit.TimelineFilters, window shared.Window) ([]audit.Entry, int, error) {
	s.lastFilters = filters
	s.lastWindow = window
	return s.entries, len(s.entries), nil
}

func serve(t *testing.T, service TimelineService, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/audit-logs", NewHandler(nil, service, shared.DefaultPagination()).MountRoutes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestTimelineFiltersAndPage(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	service := &stubTimelineService{entries: []audit.Entry{{
		EventID: "e1", Action: "user.updated", Entity: "user", EntityID: "7",
		Meta: json.RawMessage(`{"fields":["email"]}`), OccurredAt: at,
	}}}
	rec := serve(t, service, "/audit-logs/?entity=user&entity_id=7&from=2026-05-01T00:00:00Z&limit=500")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, "user", service.lastFilters.Entity)
	require.Equal(t, "7", service.lastFilters.EntityID)
	require.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), service.lastFilters.From)
	require.True(t, service.lastFilters.To.IsZero())
	require.Equal(t, shared.MaxLimit, service.lastWindow.Limit)

	var page struct {
		Count   int                   `json:"count"`
		Limit   int                   `json:"limit"`
		Results []audit.EntryResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, 1, page.Count)
	require.Equal(t, shared.MaxLimit, page.Limit)
	require.Len(t, page.Results, 1)
	require.Equal(t, "user.updated", page.Results[0].Action)
	require.JSONEq(t, `{"fields":["email"]}`, string(page.Results[0].Meta))
}

func TestTimelineEmptyResults(t *testing.T) {
	rec := serve(t, &stubTimelineService{}, "/audit-logs/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"count":0,"limit":20,"offset":0,"results":[]}`, rec.Body.String())
}

func TestTimelineRejectsBadParameters(t *testing.T) {
	cases := map[string]string{
		"/audit-logs/?from=yesterday": `{"error":"from must be an RFC 3339 timestamp."}`,
		"/audit-logs/?to=2026-13-01":  `{"error":"to must be an RFC 3339 timestamp."}`,
		"/audit-logs/?limit=x":        `{"error":"limit must be an integer."}`,
	}
	for target, body := range cases {
		t.Run(target, func(t *testing.T) {
			rec := serve(t, &stubTimelineService{}, target)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.JSONEq(t, body, rec.Body.String())
		})
	}
}
