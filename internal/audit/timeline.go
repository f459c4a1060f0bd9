package audit

import (
	"encoding/json"
	"time"
)

// TimelineFilters narrows the audit trail. Zero values match everything.
type TimelineFilters struct {
	Entity   string
	EntityID string
	Action   string
	From     time.Time
	To       time.Time
}

// Entry is one persisted audit event.
type Entry struct {
	EventID    string
	Action     string
	Entity     string
	EntityID   string
	Meta       json.RawMessage
	OccurredAt time.Time
}

// EntryResponse is the JSON shape of an audit entry.
type EntryResponse struct {
	EventID    string          `json:"event_id"`
	Action     string          `json:"action"`
	Entity     string          `json:"entity"`
	EntityID   string          `json:"entity_id"`
	Meta       json.RawMessage `json:"meta"`
	OccurredAt string          `json:"occurred_at"`
}

// ToResponse serializes an entry.
func ToResponse(e Entry) EntryResponse {
	meta := e.Meta
	if len(meta) == 0 {
		meta = json.RawMessage(`{}`)
	}
	return EntryResponse{
		EventID:    e.EventID,
		Action:     e.Action,
		Entity:     e.Entity,
		EntityID:   e.EntityID,
		Meta:       meta,
		OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

// ToResponses serializes a page of entries.
func ToResponses(entries []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToResponse(e))
	}
	return out
}
