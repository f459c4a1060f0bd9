package shared

import (
	"bytes"
	"encoding/json"
	"time"
)

// Payload is a decoded JSON object keyed by field name. Absent keys mean
// "not provided"; keys holding null mean an explicit clear.
type Payload map[string]json.RawMessage

// ParsePayload decodes body into a Payload. An empty body yields an empty payload.
func ParsePayload(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Payload{}, nil
	}
	var payload Payload
	if err := json.Unmarshal(trimmed, &payload); err != nil || payload == nil {
		return nil, InvalidBody("Invalid JSON body.")
	}
	return payload, nil
}

// Has reports whether key was present in the payload, including as null.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Raw returns the undecoded value of key, or nil when absent.
func (p Payload) Raw(key string) json.RawMessage {
	return p[key]
}

// String decodes key as a JSON string. Null decodes to "".
func (p Payload) String(key string) (value string, present bool, err error) {
	raw, ok := p[key]
	if !ok {
		return "", false, nil
	}
	if isNull(raw) {
		return "", true, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", true, InvalidField(key, "a string")
	}
	return value, true, nil
}

// Bool decodes key as a JSON boolean. Null is rejected.
func (p Payload) Bool(key string) (value bool, present bool, err error) {
	raw, ok := p[key]
	if !ok {
		return false, false, nil
	}
	if isNull(raw) {
		return false, true, InvalidField(key, "a boolean")
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, true, InvalidField(key, "a boolean")
	}
	return value, true, nil
}

// OptionalString returns a pointer to the decoded string when key is present.
func (p Payload) OptionalString(key string) (*string, error) {
	value, present, err := p.String(key)
	if err != nil || !present {
		return nil, err
	}
	return &value, nil
}

// OptionalBool returns a pointer to the decoded boolean when key is present.
func (p Payload) OptionalBool(key string) (*bool, error) {
	value, present, err := p.Bool(key)
	if err != nil || !present {
		return nil, err
	}
	return &value, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// FormatTime renders t as ISO-8601, or nil for the zero time.
func FormatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(time.RFC3339Nano)
	return &s
}
