package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload(nil)
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = ParsePayload([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = ParsePayload([]byte(`{"name":"admin","description":null}`))
	require.NoError(t, err)
	assert.True(t, p.Has("name"))
	assert.True(t, p.Has("description"))
	assert.False(t, p.Has("missing"))

	for _, body := range []string{`{`, `[1,2]`, `"text"`, `null`, `42`, `{"a":1}x`} {
		_, err := ParsePayload([]byte(body))
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, ErrInvalidBody), body)
		assert.Equal(t, "Invalid JSON body.", err.Error())
	}
}

func TestPayloadString(t *testing.T) {
	p, err := ParsePayload([]byte(`{"name":"ops","description":null,"count":3}`))
	require.NoError(t, err)

	v, present, err := p.String("name")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "ops", v)

	v, present, err = p.String("description")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "", v)

	_, present, err = p.String("absent")
	require.NoError(t, err)
	assert.False(t, present)

	_, _, err = p.String("count")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidBody))
	assert.Equal(t, "count must be a string.", err.Error())
}

func TestPayloadBool(t *testing.T) {
	p, err := ParsePayload([]byte(`{"a":true,"b":false,"c":null,"d":"yes"}`))
	require.NoError(t, err)

	ptr, err := p.OptionalBool("a")
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.True(t, *ptr)

	ptr, err = p.OptionalBool("b")
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.False(t, *ptr)

	ptr, err = p.OptionalBool("missing")
	require.NoError(t, err)
	assert.Nil(t, ptr)

	_, err = p.OptionalBool("c")
	assert.True(t, errors.Is(err, ErrInvalidBody))
	_, err = p.OptionalBool("d")
	assert.True(t, errors.Is(err, ErrInvalidBody))
}

func TestFormatTime(t *testing.T) {
	assert.Nil(t, FormatTime(time.Time{}))
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	got := FormatTime(ts)
	require.NotNil(t, got)
	assert.Equal(t, "2024-03-01T10:30:00Z", *got)
}

func TestUserSafeMessage(t *testing.T) {
	assert.Equal(t, "Role not found.", UserSafeMessage(NotFound("Role")))
	assert.Equal(t, "Internal server error.", UserSafeMessage(errors.New("pq: connection reset")))
	assert.Contains(t, UserSafeMessage(ErrIdempotencyInFlight), "in progress")
}
