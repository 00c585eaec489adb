package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const s = "2024-02-29 23:59:58"

	decoded, err := DecodeTime(s)
	require.NoError(t, err)
	assert.Equal(t, s, EncodeTime(decoded))

	now := time.Date(2025, 7, 1, 8, 30, 0, 0, time.UTC)
	back, err := DecodeTime(EncodeTime(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(back))
}

func TestEncodeConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	in := time.Date(2025, 1, 1, 2, 0, 0, 0, loc)
	assert.Equal(t, "2025-01-01 00:00:00", EncodeTime(in))
}

func TestEncodeNullTime(t *testing.T) {
	assert.False(t, EncodeNullTime(null.Time{}).Valid)

	got := EncodeNullTime(null.TimeFrom(time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC)))
	require.True(t, got.Valid)
	assert.Equal(t, "2020-05-06 07:08:09", got.String)
}

func TestDecodeInvalid(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2024-13-01 00:00:00", "2024-01-01T00:00:00Z"} {
		_, err := DecodeTime(in)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, "input %q", in)
	}
}

func TestDelta(t *testing.T) {
	a := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(49*time.Hour + 30*time.Second)

	assert.Equal(t, int64(2*86400+3600+30), Delta(a, b))
	assert.Equal(t, -int64(2*86400+3600+30), Delta(b, a))
	assert.Equal(t, int64(0), Delta(a, a))
}
