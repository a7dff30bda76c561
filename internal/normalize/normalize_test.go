package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "crlf and cr", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "trims", in: "  \n hello \t ", want: "hello"},
		{name: "integer", in: 42, want: "42"},
		{name: "float without exponent", in: float64(1700000000), want: "1700000000"},
		{name: "json number", in: json.Number("12345"), want: "12345"},
		{name: "bool", in: true, want: "true"},
		{name: "map is still stringified", in: map[string]int{"a": 1}, want: "map[a:1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestIsRemoved(t *testing.T) {
	assert.True(t, IsRemoved("[deleted]"))
	assert.True(t, IsRemoved("  [REMOVED]  "))
	assert.True(t, IsRemoved("This post was Removed by Reddit for spam"))
	assert.False(t, IsRemoved("this is fine"))
	assert.False(t, IsRemoved("[deleted] but then more text"))
	assert.False(t, IsRemoved(""))
}

func TestToUTC(t *testing.T) {
	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	t.Run("epoch seconds matches iso string", func(t *testing.T) {
		fromInt := ToUTC(1700000000)
		fromString := ToUTC("2023-11-14T22:13:20Z")
		require.NotNil(t, fromInt)
		require.NotNil(t, fromString)
		assert.True(t, fromInt.Equal(*fromString))
		assert.True(t, fromInt.Equal(want))
		assert.Equal(t, time.UTC, fromInt.Location())
	})

	t.Run("json number and float", func(t *testing.T) {
		got := ToUTC(json.Number("1700000000"))
		require.NotNil(t, got)
		assert.True(t, got.Equal(want))

		got = ToUTC(1700000000.5)
		require.NotNil(t, got)
		assert.Equal(t, want.Add(500*time.Millisecond), *got)
	})

	t.Run("nil and malformed yield nil", func(t *testing.T) {
		assert.Nil(t, ToUTC(nil))
		assert.Nil(t, ToUTC("not-a-date"))
		assert.Nil(t, ToUTC("   "))
	})

	t.Run("aware datetime is converted", func(t *testing.T) {
		zone := time.FixedZone("UTC+2", 2*60*60)
		got := ToUTC(time.Date(2023, 11, 15, 0, 13, 20, 0, zone))
		require.NotNil(t, got)
		assert.Equal(t, want, *got)
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("out of range epochs yield nil", func(t *testing.T) {
		assert.Nil(t, ToUTC(float64(1e20)))
		assert.Nil(t, ToUTC(-1e20))
		assert.Nil(t, ToUTC(int64(1700000000000)))
		assert.Nil(t, ToUTC(json.Number("99999999999999999999")))
		assert.Nil(t, ToUTC("3000-01-01T00:00:00Z"))
		assert.Nil(t, ToUTC(time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("range edges are kept", func(t *testing.T) {
		got := ToUTC(MAX_EPOCH_SECONDS)
		require.NotNil(t, got)
		assert.Equal(t, 2262, got.Year())

		got = ToUTC(-MAX_EPOCH_SECONDS)
		require.NotNil(t, got)
		assert.Equal(t, 1677, got.Year())
	})

	t.Run("naive string is read as utc", func(t *testing.T) {
		got := ToUTC("2023-11-14 22:13:20")
		require.NotNil(t, got)
		assert.Equal(t, want, *got)
	})
}

func TestInt64(t *testing.T) {
	i, ok := Int64(json.Number("17"))
	assert.True(t, ok)
	assert.Equal(t, int64(17), i)

	i, ok = Int64(3.0)
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)

	_, ok = Int64(3.5)
	assert.False(t, ok)

	_, ok = Int64(true)
	assert.False(t, ok)

	assert.Nil(t, Int64Ptr("abc"))
	assert.Equal(t, 0.25, *Float64Ptr(json.Number("0.25")))
}
