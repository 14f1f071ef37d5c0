package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownCities(t *testing.T) {
	tests := []struct {
		city string
		want string
	}{
		{"Минск", "Europe/Minsk"},
		{"минск", "Europe/Minsk"},
		{"  Москва  ", "Europe/Moscow"},
		{"Moscow", "Europe/Moscow"},
		{"Санкт-Петербург", "Europe/Moscow"},
		{"Новосибирск", "Asia/Novosibirsk"},
		{"London", "Europe/London"},
		{"Нью-Йорк", "America/New_York"},
	}

	for _, tt := range tests {
		got, ok := Resolve(tt.city)
		require.True(t, ok, "city %q", tt.city)
		assert.Equal(t, tt.want, got)
	}
}

func TestResolveYoNormalization(t *testing.T) {
	got, ok := Resolve("Могилёв")
	require.True(t, ok)
	assert.Equal(t, "Europe/Minsk", got)
}

func TestResolveIANAPassthrough(t *testing.T) {
	got, ok := Resolve("Asia/Tokyo")
	require.True(t, ok)
	assert.Equal(t, "Asia/Tokyo", got)
}

func TestResolveUnknown(t *testing.T) {
	_, ok := Resolve("Нигдеград")
	assert.False(t, ok)

	_, ok = Resolve("Not/AZone")
	assert.False(t, ok)

	_, ok = Resolve("")
	assert.False(t, ok)
}

func TestToLocal(t *testing.T) {
	utc := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	local, err := ToLocal(utc, "Europe/Moscow")
	require.NoError(t, err)
	assert.Equal(t, 15, local.Hour())

	_, err = ToLocal(utc, "Bad/Zone")
	assert.Error(t, err)
}

func TestToLocalEmptyUsesDefault(t *testing.T) {
	utc := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	local, err := ToLocal(utc, "")
	require.NoError(t, err)
	// Europe/Minsk is UTC+3 year-round.
	assert.Equal(t, 15, local.Hour())
}
