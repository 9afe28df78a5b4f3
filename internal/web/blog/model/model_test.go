package model

import (
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.FixedZone("CST", 8*3600))
	require.Equal(t, "2024-05-01T01:30:00.000Z", FormatTime(ts))

	parsed, err := ParseTime("2024-05-01T01:30:00.000Z")
	require.NoError(t, err)
	require.True(t, ts.Equal(parsed))

	parsed, err = ParseTime("2024-05-01T09:30:00+08:00")
	require.NoError(t, err)
	require.True(t, ts.Equal(parsed))

	_, err = ParseTime("yesterday")
	require.Error(t, err)
}

func TestFormatTimeOrdersLexically(t *testing.T) {
	early := FormatTime(time.Date(2024, 5, 1, 9, 0, 0, 5_000_000, time.UTC))
	late := FormatTime(time.Date(2024, 5, 1, 9, 0, 0, 40_000_000, time.UTC))
	require.Less(t, early, late)
}

func TestIsValidCategory(t *testing.T) {
	require.Len(t, Categories, 10)
	require.True(t, IsValidCategory("Renewable Energy"))
	require.False(t, IsValidCategory("renewable energy"))
	require.False(t, IsValidCategory("Renewable Energy "))
	require.False(t, IsValidCategory(""))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("title", "%s is required", "title")
	require.True(t, errors.Is(err, ErrValidation))
	require.Equal(t, "title is required", err.Error())
	require.False(t, errors.Is(ErrPostNotFound, ErrValidation))
}

func TestNewDraft(t *testing.T) {
	d := NewDraft()
	require.Equal(t, DefaultReadTime, d.ReadTime)
	require.Equal(t, Author{}, d.Author)
	require.Empty(t, d.CreatedAt)
}
