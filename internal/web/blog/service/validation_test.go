package service

import (
	"strings"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/envo-blog/internal/web/blog/model"
)

func validDraft() model.Draft {
	return model.Draft{
		Title:      "Solar 101",
		Excerpt:    "panels",
		Content:    "line one\nline two",
		Category:   "Renewable Energy",
		CoverImage: "https://img.example.com/sun.png",
		ReadTime:   4,
		Author:     model.Author{Name: "Ann", Avatar: "https://img.example.com/ann.png"},
	}
}

// TestValidateDraft_Trims verifies that text fields are trimmed.
func TestValidateDraft_Trims(t *testing.T) {
	d := validDraft()
	d.Title = "  Solar 101 \n"
	got, err := ValidateDraft(d)
	require.NoError(t, err)
	require.Equal(t, "Solar 101", got.Title)
	require.Equal(t, d.Content, got.Content)
}

// TestValidateDraft_Rejects verifies each rejected field is reported as a validation error.
func TestValidateDraft_Rejects(t *testing.T) {
	cases := map[string]func(*model.Draft){
		"title":      func(d *model.Draft) { d.Title = "   " },
		"long title": func(d *model.Draft) { d.Title = strings.Repeat("a", maxPostTitleLength+1) },
		"category":   func(d *model.Draft) { d.Category = "renewable energy" },
		"readTime":   func(d *model.Draft) { d.ReadTime = 0 },
		"negative":   func(d *model.Draft) { d.ReadTime = -3 },
		"cover":      func(d *model.Draft) { d.CoverImage = "not a url" },
		"null byte":  func(d *model.Draft) { d.Content = "a\x00b" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := validDraft()
			mutate(&d)
			_, err := ValidateDraft(d)
			require.Error(t, err)
			require.True(t, errors.Is(err, model.ErrValidation), err.Error())
		})
	}
}

// TestSanitizeEmail verifies that only surrounding whitespace is removed.
func TestSanitizeEmail(t *testing.T) {
	email, err := SanitizeEmail("  A@X.com \t")
	require.NoError(t, err)
	require.Equal(t, "A@X.com", email)

	for _, bad := range []string{"", "nope", "Example <user@example.com>", "a@"} {
		_, err = SanitizeEmail(bad)
		require.True(t, errors.Is(err, model.ErrValidation), bad)
	}
}

func TestSanitizeCount(t *testing.T) {
	_, err := sanitizeCount(0)
	require.Error(t, err)
	_, err = sanitizeCount(-3)
	require.True(t, errors.Is(err, model.ErrValidation))

	n, err := sanitizeCount(MaxListCount + 1)
	require.NoError(t, err)
	require.Equal(t, MaxListCount, n)

	n, err = sanitizeCount(5)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}
