package service

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Laisky/envo-blog/internal/web/blog/model"
)

const (
	// maxPostTitleLength caps the length of post titles.
	maxPostTitleLength = 200
	// maxPostExcerptLength caps the length of post excerpts.
	maxPostExcerptLength = 1000
	// maxPostContentLength caps the length of post content.
	maxPostContentLength = 200000
	// maxURLLength caps the length of cover and avatar URIs.
	maxURLLength = 2048
	// maxAuthorNameLength caps the length of author names.
	maxAuthorNameLength = 100
	// maxReadTime caps the read time, in minutes.
	maxReadTime = 600
	// maxEmailLength caps the length of subscriber emails.
	maxEmailLength = 254
	// MaxListCount caps the count of latest and popular lists.
	MaxListCount = 100
)

// sanitizeOptionalText trims input, checks for null bytes, enforces maxLen runes, and returns the sanitized value.
// It accepts the raw input string, a rune length limit, and a field label for error context, returning the sanitized string.
func sanitizeOptionalText(input string, maxLen int, field string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}
	if strings.ContainsRune(trimmed, '\x00') {
		return "", model.NewValidationError(field, "%s contains invalid null byte", field)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", model.NewValidationError(field, "%s exceeds max length %d", field, maxLen)
	}
	return trimmed, nil
}

// sanitizeRequiredText trims input, enforces maxLen runes, and returns the sanitized value or an error.
// It accepts the raw input string, a rune length limit, and a field label, returning the sanitized string.
func sanitizeRequiredText(input string, maxLen int, field string) (string, error) {
	trimmed, err := sanitizeOptionalText(input, maxLen, field)
	if err != nil {
		return "", err
	}
	if trimmed == "" {
		return "", model.NewValidationError(field, "%s is required", field)
	}
	return trimmed, nil
}

// sanitizeURL trims and validates an optional absolute URI.
func sanitizeURL(input string, field string) (string, error) {
	trimmed, err := sanitizeOptionalText(input, maxURLLength, field)
	if err != nil || trimmed == "" {
		return trimmed, err
	}
	if _, err = url.ParseRequestURI(trimmed); err != nil {
		return "", model.NewValidationError(field, "%s is not a valid url", field)
	}
	return trimmed, nil
}

// sanitizeCount validates the size of a latest/popular list.
func sanitizeCount(count int) (int, error) {
	if count < 1 {
		return 0, model.NewValidationError("count", "count must be a positive integer")
	}
	return min(count, MaxListCount), nil
}

// SanitizeEmail trims surrounding whitespace and checks that what remains is a bare address.
// It accepts the raw email string and returns the trimmed email, otherwise unchanged.
func SanitizeEmail(email string) (string, error) {
	trimmed, err := sanitizeRequiredText(email, maxEmailLength, "email")
	if err != nil {
		return "", err
	}
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil || parsed.Address != trimmed {
		return "", model.NewValidationError("email", "invalid email address")
	}
	return trimmed, nil
}

// ValidateDraft checks the fields an admin form submits and returns a sanitized copy.
// The title must be non-empty, the category one of model.Categories, and readTime positive.
// CreatedAt is passed through untouched.
func ValidateDraft(draft model.Draft) (model.Draft, error) {
	var err error
	if draft.Title, err = sanitizeRequiredText(draft.Title, maxPostTitleLength, "title"); err != nil {
		return draft, err
	}
	if draft.Excerpt, err = sanitizeOptionalText(draft.Excerpt, maxPostExcerptLength, "excerpt"); err != nil {
		return draft, err
	}
	if strings.ContainsRune(draft.Content, '\x00') {
		return draft, model.NewValidationError("content", "content contains invalid null byte")
	}
	if utf8.RuneCountInString(draft.Content) > maxPostContentLength {
		return draft, model.NewValidationError("content", "content exceeds max length %d", maxPostContentLength)
	}
	if !model.IsValidCategory(draft.Category) {
		return draft, model.NewValidationError("category", "unknown category %q", draft.Category)
	}
	if draft.ReadTime < 1 || draft.ReadTime > maxReadTime {
		return draft, model.NewValidationError("readTime", "readTime must be within [1~%d]", maxReadTime)
	}
	if draft.CoverImage, err = sanitizeURL(draft.CoverImage, "coverImage"); err != nil {
		return draft, err
	}
	if draft.Author.Name, err = sanitizeOptionalText(draft.Author.Name, maxAuthorNameLength, "author name"); err != nil {
		return draft, err
	}
	if draft.Author.Avatar, err = sanitizeURL(draft.Author.Avatar, "author avatar"); err != nil {
		return draft, err
	}

	return draft, nil
}
