package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// emailRegex is a pragmatic address check: one @, no spaces, a dot in the
// domain. Full RFC 5322 validation rejects addresses that work in practice.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail validates an email address for storage.
//
// The check is intentionally loose: it enforces the shape local@domain.tld
// and a sane length, nothing more. Deliverability is not this layer's job.
func ValidateEmail(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidEmail, "email cannot be empty")
	}

	if len(addr) > 254 {
		return New(ErrCodeInvalidEmail, "email too long (max 254 characters)")
	}

	if !emailRegex.MatchString(addr) {
		return New(ErrCodeInvalidEmail, "invalid email address: %q", addr)
	}

	return nil
}

// ValidateRecordName validates a display name (contact, account, template).
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateRecordName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}

	return nil
}

// phoneRegex accepts digits with common separators and an optional leading +.
var phoneRegex = regexp.MustCompile(`^\+?[0-9(][0-9 ()./-]{5,29}$`)

// ValidatePhone validates a phone number. Empty is allowed — phone is an
// optional field on every record that carries one.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}

	if !phoneRegex.MatchString(phone) {
		return New(ErrCodeInvalidInput, "invalid phone number: %q", phone)
	}

	return nil
}

// widgetIDRegex matches dashboard widget identifiers: lowercase snake_case.
var widgetIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateWidgetID validates a dashboard widget identifier.
func ValidateWidgetID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidWidget, "widget id cannot be empty")
	}

	if len(id) > 64 {
		return New(ErrCodeInvalidWidget, "widget id too long (max 64 characters)")
	}

	if !widgetIDRegex.MatchString(id) {
		return New(ErrCodeInvalidWidget, "invalid widget id: %q", id)
	}

	return nil
}

// ValidatePath validates a file path for import/export operations.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
