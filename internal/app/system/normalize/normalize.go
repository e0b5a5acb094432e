// Package normalize provides input normalization for user-supplied
// identity fields. Stores call these before writing; lookups call the
// same functions so comparisons stay consistent.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name but preserves its case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role string. It does not validate;
// models.ParseRole does.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status string.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AuthMethod lowercases and trims an auth method string.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
