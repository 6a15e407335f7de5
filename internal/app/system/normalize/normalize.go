// Package normalize provides canonicalization helpers for user-supplied
// identity fields. Normalizing at the edges keeps store filters and
// comparisons consistent across handlers.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AuthMethod lowercases and trims an auth method value.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Phone trims a phone number and collapses interior whitespace.
func Phone(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
