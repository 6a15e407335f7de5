package inputval

import (
	"net/url"
	"strings"

	"github.com/ufarent/ufarent/internal/domain/models"
)

// IsValidEmail reports whether s looks like a plausible email address.
// This is deliberately stricter than RFC 5322 about dots (no leading,
// trailing, or consecutive dots in either part) because those almost always
// indicate a typo, and it rejects display-name forms like "Name <a@b.com>".
// Single-label domains are allowed for dev and test environments.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, " \t<>") {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	if badDots(local) || badDots(domain) {
		return false
	}
	if strings.Contains(domain, "@") {
		return false
	}
	return true
}

func badDots(part string) bool {
	return strings.HasPrefix(part, ".") ||
		strings.HasSuffix(part, ".") ||
		strings.Contains(part, "..")
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsValidObjectID reports whether s is a 24-character hex MongoDB ObjectID.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 24 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidUUID reports whether s is a canonical 36-character UUID
// (8-4-4-4-12 hex groups). Listing ids use this format.
func IsValidUUID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return false
	}
	for i, r := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if r != '-' {
				return false
			}
			continue
		}
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidAuthMethod reports whether method (case-insensitive, trimmed) is a
// supported sign-in method.
func IsValidAuthMethod(method string) bool {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case models.AuthMethodPassword, models.AuthMethodGoogle:
		return true
	}
	return false
}
