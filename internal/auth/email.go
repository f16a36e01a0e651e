package auth

import "regexp"

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// ValidEmail reports whether email matches the accepted address pattern.
// Intentionally a simple check, not a full RFC 5322 validator.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
