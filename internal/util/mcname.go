package util

import (
	"regexp"
	"strings"
)

// Java Edition usernames: 3–16 characters, letters, digits, underscore.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

// IsValidUsername reports whether name could be a Java Edition
// username. Anything failing this never reaches the profile service.
func IsValidUsername(name string) bool {
	return usernamePattern.MatchString(strings.TrimSpace(name))
}

// SanitizeUsername strips the decorations users paste along with a
// name: whitespace, a leading @, surrounding backticks.
func SanitizeUsername(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	s = strings.Trim(s, "`")
	return strings.TrimSpace(s)
}
