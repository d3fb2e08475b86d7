package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidNodeName rejects empty names, path separators and names longer
// than 255 characters, mirroring what the store will accept.
func IsValidNodeName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return name != "." && name != ".."
}
