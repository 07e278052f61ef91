package utils

import (
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
)

// NormalizeEmail produces the merge key for a contact email: trimmed and lower-cased, nothing else.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports syntax validity only; the address itself is never rewritten.
func IsValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return mailvalidate.ValidateEmailSyntax(strings.TrimSpace(email)).IsValid
}
