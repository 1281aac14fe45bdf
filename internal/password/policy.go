package password

import "strings"

// MinLength is the shortest password ValidateStrength accepts.
const MinLength = 8

// Specials is the fixed set of characters that satisfy the special-character
// requirement.
const Specials = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// Requirements describes the policy in the form shown to end users.
const Requirements = "min 8 chars, mixed case, number, special char"

// ValidateStrength reports whether p is at least MinLength bytes long and
// contains an ASCII uppercase letter, an ASCII lowercase letter, an ASCII
// digit, and one character from Specials. There is no upper bound here.
func ValidateStrength(p string) bool {
	if len(p) < MinLength {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(Specials, r):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}
