// ABOUTME: Pure canonicalizers for captured field input
// ABOUTME: Normalizes VINs, phone numbers, zips, emails, and dollar amounts
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// VIN uppercases the input and strips everything outside [A-Z0-9].
func VIN(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidVIN reports whether v is exactly 17 characters of the VIN alphabet.
// I, O, and Q are excluded per the VIN standard.
func IsValidVIN(v string) bool {
	if len(v) != 17 {
		return false
	}
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			if r == 'I' || r == 'O' || r == 'Q' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Phone strips non-digits and drops a leading US country code. The result
// is the customer dedupe key; empty string when the input has no digits.
func Phone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}

// Zip keeps digits only, capped at 10 characters.
func Zip(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 10 {
				break
			}
		}
	}
	return b.String()
}

// Email trims whitespace and lowercases.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// DollarsToCents parses free-text dollar input into integer cents, rounded
// to the nearest cent. Malformed or empty input yields 0; it never panics.
func DollarsToCents(text string) int64 {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(amount * 100))
}
