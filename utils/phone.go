package utils

import (
	"regexp"
	"strings"
)

// FormatPhoneNumber strips non-digits and prefixes the Mauritanian country
// code when missing.
func FormatPhoneNumber(phoneNumber string) string {
	re := regexp.MustCompile(`\D`)
	digits := re.ReplaceAllString(phoneNumber, "")
	digits = strings.TrimLeft(digits, "0")

	// 8 digits is a bare local number; 11 means the country code is already
	// there
	if len(digits) == 8 {
		digits = "222" + digits
	}

	return digits
}

// ValidatePhoneNumber accepts 8-digit Mauritanian numbers starting with 2, 3
// or 4.
func ValidatePhoneNumber(phoneNumber string) bool {
	re := regexp.MustCompile(`\D`)
	cleaned := re.ReplaceAllString(phoneNumber, "")

	// local numbers may themselves start with 222, so only treat it as the
	// country code when 8 digits remain after stripping it
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "222") {
		cleaned = cleaned[3:]
	}

	if len(cleaned) != 8 {
		return false
	}

	switch cleaned[0] {
	case '2', '3', '4':
		return true
	}
	return false
}
