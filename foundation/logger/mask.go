package logger

import (
	"strings"
	"unicode"
)

// MaskEmail hides the local part of an address except its first and last rune.
//
//	"ana@example.com" -> "a*a@example.com"
//	"ab@example.com"  -> "a*@example.com"
//	"not-an-email"    -> "n**********l"
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return maskMiddle([]rune(email))
	}
	return maskMiddle([]rune(email[:at])) + email[at:]
}

// MaskPhone keeps formatting symbols and the last four digits
// (only the last one when the number has four digits or fewer).
//
//	"+55 11 91234-5678" -> "+** ** *****-5678"
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	runes := []rune(phone)
	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits == 0 {
		return maskMiddle(runes)
	}

	keep := 4
	if digits <= 4 {
		keep = 1
	}
	seen := 0
	for i, r := range runes {
		if !unicode.IsDigit(r) {
			continue
		}
		seen++
		if seen <= digits-keep {
			runes[i] = '*'
		}
	}
	return string(runes)
}

func maskMiddle(runes []rune) string {
	switch n := len(runes); {
	case n <= 1:
		return string(runes)
	case n == 2:
		return string(runes[0]) + "*"
	default:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	}
}
