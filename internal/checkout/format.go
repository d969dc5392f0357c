package checkout

import "strings"

// FormatCardNumber groups the number in blocks of four: "4111111111111111" -> "4111 1111 1111 1111".
func FormatCardNumber(raw string) string {
	compact := strings.Join(strings.Fields(raw), "")
	if compact == "" {
		return ""
	}
	var groups []string
	for len(compact) > 4 {
		groups = append(groups, compact[:4])
		compact = compact[4:]
	}
	groups = append(groups, compact)
	return strings.Join(groups, " ")
}

// FormatExpiry keeps the digits of raw and inserts a slash after the month: "1227" -> "12/27".
func FormatExpiry(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) < 2 {
		return digits
	}
	if len(digits) > 4 {
		digits = digits[:4]
	}
	return digits[:2] + "/" + digits[2:]
}

// MaskCardNumber hides everything but the last four digits.
func MaskCardNumber(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "**** **** **** " + digits
}

// stripSeparators removes the characters people type between digit groups.
func stripSeparators(raw string, separators string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(separators, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

func onlyDigits(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
