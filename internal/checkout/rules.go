package checkout

import (
	"strings"

	"github.com/fjod/cart-engine/internal/domain"
)

const (
	cardSeparators = " -"
	minCardDigits  = 16
	phoneDigits    = 9
)

// ValidateAttempt checks the fields the attempt's method requires and returns the first failure
// as a *domain.ValidationError.
func ValidateAttempt(attempt domain.PaymentAttempt) error {
	switch {
	case attempt.Method == domain.PaymentMethodMobileTransfer:
		return validateMobile(attempt)
	case attempt.Method.IsCard():
		return validateCard(attempt)
	default:
		return &domain.ValidationError{Method: attempt.Method, Field: "method", Reason: "is not a supported payment method"}
	}
}

func validateMobile(a domain.PaymentAttempt) error {
	phone := strings.TrimSpace(a.Field(domain.FieldPhone))
	if phone == "" {
		return required(a.Method, domain.FieldPhone)
	}
	if _, ok := NormalizePhone(phone); !ok {
		return malformed(a.Method, domain.FieldPhone, "must have exactly 9 digits")
	}
	return nil
}

func validateCard(a domain.PaymentAttempt) error {
	number := strings.TrimSpace(a.Field(domain.FieldCardNumber))
	if number == "" {
		return required(a.Method, domain.FieldCardNumber)
	}
	if digits := stripSeparators(number, cardSeparators); !isDigits(digits) || len(digits) < minCardDigits {
		return malformed(a.Method, domain.FieldCardNumber, "must have at least 16 digits")
	}

	if strings.TrimSpace(a.Field(domain.FieldCardHolder)) == "" {
		return required(a.Method, domain.FieldCardHolder)
	}

	expiry := strings.TrimSpace(a.Field(domain.FieldExpiry))
	if expiry == "" {
		return required(a.Method, domain.FieldExpiry)
	}
	if _, ok := NormalizeExpiry(expiry); !ok {
		return malformed(a.Method, domain.FieldExpiry, "must be MM/YY")
	}

	cvv := strings.TrimSpace(a.Field(domain.FieldCVV))
	if cvv == "" {
		return required(a.Method, domain.FieldCVV)
	}
	if !isDigits(cvv) || len(cvv) < 3 || len(cvv) > 4 {
		return malformed(a.Method, domain.FieldCVV, "must be 3 or 4 digits")
	}
	return nil
}

// NormalizePhone drops every non-digit and reports whether exactly nine digits remain.
func NormalizePhone(raw string) (string, bool) {
	digits := onlyDigits(raw)
	return digits, len(digits) == phoneDigits
}

// NormalizeExpiry accepts "MM/YY", "MMYY" or "MM-YY" style input and returns "MM/YY".
func NormalizeExpiry(raw string) (string, bool) {
	compact := stripSeparators(raw, " /-")
	if !isDigits(compact) || len(compact) != 4 {
		return "", false
	}
	month := compact[:2]
	if month < "01" || month > "12" {
		return "", false
	}
	return month + "/" + compact[2:], true
}

// normalizeAttempt rewrites the fields of a valid attempt into their canonical form:
// card numbers grouped by four, expiry as MM/YY and the phone as bare digits.
func normalizeAttempt(attempt domain.PaymentAttempt) domain.PaymentAttempt {
	fields := make(map[string]string, len(attempt.Fields))
	for k, v := range attempt.Fields {
		fields[k] = strings.TrimSpace(v)
	}
	if attempt.Method.IsCard() {
		fields[domain.FieldCardNumber] = FormatCardNumber(onlyDigits(fields[domain.FieldCardNumber]))
		fields[domain.FieldExpiry] = FormatExpiry(fields[domain.FieldExpiry])
	} else if phone, ok := NormalizePhone(fields[domain.FieldPhone]); ok {
		fields[domain.FieldPhone] = phone
	}
	return domain.PaymentAttempt{Method: attempt.Method, Fields: fields}
}

func required(method domain.PaymentMethod, field string) error {
	return &domain.ValidationError{Method: method, Field: field, Reason: "is required"}
}

func malformed(method domain.PaymentMethod, field, reason string) error {
	return &domain.ValidationError{Method: method, Field: field, Reason: reason}
}
