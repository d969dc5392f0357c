package domain

type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodMobileTransfer PaymentMethod = "mobile_transfer"
)

// Payment attempt field names.
const (
	FieldCardNumber = "card_number"
	FieldCardHolder = "card_holder"
	FieldExpiry     = "expiry"
	FieldCVV        = "cvv"
	FieldPhone      = "phone"
)

func (m PaymentMethod) IsCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

func (m PaymentMethod) IsValid() bool {
	return m.IsCard() || m == PaymentMethodMobileTransfer
}

func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentAttempt lives only for the duration of one checkout flow.
type PaymentAttempt struct {
	Method PaymentMethod     `json:"method"`
	Fields map[string]string `json:"fields"`
}

func (a PaymentAttempt) Field(name string) string {
	if a.Fields == nil {
		return ""
	}
	return a.Fields[name]
}
