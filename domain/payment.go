package domain

// PaymentMethod is a closed tag carried through checkout untouched. Gateway
// integration happens downstream of the engine.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodWallet PaymentMethod = "wallet"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodWallet:
		return true
	}
	return false
}
