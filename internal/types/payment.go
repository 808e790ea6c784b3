package types

import (
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/samber/lo"
)

// PaymentMethod is how the buyer settles an invoice
type PaymentMethod string

const (
	PaymentMethodCash      PaymentMethod = "CASH"
	PaymentMethodTransfer  PaymentMethod = "TRANSFER"
	PaymentMethodCard      PaymentMethod = "CARD"
	PaymentMethodNequi     PaymentMethod = "NEQUI"
	PaymentMethodDaviplata PaymentMethod = "DAVIPLATA"
)

// PaymentMethods lists every supported payment method
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodTransfer,
		PaymentMethodCard,
		PaymentMethodNequi,
		PaymentMethodDaviplata,
	}
}

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) Validate() error {
	if !lo.Contains(PaymentMethods(), p) {
		return ierr.NewError("invalid payment method").
			WithHint("Invalid payment method").
			WithReportableDetails(map[string]any{
				"allowed":        PaymentMethods(),
				"payment_method": p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
