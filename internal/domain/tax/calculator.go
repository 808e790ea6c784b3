package tax

import (
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/shopspring/decimal"
)

// CurrencyPrecision is the number of decimal places kept for every amount
const CurrencyPrecision int32 = 2

var (
	hundred  = decimal.NewFromInt(100)
	minPrice = decimal.New(1, -CurrencyPrecision)

	// DefaultRate is the general VAT rate applied when an item does not carry its own
	DefaultRate = decimal.NewFromInt(19)
)

// Calculator computes item and invoice amounts
type Calculator interface {
	CalculateLine(in LineInput) (Amounts, error)
	Sum(lines ...Amounts) Amounts
}

// LineInput is a single priced quantity
type LineInput struct {
	Quantity    int
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // percent, e.g. 19
	TaxIncluded bool
}

// Amounts holds the money breakdown for an item or a whole invoice.
// Total always equals Subtotal + TaxAmount.
type Amounts struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

// NewCalculator returns the default round-half-up calculator
func NewCalculator() Calculator {
	return &calculator{}
}

type calculator struct{}

func (c *calculator) CalculateLine(in LineInput) (Amounts, error) {
	if err := in.Validate(); err != nil {
		return Amounts{}, err
	}

	qty := decimal.NewFromInt(int64(in.Quantity))
	price := round(in.UnitPrice)

	if in.TaxIncluded {
		gross := round(price.Mul(qty))
		taxAmount := round(price.Mul(in.TaxRate).Div(hundred.Add(in.TaxRate)).Mul(qty))
		return Amounts{
			Subtotal:  gross.Sub(taxAmount),
			TaxAmount: taxAmount,
			Total:     gross,
		}, nil
	}

	subtotal := round(price.Mul(qty))
	taxAmount := round(subtotal.Mul(in.TaxRate).Div(hundred))
	return Amounts{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     subtotal.Add(taxAmount),
	}, nil
}

// Sum adds amounts pairwise. The total is derived from the summed parts.
func (c *calculator) Sum(lines ...Amounts) Amounts {
	out := Zero()
	for _, l := range lines {
		out.Subtotal = out.Subtotal.Add(l.Subtotal)
		out.TaxAmount = out.TaxAmount.Add(l.TaxAmount)
	}
	out.Total = out.Subtotal.Add(out.TaxAmount)
	return out
}

// Validate rejects non-positive quantities and prices and negative rates
func (in LineInput) Validate() error {
	if in.Quantity <= 0 {
		return ierr.NewError("quantity must be positive").
			WithHint("Item quantity must be greater than zero").
			WithReportableDetails(map[string]any{
				"quantity": in.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}
	if round(in.UnitPrice).LessThan(minPrice) {
		return ierr.NewError("unit price must be positive").
			WithHint("Item unit price must be at least 0.01").
			WithReportableDetails(map[string]any{
				"unit_price": in.UnitPrice.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if in.TaxRate.IsNegative() {
		return ierr.NewError("tax rate must not be negative").
			WithHint("Tax rate cannot be negative").
			WithReportableDetails(map[string]any{
				"tax_rate": in.TaxRate.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Zero returns amounts with every field set to zero
func Zero() Amounts {
	return Amounts{
		Subtotal:  decimal.Zero,
		TaxAmount: decimal.Zero,
		Total:     decimal.Zero,
	}
}

// GrossUnitPrice returns the unit price with tax included
func GrossUnitPrice(unitPrice, taxRate decimal.Decimal, taxIncluded bool) decimal.Decimal {
	if taxIncluded {
		return round(unitPrice)
	}
	return round(unitPrice.Mul(hundred.Add(taxRate)).Div(hundred))
}

// round applies round-half-up at currency precision. Amounts here are never
// negative so half-away-from-zero is half-up.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPrecision)
}
