package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// OrderLine is the priced result for one cart line.
type OrderLine struct {
	Subtotal  int64
	VATAmount int64
}

// CalculateOrderLine prices quantity units at unitPrice with vatRate percent VAT.
// VAT is rounded half-up to the nearest minor unit. Callers guarantee
// non-negative inputs.
func CalculateOrderLine(quantity int, unitPrice int64, vatRate float64) OrderLine {
	subtotal := int64(quantity) * unitPrice
	vat := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromFloat(vatRate)).
		Div(hundred).
		Round(0)
	return OrderLine{
		Subtotal:  subtotal,
		VATAmount: vat.IntPart(),
	}
}
