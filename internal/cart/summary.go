package cart

import (
	"time"

	"github.com/angelmondragon/storefront-cart/internal/pricing"
	"github.com/shopspring/decimal"
)

// SummaryPolicy carries the configured shipping constants.
type SummaryPolicy struct {
	ShippingCost          int64
	FreeShippingThreshold int64
}

// RecalculateSummary derives the cart summary from items. An empty cart has
// an all-zero summary, shipping included.
func RecalculateSummary(items []LineItem, policy SummaryPolicy) Summary {
	var s Summary
	for _, item := range items {
		s.Subtotal += item.TotalPrice
		s.Tax += item.VATAmount
		s.ItemCount += item.Quantity
		if item.PriceSource.IsPromotional() && item.OriginalPrice != nil {
			s.TotalDiscount += (*item.OriginalPrice - item.UnitPrice) * int64(item.Quantity)
		}
	}
	s.UniqueItemCount = len(items)
	if len(items) > 0 && s.Subtotal < policy.FreeShippingThreshold {
		s.Shipping = policy.ShippingCost
	}
	s.Total = s.Subtotal + s.Tax + s.Shipping
	return s
}

// applyPrice overwrites the price-derived fields of line using the current
// quantity. Descriptive fields are left untouched.
func applyPrice(line *LineItem, price pricing.Price, now time.Time) {
	priced := pricing.CalculateOrderLine(line.Quantity, price.UnitPrice, price.VATRate)
	line.UnitPrice = price.UnitPrice
	line.VATRate = price.VATRate
	line.TotalPrice = priced.Subtotal
	line.VATAmount = priced.VATAmount
	line.PriceSource = price.PriceSource
	line.OriginalPrice = copyInt64Ptr(price.OriginalPrice)
	line.DiscountedPrice = discountedPrice(line.UnitPrice, line.Discount)
	line.UpdatedAt = now
}

// discountedPrice applies a manual percentage discount to unitPrice.
func discountedPrice(unitPrice int64, discount *float64) *int64 {
	if discount == nil || *discount <= 0 {
		return nil
	}
	pct := decimal.NewFromFloat(*discount)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	value := decimal.NewFromInt(unitPrice).
		Mul(hundred.Sub(pct)).
		Div(hundred).
		Round(0).
		IntPart()
	return &value
}

var hundred = decimal.NewFromInt(100)
