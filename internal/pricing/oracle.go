package pricing

import (
	"context"

	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

// Price is the authoritative pricing answer for one product in a
// (company, customer) scope. Amounts are in minor currency units.
type Price struct {
	ProductID     string            `json:"productId"`
	UnitPrice     int64             `json:"unitPrice"`
	VATRate       float64           `json:"vatRate"`
	PriceSource   enums.PriceSource `json:"priceSource"`
	OriginalPrice *int64            `json:"originalPrice,omitempty"`
}

// Oracle resolves current prices from the remote pricing authority.
type Oracle interface {
	FetchPrice(ctx context.Context, companyID, customerID, productID string) (*Price, error)
	// FetchPrices omits entries for products the authority cannot price.
	FetchPrices(ctx context.Context, companyID, customerID string, productIDs []string) (map[string]Price, error)
}

// OracleFuncs adapts plain functions to the Oracle interface.
type OracleFuncs struct {
	Single func(ctx context.Context, companyID, customerID, productID string) (*Price, error)
	Batch  func(ctx context.Context, companyID, customerID string, productIDs []string) (map[string]Price, error)
}

func (o OracleFuncs) FetchPrice(ctx context.Context, companyID, customerID, productID string) (*Price, error) {
	return o.Single(ctx, companyID, customerID, productID)
}

func (o OracleFuncs) FetchPrices(ctx context.Context, companyID, customerID string, productIDs []string) (map[string]Price, error) {
	return o.Batch(ctx, companyID, customerID, productIDs)
}
