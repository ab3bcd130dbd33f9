package enums

import (
	"fmt"
	"strings"
)

// PriceSource names the pricing rule that produced a unit price.
type PriceSource string

const (
	PriceSourceClass    PriceSource = "class"
	PriceSourceCampaign PriceSource = "campaign"
	PriceSourceCustomer PriceSource = "customer"
	PriceSourceDefault  PriceSource = "default"
)

var validPriceSources = []PriceSource{
	PriceSourceClass,
	PriceSourceCampaign,
	PriceSourceCustomer,
	PriceSourceDefault,
}

// String implements fmt.Stringer.
func (p PriceSource) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceSource.
func (p PriceSource) IsValid() bool {
	for _, candidate := range validPriceSources {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsPromotional reports whether the price came from a campaign override.
func (p PriceSource) IsPromotional() bool {
	return p == PriceSourceCampaign
}

// ParsePriceSource converts raw oracle output into a PriceSource.
func ParsePriceSource(value string) (PriceSource, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPriceSources {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price source %q", value)
}
