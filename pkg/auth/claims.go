package auth

import (
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the identity provider asserts about the caller.
type Identity struct {
	UserID     string
	CustomerID string
	CompanyID  string
	Role       enums.MemberRole
}

// AccessTokenClaims represents the typed JWT issued by the identity provider.
type AccessTokenClaims struct {
	UserID     string           `json:"user_id"`
	CustomerID string           `json:"customer_id,omitempty"`
	CompanyID  string           `json:"company_id,omitempty"`
	Role       enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// Identity projects the claims onto the identity tuple consumed by the cart.
func (c *AccessTokenClaims) Identity() Identity {
	if c == nil {
		return Identity{}
	}
	return Identity{
		UserID:     c.UserID,
		CustomerID: c.CustomerID,
		CompanyID:  c.CompanyID,
		Role:       c.Role,
	}
}
