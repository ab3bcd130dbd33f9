package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

var testJWTConfig = config.JWTConfig{Secret: "secret", Issuer: "storefront"}

func TestMintAndParseRoundTrip(t *testing.T) {
	identity := Identity{UserID: "u1", CustomerID: "c1", CompanyID: "1", Role: enums.MemberRoleCustomer}

	token, err := MintAccessToken(testJWTConfig, time.Now(), time.Hour, identity)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := ParseAccessToken(testJWTConfig, token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := claims.Identity(); got != identity {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := MintAccessToken(config.JWTConfig{Secret: "secret", Issuer: "someone-else"}, time.Now(), time.Hour, Identity{UserID: "u1", Role: enums.MemberRoleGuest})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := ParseAccessToken(testJWTConfig, token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := MintAccessToken(testJWTConfig, time.Now().Add(-2*time.Hour), time.Hour, Identity{UserID: "u1", Role: enums.MemberRoleCustomer})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := ParseAccessToken(testJWTConfig, token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestMintValidatesInput(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig, time.Now(), time.Hour, Identity{Role: enums.MemberRoleCustomer}); err == nil {
		t.Fatalf("expected missing user id to fail")
	}
	if _, err := MintAccessToken(testJWTConfig, time.Now(), time.Hour, Identity{UserID: "u1", Role: "owner"}); err == nil {
		t.Fatalf("expected invalid role to fail")
	}
	if _, err := MintAccessToken(testJWTConfig, time.Now(), 0, Identity{UserID: "u1", Role: enums.MemberRoleCustomer}); err == nil {
		t.Fatalf("expected zero ttl to fail")
	}
}
