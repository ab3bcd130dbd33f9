package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

type sampleBody struct {
	ProductID string `json:"productId" validate:"identifier"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=10"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"P1","quantity":2}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.ProductID != "P1" || body.Quantity != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONBodyFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "unknown field", body: `{"productId":"P1","quantity":1,"price":5}`},
		{name: "malformed", body: `{"productId":`},
		{name: "blank id", body: `{"productId":" P 1","quantity":1}`, field: "productId"},
		{name: "quantity range", body: `{"productId":"P1","quantity":11}`, field: "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var body sampleBody
			err := DecodeJSONBody(req, &body)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tt.field == "" {
				return
			}
			details, ok := typed.Details().(map[string]string)
			if !ok || details[tt.field] == "" {
				t.Fatalf("expected detail for %s, got %v", tt.field, typed.Details())
			}
		})
	}
}

func TestValidatePathID(t *testing.T) {
	if err := ValidatePathID("itemID", "line-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePathID("itemID", ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}
