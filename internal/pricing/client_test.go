package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

type recordedCall struct {
	call string
	err  error
}

type stubObserver struct {
	calls []recordedCall
}

func (s *stubObserver) ObserveOracle(call string, duration time.Duration, err error) {
	s.calls = append(s.calls, recordedCall{call: call, err: err})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.PricingConfig{Endpoint: srv.URL, APIKey: "key-1", Timeout: time.Second}, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestFetchPriceDecodesResponse(t *testing.T) {
	observer := &stubObserver{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var body graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Variables["productId"] != "P1" || body.Variables["customerId"] != "c1" {
			t.Errorf("unexpected variables %v", body.Variables)
		}

		_, _ = w.Write([]byte(`{"data":{"productPrice":{"productId":"P1","unitPrice":12000,"vatRate":25,"priceSource":"campaign","originalPrice":"15000"}}}`))
	}, WithMetrics(observer))

	price, err := client.FetchPrice(context.Background(), "1", "c1", "P1")
	if err != nil {
		t.Fatalf("fetch price: %v", err)
	}
	if price.UnitPrice != 12000 || price.VATRate != 25 || price.PriceSource != enums.PriceSourceCampaign {
		t.Fatalf("unexpected price %+v", price)
	}
	if price.OriginalPrice == nil || *price.OriginalPrice != 15000 {
		t.Fatalf("expected original price 15000, got %v", price.OriginalPrice)
	}

	if len(observer.calls) != 1 || observer.calls[0].call != callFetchPrice || observer.calls[0].err != nil {
		t.Fatalf("unexpected observed calls %+v", observer.calls)
	}
}

func TestFetchPriceMissingProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"productPrice":null}}`))
	})

	_, err := client.FetchPrice(context.Background(), "1", "c1", "P404")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFetchPricesOmitsUnknownProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"productPrices":[
			{"productId":"P1","unitPrice":100,"vatRate":25,"priceSource":"customer","originalPrice":null},
			{"productId":"P2","unitPrice":"250.4","vatRate":"12","priceSource":"mystery"}
		]}}`))
	})

	prices, err := client.FetchPrices(context.Background(), "1", "c1", []string{"P1", "P2", "P3"})
	if err != nil {
		t.Fatalf("fetch prices: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("expected 2 prices, got %d", len(prices))
	}
	if p1 := prices["P1"]; p1.UnitPrice != 100 || p1.OriginalPrice != nil {
		t.Fatalf("unexpected P1 %+v", p1)
	}
	if p2 := prices["P2"]; p2.UnitPrice != 250 || p2.PriceSource != enums.PriceSourceDefault {
		t.Fatalf("unexpected P2 %+v", p2)
	}
	if _, ok := prices["P3"]; ok {
		t.Fatal("did not expect a price for P3")
	}
}

func TestFetchPricesEmptyInputSkipsRoundTrip(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	prices, err := client.FetchPrices(context.Background(), "1", "c1", nil)
	if err != nil {
		t.Fatalf("fetch prices: %v", err)
	}
	if len(prices) != 0 || called {
		t.Fatalf("expected no round trip, called=%v prices=%v", called, prices)
	}
}

func TestFetchPricesSurfacesFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    pkgerrors.Code
	}{
		{
			name: "non success status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			code: pkgerrors.CodeDependency,
		},
		{
			name: "graphql errors",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"errors":[{"message":"customer not found"}]}`))
			},
			code: pkgerrors.CodeDependency,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":`))
			},
			code: pkgerrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &stubObserver{}
			client := newTestClient(t, tt.handler, WithMetrics(observer))

			_, err := client.FetchPrices(context.Background(), "1", "c1", []string{"P1"})
			if !pkgerrors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if len(observer.calls) != 1 || observer.calls[0].err == nil {
				t.Fatalf("expected one failed observation, got %+v", observer.calls)
			}
		})
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(config.PricingConfig{}); err == nil {
		t.Fatal("expected error")
	}
}
