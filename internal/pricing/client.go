package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	callFetchPrice  = "fetch_price"
	callFetchPrices = "fetch_prices"

	maxErrorBody = 4 << 10
)

const productPriceQuery = `query ProductPrice($companyId: ID!, $customerId: ID!, $productId: ID!) {
  productPrice(companyId: $companyId, customerId: $customerId, productId: $productId) {
    productId
    unitPrice
    vatRate
    priceSource
    originalPrice
  }
}`

const productPricesQuery = `query ProductPrices($companyId: ID!, $customerId: ID!, $productIds: [ID!]!) {
  productPrices(companyId: $companyId, customerId: $customerId, productIds: $productIds) {
    productId
    unitPrice
    vatRate
    priceSource
    originalPrice
  }
}`

type oracleObserver interface {
	ObserveOracle(call string, duration time.Duration, err error)
}

// Client talks to the GraphQL pricing backend.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	metrics  oracleObserver
	now      func() time.Time
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the transport used for pricing calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMetrics records call latency and failures on the observer.
func WithMetrics(m oracleObserver) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a pricing client for the configured endpoint.
func NewClient(cfg config.PricingConfig, opts ...ClientOption) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("pricing endpoint required")
	}
	c := &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		http:     &http.Client{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type priceNode struct {
	ProductID     string              `json:"productId"`
	UnitPrice     decimal.Decimal     `json:"unitPrice"`
	VATRate       decimal.Decimal     `json:"vatRate"`
	PriceSource   string              `json:"priceSource"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
}

type priceResponse struct {
	Data struct {
		ProductPrice  *priceNode  `json:"productPrice"`
		ProductPrices []priceNode `json:"productPrices"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// FetchPrice resolves the price of a single product.
func (c *Client) FetchPrice(ctx context.Context, companyID, customerID, productID string) (price *Price, err error) {
	start := c.now()
	defer func() { c.observe(callFetchPrice, start, err) }()

	var resp priceResponse
	if err := c.do(ctx, graphQLRequest{
		Query: productPriceQuery,
		Variables: map[string]any{
			"companyId":  companyID,
			"customerId": customerID,
			"productId":  productID,
		},
	}, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ProductPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "price not available").WithDetails(map[string]any{"product_id": productID})
	}
	out := resp.Data.ProductPrice.toPrice(productID)
	return &out, nil
}

// FetchPrices resolves prices for productIDs in a single round trip.
func (c *Client) FetchPrices(ctx context.Context, companyID, customerID string, productIDs []string) (prices map[string]Price, err error) {
	if len(productIDs) == 0 {
		return map[string]Price{}, nil
	}
	start := c.now()
	defer func() { c.observe(callFetchPrices, start, err) }()

	var resp priceResponse
	if err := c.do(ctx, graphQLRequest{
		Query: productPricesQuery,
		Variables: map[string]any{
			"companyId":  companyID,
			"customerId": customerID,
			"productIds": productIDs,
		},
	}, &resp); err != nil {
		return nil, err
	}

	prices = make(map[string]Price, len(resp.Data.ProductPrices))
	for _, node := range resp.Data.ProductPrices {
		if node.ProductID == "" {
			continue
		}
		prices[node.ProductID] = node.toPrice(node.ProductID)
	}
	return prices, nil
}

func (c *Client) do(ctx context.Context, payload graphQLRequest, dest *priceResponse) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode pricing query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build pricing request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pricing request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return pkgerrors.New(pkgerrors.CodeDependency, "pricing backend returned non-success status").
			WithDetails(map[string]any{"status": res.StatusCode, "body": strings.TrimSpace(string(snippet))})
	}

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode pricing response")
	}
	if len(dest.Errors) > 0 {
		messages := make([]string, 0, len(dest.Errors))
		for _, e := range dest.Errors {
			messages = append(messages, e.Message)
		}
		return pkgerrors.New(pkgerrors.CodeDependency, "pricing query failed").
			WithDetails(map[string]any{"errors": messages})
	}
	return nil
}

func (c *Client) observe(call string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveOracle(call, c.now().Sub(start), err)
}

func (n priceNode) toPrice(productID string) Price {
	source, err := enums.ParsePriceSource(n.PriceSource)
	if err != nil {
		source = enums.PriceSourceDefault
	}
	price := Price{
		ProductID:   productID,
		UnitPrice:   n.UnitPrice.Round(0).IntPart(),
		VATRate:     n.VATRate.InexactFloat64(),
		PriceSource: source,
	}
	if n.OriginalPrice.Valid {
		original := n.OriginalPrice.Decimal.Round(0).IntPart()
		price.OriginalPrice = &original
	}
	return price
}
