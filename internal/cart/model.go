package cart

import (
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/enums"
	"github.com/google/uuid"
)

var cartNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("storefront/cart"))

// LineItem is one product entry in the cart. Descriptive fields are a snapshot
// taken when the line was created; only price and VAT fields are refreshed.
type LineItem struct {
	ID              string            `json:"id"`
	ProductID       string            `json:"productId"`
	ProductName     string            `json:"productName"`
	ProductImage    string            `json:"productImage,omitempty"`
	ProductGroup    string            `json:"productGroup,omitempty"`
	StockUnit       string            `json:"stockUnit,omitempty"`
	Quantity        int               `json:"quantity"`
	MaxQuantity     int               `json:"maxQuantity"`
	UnitPrice       int64             `json:"unitPrice"`
	TotalPrice      int64             `json:"totalPrice"`
	VATRate         float64           `json:"vatRate"`
	VATAmount       int64             `json:"vatAmount"`
	PriceSource     enums.PriceSource `json:"priceSource"`
	OriginalPrice   *int64            `json:"originalPrice,omitempty"`
	Discount        *float64          `json:"discount,omitempty"`
	DiscountedPrice *int64            `json:"discountedPrice,omitempty"`
	IsAvailable     bool              `json:"isAvailable"`
	AddedAt         time.Time         `json:"addedAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Summary is derived from the line items and the shipping policy; it is never
// edited directly.
type Summary struct {
	Subtotal        int64 `json:"subtotal"`
	Tax             int64 `json:"tax"`
	Shipping        int64 `json:"shipping"`
	Total           int64 `json:"total"`
	TotalDiscount   int64 `json:"totalDiscount"`
	ItemCount       int   `json:"itemCount"`
	UniqueItemCount int   `json:"uniqueItemCount"`
}

// Cart is the aggregate root: ownership, ordered line items and summary.
type Cart struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	CustomerID string           `json:"customerId"`
	CompanyID  string           `json:"companyId"`
	Status     enums.CartStatus `json:"status"`
	Items      []LineItem       `json:"items"`
	Summary    Summary          `json:"summary"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// IDForCustomer derives the stable cart id for a customer.
func IDForCustomer(customerID string) string {
	return uuid.NewSHA1(cartNamespace, []byte(customerID)).String()
}

func newCart(userID, customerID, companyID string, now time.Time) *Cart {
	return &Cart{
		ID:         IDForCustomer(customerID),
		UserID:     userID,
		CustomerID: customerID,
		CompanyID:  companyID,
		Status:     enums.CartStatusActive,
		Items:      []LineItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (c *Cart) ownedBy(userID, customerID string) bool {
	return c != nil && c.UserID == userID && c.CustomerID == customerID
}

func (c *Cart) indexOfItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) indexOfProduct(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) productIDs() []string {
	seen := make(map[string]struct{}, len(c.Items))
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func (c *Cart) removeAt(idx int) {
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
}

func (c *Cart) clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		out.Items[i] = item.clone()
	}
	return &out
}

func (l LineItem) clone() LineItem {
	out := l
	out.OriginalPrice = copyInt64Ptr(l.OriginalPrice)
	out.DiscountedPrice = copyInt64Ptr(l.DiscountedPrice)
	if l.Discount != nil {
		discount := *l.Discount
		out.Discount = &discount
	}
	return out
}

func copyInt64Ptr(src *int64) *int64 {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}
