package cart

import (
	cartsvc "github.com/angelmondragon/storefront-cart/internal/cart"
)

type addItemRequest struct {
	ProductID    string   `json:"productId" validate:"identifier"`
	ProductName  string   `json:"productName" validate:"required,max=256"`
	Quantity     int      `json:"quantity" validate:"omitempty,gte=1"`
	ProductImage string   `json:"productImage" validate:"omitempty,url"`
	ProductGroup string   `json:"productGroup" validate:"max=128"`
	StockUnit    string   `json:"stockUnit" validate:"max=32"`
	MaxQuantity  int      `json:"maxQuantity" validate:"omitempty,gte=1"`
	Discount     *float64 `json:"discount" validate:"omitempty,gte=0,lte=100"`
}

func (r addItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID:    r.ProductID,
		ProductName:  r.ProductName,
		Quantity:     r.Quantity,
		ProductImage: r.ProductImage,
		ProductGroup: r.ProductGroup,
		StockUnit:    r.StockUnit,
		MaxQuantity:  r.MaxQuantity,
		Discount:     r.Discount,
	}
}

// A zero or negative quantity removes the line.
type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartView is the cart snapshot plus the derived selectors.
type CartView struct {
	Cart            *cartsvc.Cart `json:"cart"`
	IsInitialized   bool          `json:"isInitialized"`
	IsLoading       bool          `json:"isLoading"`
	ItemCount       int           `json:"itemCount"`
	UniqueItemCount int           `json:"uniqueItemCount"`
	Subtotal        int64         `json:"subtotal"`
	Total           int64         `json:"total"`
	TotalDiscount   int64         `json:"totalDiscount"`
}

func newCartView(svc cartsvc.Service) CartView {
	return CartView{
		Cart:            svc.Cart(),
		IsInitialized:   svc.IsInitialized(),
		IsLoading:       svc.IsLoading(),
		ItemCount:       svc.ItemCount(),
		UniqueItemCount: svc.UniqueItemCount(),
		Subtotal:        svc.Subtotal(),
		Total:           svc.Total(),
		TotalDiscount:   svc.TotalDiscount(),
	}
}

type checkoutResponse struct {
	CheckedOut bool     `json:"checkedOut"`
	Cart       CartView `json:"cart"`
}
