package cart

// Cart returns a copy of the current cart, or nil when none is bound.
func (e *engine) Cart() *Cart {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cart.clone()
}

func (e *engine) IsInitialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

func (e *engine) IsLoading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

func (e *engine) ItemCount() int {
	return e.summary().ItemCount
}

func (e *engine) UniqueItemCount() int {
	return e.summary().UniqueItemCount
}

func (e *engine) Subtotal() int64 {
	return e.summary().Subtotal
}

func (e *engine) Total() int64 {
	return e.summary().Total
}

func (e *engine) TotalDiscount() int64 {
	return e.summary().TotalDiscount
}

// FindLineByProductID returns a copy of the line holding productID.
func (e *engine) FindLineByProductID(productID string) (*LineItem, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cart == nil {
		return nil, false
	}
	idx := e.cart.indexOfProduct(productID)
	if idx < 0 {
		return nil, false
	}
	line := e.cart.Items[idx].clone()
	return &line, true
}

func (e *engine) summary() Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cart == nil {
		return Summary{}
	}
	return e.cart.Summary
}
