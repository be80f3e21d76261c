package domain

// CartLine is one product entry in a shopper's cart.
type CartLine struct {
	ID          int64   `json:"id"`
	ShopperID   string  `json:"-"`
	ProductID   int64   `json:"productId"`
	Quantity    int     `json:"quantity"`
	Product     Product `json:"product"`
	Unavailable bool    `json:"unavailable"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// CheckoutSummary aggregates the lines selected for checkout.
type CheckoutSummary struct {
	ItemIDs     []int64 `json:"itemIds"`
	TotalAmount int64   `json:"totalAmount"`
	TotalCount  int     `json:"totalCount"`
}
