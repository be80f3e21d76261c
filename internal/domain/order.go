package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	DeliveryPickup  = "pickup"
	DeliveryCourier = "delivery"

	OrderStatusNew = "new"
)

// ErrRateLimited is returned when a shopper places orders faster than the cooldown allows.
var ErrRateLimited = errors.New("rate limited")

// Order is a placed checkout. Orders are paid in cash on receipt.
type Order struct {
	ID              int64       `json:"id"`
	ShopperID       string      `json:"-"`
	Status          string      `json:"status"`
	DeliveryMethod  string      `json:"deliveryMethod"`
	DeliveryAddress string      `json:"deliveryAddress"`
	ContactPhone    string      `json:"contactPhone"`
	Comment         string      `json:"comment,omitempty"`
	TotalAmount     int64       `json:"totalAmount"`
	CreatedAt       time.Time   `json:"createdAt"`
	Items           []OrderItem `json:"items"`
}

// OrderItem keeps the product name and price as they were at purchase.
type OrderItem struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"orderId"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
}

func (it OrderItem) Subtotal() int64 {
	return it.Price * int64(it.Quantity)
}

// TotalCount is the number of units in the order.
func (o Order) TotalCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// StockShortageError reports a product with fewer units left than ordered.
type StockShortageError struct {
	ProductName string
	Left        int
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("not enough stock for %q: %d left", e.ProductName, e.Left)
}

func (e *StockShortageError) Unwrap() error { return ErrInsufficientStock }

// WithdrawnError reports a product that was taken off sale.
type WithdrawnError struct {
	ProductName string
}

func (e *WithdrawnError) Error() string {
	return fmt.Sprintf("product %q withdrawn from sale", e.ProductName)
}

func (e *WithdrawnError) Unwrap() error { return ErrUnavailable }
