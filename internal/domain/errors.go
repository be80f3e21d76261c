package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrOutOfStock is returned when a product cannot be added because it is inactive or has no stock.
	ErrOutOfStock = errors.New("out of stock")
	// ErrStockLimit is returned when a cart line already holds every unit in stock.
	ErrStockLimit = errors.New("stock limit reached")
	// ErrInsufficientStock is returned when a requested quantity exceeds the stock.
	ErrInsufficientStock = errors.New("not enough stock")
	// ErrUnavailable marks a product that was withdrawn from sale.
	ErrUnavailable = errors.New("product unavailable")
	// ErrConflict signals a lost compare-and-set race; the caller should retry.
	ErrConflict = errors.New("concurrent modification")
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrAlreadyExists is returned when a unique key is already taken.
var ErrAlreadyExists = errors.New("already exists")
