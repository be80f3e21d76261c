// Package money formats whole-unit prices for display.
package money

import (
	"errors"
	"math"

	"miniapp-shop/internal/locale"
)

// Currency is the display suffix for so'm amounts; it is translated per language.
const Currency = "сум"

var ErrInvalidAmount = errors.New("invalid amount")

// Format renders amount with the locale's thousands separator, e.g. "1 000".
func Format(amount int64, lang string) string {
	return locale.Printer(lang).Sprintf("%d", amount)
}

// FormatWithCurrency renders amount followed by the currency suffix.
func FormatWithCurrency(amount int64, lang string) string {
	return Format(amount, lang) + " " + locale.T(lang, Currency)
}

// Normalize accepts only finite whole amounts.
func Normalize(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount != math.Trunc(amount) {
		return 0, ErrInvalidAmount
	}
	if amount > math.MaxInt64 || amount < math.MinInt64 {
		return 0, ErrInvalidAmount
	}
	return int64(amount), nil
}
