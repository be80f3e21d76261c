package miniapp

import (
	"miniapp-shop/internal/locale"
	"miniapp-shop/internal/money"
)

const (
	labelChoose   = "Выберите товары"
	labelUpdating = "Обновление…"
	labelCheckout = "Оформить (%d)"
)

type CheckoutState struct {
	Enabled  bool
	Updating bool
	Label    string
}

// Summary is the derived footer state of the cart page.
type Summary struct {
	Total         int64
	TotalText     string
	SelectedCount int
	Checkout      CheckoutState
}

// Summarize totals the selected lines and labels the checkout control in lang.
// While locked the control is reported as updating and disabled whatever the
// selection.
func Summarize(lang string, lines []Line, locked bool) Summary {
	var s Summary
	for _, l := range lines {
		if !l.Selected {
			continue
		}
		s.Total += l.Price * int64(l.Quantity)
		s.SelectedCount++
	}
	s.TotalText = money.FormatWithCurrency(s.Total, lang)

	switch {
	case locked:
		s.Checkout = CheckoutState{Updating: true, Label: locale.T(lang, labelUpdating)}
	case s.SelectedCount > 0:
		s.Checkout = CheckoutState{Enabled: true, Label: locale.T(lang, labelCheckout, s.SelectedCount)}
	default:
		s.Checkout = CheckoutState{Label: locale.T(lang, labelChoose)}
	}
	return s
}
