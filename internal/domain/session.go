package domain

import "time"

// Session binds a browser cookie to an anonymous shopper and its CSRF token.
type Session struct {
	Token     string
	ShopperID string
	CSRFToken string
	Lang      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
