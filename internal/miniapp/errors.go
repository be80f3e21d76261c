package miniapp

import (
	"errors"
	"net/http"

	"miniapp-shop/internal/shopclient"
)

const (
	msgNetwork         = "Нет соединения с сервером"
	msgUpdateFailed    = "Не удалось обновить количество"
	msgRemoveFailed    = "Не удалось удалить товар"
	msgAddFailed       = "Не удалось добавить товар"
	msgFavoriteFailed  = "Не удалось обновить избранное"
	msgCategoryFailed  = "Не удалось загрузить товары"
	msgAddedToCart     = "Товар добавлен в корзину"
	msgFavoriteAdded   = "Добавлено в избранное"
	msgFavoriteRemoved = "Удалено из избранного"
)

// ErrUnknownLine is returned for operations on a line the cart does not hold.
var ErrUnknownLine = errors.New("miniapp: unknown cart line")

// userMessage prefers the server's own wording for logical failures.
func userMessage(err error, fallback string) string {
	var se *shopclient.ServerError
	if errors.As(err, &se) && se.Status < http.StatusInternalServerError && se.Message != "" {
		return se.Message
	}
	var ne *shopclient.NetworkError
	if errors.As(err, &ne) {
		return msgNetwork
	}
	return fallback
}
