package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"miniapp-shop/internal/domain"
	ordersvc "miniapp-shop/internal/service/order"
)

const (
	msgPhoneRequired   = "Укажите номер телефона"
	msgInvalidPhone    = "Неверный формат телефона. Введите номер в формате 998XXXXXXXXX"
	msgAddressRequired = "Адрес обязателен для доставки"
	msgCartEmpty       = "Cart is empty"
	msgInvalidItems    = "Invalid cart items requested"
	msgWithdrawn       = "Товар '%s' снят с продажи"
	msgShortage        = "Товара '%s' недостаточно (осталось %d)"
	msgOrderCooldown   = "Подождите немного перед созданием нового заказа"
	msgOrderFailed     = "Произошла ошибка при создании заказа"
)

type orderResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	OrderID int64  `json:"order_id,omitempty"`
}

// orderStatusFor maps order placement errors to the checkout form's status and message.
func orderStatusFor(err error) (int, string) {
	var shortage *domain.StockShortageError
	var withdrawn *domain.WithdrawnError
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, msgOrderCooldown
	case errors.Is(err, ordersvc.ErrPhoneRequired):
		return http.StatusBadRequest, msgPhoneRequired
	case errors.Is(err, ordersvc.ErrInvalidPhone):
		return http.StatusBadRequest, msgInvalidPhone
	case errors.Is(err, ordersvc.ErrAddressRequired):
		return http.StatusBadRequest, msgAddressRequired
	case errors.Is(err, ordersvc.ErrEmptyOrder):
		return http.StatusBadRequest, msgCartEmpty
	case errors.As(err, &shortage):
		return http.StatusBadRequest, fmt.Sprintf(msgShortage, shortage.ProductName, shortage.Left)
	case errors.As(err, &withdrawn):
		return http.StatusBadRequest, fmt.Sprintf(msgWithdrawn, withdrawn.ProductName)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusBadRequest, msgInvalidItems
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	default:
		return http.StatusInternalServerError, msgOrderFailed
	}
}

func (h *handlers) createOrder(c *gin.Context) {
	shopperID := sessionFrom(c).ShopperID

	var ids []int64
	for _, raw := range c.PostFormArray("item_ids") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeOrderError(c, domain.ErrNotFound)
			return
		}
		ids = append(ids, id)
	}

	order, err := h.orders.Place(c.Request.Context(), shopperID, ordersvc.Request{
		LineIDs:        ids,
		DeliveryMethod: c.PostForm("delivery_method"),
		Phone:          c.PostForm("phone"),
		Address:        c.PostForm("address"),
		Comment:        c.PostForm("comment"),
	})
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	h.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.String("shopper_id", shopperID),
		zap.Int64("total_amount", order.TotalAmount),
		zap.Int("items", len(order.Items)),
	)
	c.JSON(http.StatusOK, orderResponse{Status: "success", OrderID: order.ID})
}

func (h *handlers) writeOrderError(c *gin.Context, err error) {
	status, msg := orderStatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("place order", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, orderResponse{Status: "error", Message: msg})
}

// orderSuccess shows the shopper's own order; any other id goes back to the catalog.
func (h *handlers) orderSuccess(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		c.Redirect(http.StatusSeeOther, "/shop/")
		return
	}
	order, err := h.orders.Get(c.Request.Context(), sessionFrom(c).ShopperID, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		c.Redirect(http.StatusSeeOther, "/shop/")
		return
	}
	if err != nil {
		h.pageError(c, err)
		return
	}
	data, err := h.basePage(c, "Заказ принят")
	if err != nil {
		h.pageError(c, err)
		return
	}
	data.Order = order
	c.HTML(http.StatusOK, "order_success.html", data)
}
