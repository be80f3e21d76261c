package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"miniapp-shop/internal/domain"
	"miniapp-shop/internal/locale"
)

type handlers struct {
	logger    *zap.Logger
	catalog   catalogService
	cart      cartService
	favorites favoriteService
	orders    orderService
	sessions  sessionService
}

type cartLineResponse struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Stock       int    `json:"stock"`
	Unavailable bool   `json:"unavailable"`
}

type cartResponse struct {
	Success    bool               `json:"success"`
	Lines      []cartLineResponse `json:"lines"`
	TotalCount int                `json:"total_count"`
}

func checkoutLabel(selected int, lang string) string {
	if selected == 0 {
		return locale.T(lang, "Выберите товары")
	}
	return locale.T(lang, "Оформить (%d)", selected)
}

func (h *handlers) index(c *gin.Context) {
	ctx := c.Request.Context()
	sess := sessionFrom(c)

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		h.pageError(c, err)
		return
	}
	products, err := h.catalog.ListProducts(ctx, "all")
	if err != nil {
		h.pageError(c, err)
		return
	}
	data, err := h.basePage(c, "Магазин")
	if err != nil {
		h.pageError(c, err)
		return
	}
	data.Categories = categories
	data.Products = products
	data.Favorites, err = h.favorites.Marked(ctx, sess.ShopperID)
	if err != nil {
		h.pageError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (h *handlers) cartPage(c *gin.Context) {
	lines, err := h.cart.Lines(c.Request.Context(), sessionFrom(c).ShopperID)
	if err != nil {
		h.pageError(c, err)
		return
	}
	data, err := h.basePage(c, "Корзина")
	if err != nil {
		h.pageError(c, err)
		return
	}
	data.Lines = lines
	for _, l := range lines {
		if l.Unavailable {
			continue
		}
		data.Total += l.Subtotal()
		data.SelectedCount++
	}
	data.CheckoutLabel = checkoutLabel(data.SelectedCount, data.Lang)
	c.HTML(http.StatusOK, "cart.html", data)
}

func (h *handlers) favoritesPage(c *gin.Context) {
	ctx := c.Request.Context()
	shopperID := sessionFrom(c).ShopperID
	products, err := h.favorites.Products(ctx, shopperID)
	if err != nil {
		h.pageError(c, err)
		return
	}
	data, err := h.basePage(c, "Избранное")
	if err != nil {
		h.pageError(c, err)
		return
	}
	data.Products = products
	data.Favorites = make(map[int64]bool, len(products))
	for _, p := range products {
		data.Favorites[p.ID] = true
	}
	c.HTML(http.StatusOK, "favorites.html", data)
}

func (h *handlers) checkoutPage(c *gin.Context) {
	var ids []int64
	for _, raw := range c.QueryArray("items") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/shop/cart")
			return
		}
		ids = append(ids, id)
	}

	summary, lines, err := h.cart.Checkout(c.Request.Context(), sessionFrom(c).ShopperID, ids)
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusBadRequest {
			c.Redirect(http.StatusSeeOther, "/shop/cart")
			return
		}
		h.pageError(c, err)
		return
	}
	data, err := h.basePage(c, "Оформление заказа")
	if err != nil {
		h.pageError(c, err)
		return
	}
	data.Lines = lines
	data.Checkout = summary
	c.HTML(http.StatusOK, "checkout.html", data)
}

func (h *handlers) cartJSON(c *gin.Context) {
	sess := sessionFrom(c)
	lines, err := h.cart.Lines(c.Request.Context(), sess.ShopperID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	lang := locale.Normalize(sess.Lang)
	resp := cartResponse{Success: true, Lines: make([]cartLineResponse, 0, len(lines))}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, cartLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			Name:        l.Product.Name(lang),
			Price:       l.Product.Price,
			Quantity:    l.Quantity,
			Stock:       l.Product.Stock,
			Unavailable: l.Unavailable,
		})
		resp.TotalCount += l.Quantity
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) addToCart(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		writeError(c, h.logger, domain.ErrOutOfStock)
		return
	}
	count, err := h.cart.Add(c.Request.Context(), sessionFrom(c).ShopperID, productID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "total_count": count})
}

func (h *handlers) updateCart(c *gin.Context) {
	lineID, ok := pathID(c, "cartId")
	if !ok {
		writeError(c, h.logger, domain.ErrNotFound)
		return
	}
	qty, err := strconv.Atoi(c.Query("qty"))
	if err != nil {
		writeError(c, h.logger, fmt.Errorf("%w: qty", domain.ErrInvalidInput))
		return
	}
	res, err := h.cart.UpdateQuantity(c.Request.Context(), sessionFrom(c).ShopperID, lineID, qty)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if res.Removed {
		c.JSON(http.StatusOK, gin.H{"success": true, "total_count": res.TotalCount})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handlers) deleteCartLine(c *gin.Context) {
	ctx := c.Request.Context()
	shopperID := sessionFrom(c).ShopperID
	lineID, ok := pathID(c, "cartId")
	if ok {
		if err := h.cart.Delete(ctx, shopperID, lineID); err != nil {
			writeError(c, h.logger, err)
			return
		}
	}
	count, err := h.cart.Count(ctx, shopperID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "total_count": count})
}

func (h *handlers) toggleFavorite(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		writeError(c, h.logger, domain.ErrNotFound)
		return
	}
	added, err := h.favorites.Toggle(c.Request.Context(), sessionFrom(c).ShopperID, productID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "added": added})
}

func (h *handlers) search(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	h.renderProductList(c, products, err)
}

func (h *handlers) products(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), c.Query("category_id"))
	h.renderProductList(c, products, err)
}

// productCard renders a single product, inactive ones included, as a product_list fragment.
func (h *handlers) productCard(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	product, err := h.catalog.Product(c.Request.Context(), productID)
	if errors.Is(err, domain.ErrNotFound) {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.renderProductList(c, []domain.Product{*product}, nil)
}

func (h *handlers) setLanguage(c *gin.Context) {
	err := h.sessions.SetLanguage(c.Request.Context(), sessionFrom(c).Token, c.Query("lang"))
	if err != nil && !errors.Is(err, domain.ErrInvalidInput) {
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/shop/")
}

func (h *handlers) renderProductList(c *gin.Context, products []domain.Product, err error) {
	if err != nil {
		h.pageError(c, err)
		return
	}
	sess := sessionFrom(c)
	marked, err := h.favorites.Marked(c.Request.Context(), sess.ShopperID)
	if err != nil {
		h.pageError(c, err)
		return
	}
	c.HTML(http.StatusOK, "partials/product_list.html", pageData{
		Lang:      locale.Normalize(sess.Lang),
		Products:  products,
		Favorites: marked,
	})
}

// basePage fills the layout fields; title is a Russian message key.
func (h *handlers) basePage(c *gin.Context, title string) (pageData, error) {
	sess := sessionFrom(c)
	count, err := h.cart.Count(c.Request.Context(), sess.ShopperID)
	if err != nil {
		return pageData{}, err
	}
	lang := locale.Normalize(sess.Lang)
	return pageData{
		Title:     locale.T(lang, title),
		Lang:      lang,
		CSRFToken: sess.CSRFToken,
		CartCount: count,
	}, nil
}

func (h *handlers) pageError(c *gin.Context, err error) {
	h.logger.Error("render page", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.AbortWithStatus(http.StatusInternalServerError)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
