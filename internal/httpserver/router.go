package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"miniapp-shop/internal/domain"
	cartsvc "miniapp-shop/internal/service/cart"
	ordersvc "miniapp-shop/internal/service/order"
)

type catalogService interface {
	ListProducts(ctx context.Context, categoryID string) ([]domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Product(ctx context.Context, id int64) (*domain.Product, error)
}

type cartService interface {
	Add(ctx context.Context, shopperID string, productID int64) (int, error)
	UpdateQuantity(ctx context.Context, shopperID string, lineID int64, quantity int) (cartsvc.UpdateResult, error)
	Delete(ctx context.Context, shopperID string, lineID int64) error
	Lines(ctx context.Context, shopperID string) ([]domain.CartLine, error)
	Count(ctx context.Context, shopperID string) (int, error)
	Checkout(ctx context.Context, shopperID string, ids []int64) (*domain.CheckoutSummary, []domain.CartLine, error)
}

type favoriteService interface {
	Toggle(ctx context.Context, shopperID string, productID int64) (bool, error)
	Products(ctx context.Context, shopperID string) ([]domain.Product, error)
	Marked(ctx context.Context, shopperID string) (map[int64]bool, error)
}

type sessionService interface {
	Resolve(ctx context.Context, token string) (*domain.Session, bool, error)
	SetLanguage(ctx context.Context, token, lang string) error
	TTL() time.Duration
}

type orderService interface {
	Place(ctx context.Context, shopperID string, req ordersvc.Request) (*domain.Order, error)
	Get(ctx context.Context, shopperID string, id int64) (*domain.Order, error)
}

// Deps holds the services the router dispatches to.
type Deps struct {
	CatalogSvc     catalogService
	CartSvc        cartService
	FavoriteSvc    favoriteService
	OrderSvc       orderService
	SessionSvc     sessionService
	Redis          redis.Cmdable
	CookieSecure   bool
	AllowedOrigins []string
}

// buildRouter wires the shop pages, the JSON/fragment API and health probes.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(accessLog(logger), recovery(logger))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Content-Type", csrfHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.Redis))
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/shop/")
	})

	h := &handlers{
		logger:    logger,
		catalog:   deps.CatalogSvc,
		cart:      deps.CartSvc,
		favorites: deps.FavoriteSvc,
		orders:    deps.OrderSvc,
		sessions:  deps.SessionSvc,
	}

	shop := router.Group("/shop", sessionMiddleware(deps.SessionSvc, logger, deps.CookieSecure))
	shop.GET("/", h.index)
	shop.GET("/cart", h.cartPage)
	shop.GET("/favorites", h.favoritesPage)
	shop.GET("/checkout", h.checkoutPage)
	shop.GET("/set_lang", h.setLanguage)
	shop.GET("/order/success/:orderId", h.orderSuccess)
	shop.POST("/order/create", csrfMiddleware(), h.createOrder)

	api := shop.Group("/api", csrfMiddleware())
	api.GET("/cart", h.cartJSON)
	api.POST("/cart/add/:productId", h.addToCart)
	api.POST("/cart/update/:cartId", h.updateCart)
	api.POST("/cart/delete/:cartId", h.deleteCartLine)
	api.GET("/search", h.search)
	api.GET("/products", h.products)
	api.GET("/product/:productId", h.productCard)
	api.POST("/favorite/:productId", h.toggleFavorite)

	return router, nil
}
