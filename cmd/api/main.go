package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"miniapp-shop/internal/config"
	"miniapp-shop/internal/db"
	"miniapp-shop/internal/httpserver"
	"miniapp-shop/internal/logging"
	cartrepo "miniapp-shop/internal/repository/cart"
	categoryrepo "miniapp-shop/internal/repository/category"
	favoriterepo "miniapp-shop/internal/repository/favorite"
	orderrepo "miniapp-shop/internal/repository/order"
	productrepo "miniapp-shop/internal/repository/product"
	sessionrepo "miniapp-shop/internal/repository/session"
	cartsvc "miniapp-shop/internal/service/cart"
	catalogsvc "miniapp-shop/internal/service/catalog"
	favoritesvc "miniapp-shop/internal/service/favorite"
	ordersvc "miniapp-shop/internal/service/order"
	sessionsvc "miniapp-shop/internal/service/session"
)

const sessionPurgeInterval = time.Hour

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("api")
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	var catalogProducts productrepo.Repository = productRepo
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		catalogProducts = productrepo.NewCached(productRepo, rdb, cfg.CatalogCacheTTL, logger)
		logger.Info("catalog cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CatalogCacheTTL))
	}

	catalogService := catalogsvc.New(catalogProducts, categoryrepo.NewPostgres(dbpool), cfg.ProductPageLimit)
	// Stock checks must see the database, not the catalog cache.
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), productRepo)
	favoriteService := favoritesvc.New(favoriterepo.NewPostgres(dbpool), productRepo)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool), cfg.OrderCooldown)
	sessionService := sessionsvc.New(sessionrepo.NewPostgres(dbpool), cfg.SessionTTL)

	deps := httpserver.Deps{
		CatalogSvc:     catalogService,
		CartSvc:        cartService,
		FavoriteSvc:    favoriteService,
		OrderSvc:       orderService,
		SessionSvc:     sessionService,
		CookieSecure:   cfg.CookieSecure,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if rdb != nil {
		deps.Redis = rdb
	}
	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeSessions(purgeCtx, sessionService, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

func purgeSessions(ctx context.Context, svc *sessionsvc.Service, logger *zap.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
