package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"miniapp-shop/internal/logging"
	"miniapp-shop/internal/miniapp"
	"miniapp-shop/internal/shopclient"
)

type logToasts struct{ logger *zap.Logger }

func (v logToasts) Present(t miniapp.Toast) {
	v.logger.Info("toast", zap.String("severity", t.Severity.String()), zap.String("message", t.Message))
}

func (logToasts) Dismiss() {}

type logHaptics struct{ logger *zap.Logger }

func (h logHaptics) NotificationOccurred(kind string) {
	h.logger.Debug("haptic", zap.String("kind", kind))
}

type logBadge struct{ logger *zap.Logger }

func (b logBadge) Render(count int, visible bool) {
	b.logger.Debug("badge", zap.Int("count", count), zap.Bool("visible", visible))
}

type options struct {
	base      string
	productID int64
	bumps     int
	lang      string
	phone     string
}

func main() {
	var (
		opts     options
		logLevel string
	)
	flag.StringVar(&opts.base, "base", "http://localhost:8080", "Shop base URL")
	flag.Int64Var(&opts.productID, "product", 0, "Product id to add and bump")
	flag.IntVar(&opts.bumps, "bumps", 3, "Number of rapid +1 taps on the cart line")
	flag.StringVar(&opts.lang, "lang", "", "Switch the session language (ru or uz) before shopping")
	flag.StringVar(&opts.phone, "phone", "", "Place a pickup order for the line with this phone number")
	flag.StringVar(&logLevel, "log-level", "info", "Log level")
	flag.Parse()

	if opts.productID <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("smoke")

	if err := run(opts, logger); err != nil {
		logger.Fatal("smoke failed", zap.Error(err))
	}
}

func run(opts options, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	productID := opts.productID
	client, err := shopclient.New(opts.base, shopclient.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := client.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if opts.lang != "" {
		if err := client.SetLanguage(ctx, opts.lang); err != nil {
			return fmt.Errorf("set language: %w", err)
		}
		logger.Info("language switched", zap.String("lang", client.Language()))
	}

	count, err := client.AddToCart(ctx, productID)
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	logger.Info("added to cart", zap.Int64("product", productID), zap.Int("total_count", count))

	snap, err := client.Cart(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	var lineID int64
	for _, l := range snap.Lines {
		if l.ProductID == productID {
			lineID = l.ID
		}
	}
	if lineID == 0 {
		return fmt.Errorf("product %d missing from cart", productID)
	}

	toaster := miniapp.NewToaster(logToasts{logger}, logHaptics{logger}, nil)
	badge := miniapp.NewBadge(logBadge{logger}, snap.TotalCount)
	cart := miniapp.NewCart(client, &miniapp.RequestLock{}, toaster, miniapp.LinesFromSnapshot(snap),
		miniapp.WithBadge(badge),
		miniapp.WithLogger(logger),
		miniapp.WithLanguage(client.Language()),
	)

	for i := 0; i < opts.bumps; i++ {
		cart.ChangeQuantity(lineID, 1)
	}
	cart.Flush()

	line, _ := cart.Line(lineID)
	s := cart.Summary()
	fmt.Printf("line %d quantity=%d selected=%d total=%s checkout=%q\n",
		lineID, line.Quantity, s.SelectedCount, s.TotalText, s.Checkout.Label)

	after, err := client.Cart(ctx)
	if err != nil {
		return fmt.Errorf("reload cart: %w", err)
	}
	for _, l := range after.Lines {
		if l.ID == lineID && l.Quantity != line.Quantity {
			return fmt.Errorf("server quantity %d differs from local %d", l.Quantity, line.Quantity)
		}
	}

	if opts.phone == "" {
		return nil
	}
	orderID, err := client.PlaceOrder(ctx, shopclient.OrderRequest{
		LineIDs:        []int64{lineID},
		DeliveryMethod: "pickup",
		Phone:          opts.phone,
	})
	if err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	logger.Info("order placed", zap.Int64("order_id", orderID), zap.Int64("line", lineID))
	return nil
}
