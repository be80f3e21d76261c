package seed

import (
	"context"
	"fmt"

	"miniapp-shop/internal/domain"
)

type categoryUpserter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type productUpserter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type productSeed struct {
	Key         string
	Category    string
	NameRu      string
	NameUz      string
	Description string
	Price       int64
	Stock       int
}

var categories = []domain.Category{
	{Key: "drinks", NameRu: "Напитки", NameUz: "Ichimliklar"},
	{Key: "sweets", NameRu: "Сладости", NameUz: "Shirinliklar"},
}

var products = []productSeed{
	{Key: "green-tea", Category: "drinks", NameRu: "Зелёный чай", NameUz: "Ko'k choy", Description: "Рассыпной чай, <b>100 г</b>", Price: 18000, Stock: 25},
	{Key: "coffee-beans", Category: "drinks", NameRu: "Кофе в зёрнах", NameUz: "Qahva donalari", Description: "Арабика, 250 г", Price: 64000, Stock: 10},
	{Key: "halva", Category: "sweets", NameRu: "Халва", NameUz: "Holva", Description: "Кунжутная халва", Price: 22000, Stock: 3},
	{Key: "honey", Category: "sweets", NameRu: "Мёд", NameUz: "Asal", Description: "Горный мёд, 500 г", Price: 55000, Stock: 0},
}

// Apply inserts demo categories and products for manual testing. It is idempotent.
func Apply(ctx context.Context, cats categoryUpserter, prods productUpserter) error {
	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		saved, err := cats.Upsert(ctx, c)
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Key, err)
		}
		ids[c.Key] = saved.ID
	}

	for _, p := range products {
		_, err := prods.Upsert(ctx, domain.Product{
			Key:           p.Key,
			CategoryID:    ids[p.Category],
			NameRu:        p.NameRu,
			NameUz:        p.NameUz,
			DescriptionRu: p.Description,
			Price:         p.Price,
			Stock:         p.Stock,
			IsActive:      true,
		})
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	return nil
}
