package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"miniapp-shop/internal/domain"
	"miniapp-shop/internal/money"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// CSVImporter reads catalog CSV files and upserts categories and products by key.
//
// Expected columns: key, category, name.ru, name.uz, description.ru, price, stock, image, active.
// Only key, category, name.ru and price are required; active defaults to true.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	catIDs     map[string]int64
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		catIDs:     make(map[string]int64),
	}
}

// Run imports every row and returns the number of products written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"key", "category", "name.ru", "price"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing column %q", required)
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		p, category, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		p.CategoryID, err = i.categoryID(ctx, category)
		if err != nil {
			return imported, err
		}
		if _, err := i.products.Upsert(ctx, p); err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", p.Key, err)
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) categoryID(ctx context.Context, key string) (int64, error) {
	if id, ok := i.catIDs[key]; ok {
		return id, nil
	}
	c, err := i.categories.Upsert(ctx, domain.Category{Key: key})
	if err != nil {
		return 0, fmt.Errorf("upsert category %q: %w", key, err)
	}
	i.catIDs[key] = c.ID
	return c.ID, nil
}

func parseRow(record []string, index map[string]int) (domain.Product, string, error) {
	p := domain.Product{
		Key:           pick(record, index, "key"),
		NameRu:        pick(record, index, "name.ru"),
		NameUz:        pick(record, index, "name.uz"),
		DescriptionRu: pick(record, index, "description.ru"),
		ImagePath:     pick(record, index, "image"),
		IsActive:      true,
	}
	category := pick(record, index, "category")
	if p.Key == "" || p.NameRu == "" || category == "" {
		return p, "", errors.New("key, category and name.ru are required")
	}

	raw, err := strconv.ParseFloat(pick(record, index, "price"), 64)
	if err != nil {
		return p, "", fmt.Errorf("price for %q: %w", p.Key, err)
	}
	if p.Price, err = money.Normalize(raw); err != nil || p.Price < 0 {
		return p, "", fmt.Errorf("price for %q: %w", p.Key, money.ErrInvalidAmount)
	}

	if s := pick(record, index, "stock"); s != "" {
		if p.Stock, err = strconv.Atoi(s); err != nil || p.Stock < 0 {
			return p, "", fmt.Errorf("stock for %q: invalid value %q", p.Key, s)
		}
	}
	if s := pick(record, index, "active"); s != "" {
		if p.IsActive, err = strconv.ParseBool(s); err != nil {
			return p, "", fmt.Errorf("active for %q: %w", p.Key, err)
		}
	}
	return p, category, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
