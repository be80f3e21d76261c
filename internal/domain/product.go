package domain

import "time"

// Product prices are whole currency units (so'm), not cents.
type Product struct {
	ID            int64     `json:"id"`
	Key           string    `json:"key,omitempty"`
	CategoryID    int64     `json:"categoryId"`
	NameRu        string    `json:"nameRu"`
	NameUz        string    `json:"nameUz"`
	DescriptionRu string    `json:"descriptionRu,omitempty"`
	Price         int64     `json:"price"`
	Stock         int       `json:"stock"`
	ImagePath     string    `json:"imagePath,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Name returns the product name for the given language, falling back to Russian.
func (p Product) Name(lang string) string {
	if lang == "uz" && p.NameUz != "" {
		return p.NameUz
	}
	return p.NameRu
}
