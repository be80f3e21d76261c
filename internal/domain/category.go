package domain

type Category struct {
	ID     int64  `json:"id"`
	Key    string `json:"key,omitempty"`
	NameRu string `json:"nameRu"`
	NameUz string `json:"nameUz"`
}

// Name returns the category name for the given language, falling back to Russian.
func (c Category) Name(lang string) string {
	if lang == "uz" && c.NameUz != "" {
		return c.NameUz
	}
	return c.NameRu
}
