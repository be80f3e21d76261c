package httpserver

import (
	"embed"
	"html/template"

	"github.com/microcosm-cc/bluemonday"

	"miniapp-shop/internal/domain"
	"miniapp-shop/internal/locale"
	"miniapp-shop/internal/money"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

// pageData is shared by every page and fragment template.
type pageData struct {
	Title         string
	Lang          string
	CSRFToken     string
	CartCount     int
	Categories    []domain.Category
	Products      []domain.Product
	Favorites     map[int64]bool
	Lines         []domain.CartLine
	Total         int64
	SelectedCount int
	CheckoutLabel string
	Checkout      *domain.CheckoutSummary
	Order         *domain.Order
}

type localized interface {
	Name(lang string) string
}

func parseTemplates() (*template.Template, error) {
	policy := bluemonday.UGCPolicy()
	funcs := template.FuncMap{
		"price": func(amount int64, lang string) string {
			return money.FormatWithCurrency(amount, lang)
		},
		"name": func(v localized, lang string) string {
			return v.Name(lang)
		},
		"t": locale.T,
		"description": func(raw string) template.HTML {
			return template.HTML(policy.Sanitize(raw))
		},
	}
	return template.New("shop").Funcs(funcs).ParseFS(templateFS, "templates/*.html", "templates/partials/*.html")
}
