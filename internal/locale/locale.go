// Package locale resolves the shopper's interface language and translates
// interface strings. Russian strings are the message keys; other languages
// are looked up in an x/text catalog and fall back to the key.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	Russian = "ru"
	Uzbek   = "uz"

	Default = Russian
)

var uzbek = map[string]string{
	"Магазин":                        "Do'kon",
	"Каталог":                        "Katalog",
	"Корзина":                        "Savat",
	"Избранное":                      "Sevimlilar",
	"Оформление заказа":              "Buyurtmani rasmiylashtirish",
	"Поиск товаров":                  "Mahsulotlarni qidirish",
	"Все":                            "Hammasi",
	"В корзину":                      "Savatga",
	"Нет в наличии":                  "Mavjud emas",
	"Ничего не найдено":              "Hech narsa topilmadi",
	"Выбрать все":                    "Hammasini tanlash",
	"Корзина пуста":                  "Savat bo'sh",
	"Выберите товары":                "Mahsulotlarni tanlang",
	"Оформить (%d)":                  "Rasmiylashtirish (%d)",
	"Обновление…":                    "Yangilanmoqda…",
	"Итого: %s (%d шт.)":             "Jami: %s (%d dona)",
	"Телефон":                        "Telefon",
	"Способ получения":               "Qabul qilish usuli",
	"Самовывоз":                      "Olib ketish",
	"Доставка":                       "Yetkazib berish",
	"Адрес":                          "Manzil",
	"Комментарий":                    "Izoh",
	"Подтвердить заказ":              "Buyurtmani tasdiqlash",
	"Заказ принят":                   "Buyurtma qabul qilindi",
	"Заказ №%d принят":               "Buyurtma №%d qabul qilindi",
	"Оплата наличными при получении": "Qabul qilishda naqd to'lov",
	"Вернуться в каталог":            "Katalogga qaytish",
	"Язык":                           "Til",
	"сум":                            "so'm",
}

var messages = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Russian))
	for key, msg := range uzbek {
		_ = b.SetString(language.Uzbek, key, msg)
	}
	return b
}()

// Supported reports whether lang is one of the shop languages.
func Supported(lang string) bool {
	return lang == Russian || lang == Uzbek
}

// Normalize maps unsupported values to Default.
func Normalize(lang string) string {
	if Supported(lang) {
		return lang
	}
	return Default
}

func Tag(lang string) language.Tag {
	if Normalize(lang) == Uzbek {
		return language.Uzbek
	}
	return language.Russian
}

// Printer formats numbers and messages for lang.
func Printer(lang string) *message.Printer {
	return message.NewPrinter(Tag(lang), message.Catalog(messages))
}

// T translates key into lang, formatting args the way fmt.Sprintf does.
func T(lang, key string, args ...any) string {
	return Printer(lang).Sprintf(key, args...)
}
