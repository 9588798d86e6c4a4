// Package importer сверяет заказы из таблицы с каталогом товаров и сохраняет их.
package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ не раскладывается NFD, заменяем вручную.
var letterReplacer = strings.NewReplacer("đ", "d", "Đ", "d")

// Normalize приводит строку к виду для сравнения: нижний регистр, без диакритики,
// схлопнутые пробелы.
func Normalize(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, letterReplacer.Replace(value))
	if err != nil {
		folded = value
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// normalizeHeader дополнительно убирает пунктуацию, чтобы "Order-Code" и "order code" совпадали.
func normalizeHeader(value string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, Normalize(value))
	return strings.Join(strings.Fields(cleaned), " ")
}
