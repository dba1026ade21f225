package foods

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold turns a food name into its search key: accents stripped, lower
// case, inner whitespace collapsed. "Phở Bò" and "pho  bo" share a key.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	// đ has no combining decomposition
	folded = strings.NewReplacer("đ", "d", "Đ", "d").Replace(folded)
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
